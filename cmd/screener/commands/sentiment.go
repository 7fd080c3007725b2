package commands

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/valuescan/backend/internal/valuation"
)

// sentimentCmd represents the sentiment command
var sentimentCmd = &cobra.Command{
	Use:   "sentiment [code]",
	Short: "종목 공포/탐욕 지수 조회",
	Long: `주봉 RSI와 이격도 기반 공포/탐욕 지수를 계산합니다.

0에 가까울수록 공포(과매도), 100에 가까울수록 탐욕(과매수).
데이터가 부족하면 중립값 50.

Example:
  go run ./cmd/screener sentiment 005930`,
	Args: cobra.ExactArgs(1),
	RunE: runSentiment,
}

func init() {
	rootCmd.AddCommand(sentimentCmd)
}

func runSentiment(cmd *cobra.Command, args []string) error {
	code := args[0]

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	to := time.Now()
	from := to.AddDate(-2, 0, 0)

	bars, err := a.naver.DailySeries(cmd.Context(), code, from, to)
	if err != nil {
		return fmt.Errorf("fetch price series: %w", err)
	}

	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})

	fg := valuation.FearGreedWeekly(bars)

	label := "중립"
	switch {
	case fg < 30:
		label = "공포"
	case fg > 70:
		label = "탐욕"
	}

	fmt.Printf("\n종목: %s\n일봉: %d개\n공포/탐욕 지수: %.1f (%s)\n", code, len(bars), fg, label)
	return nil
}
