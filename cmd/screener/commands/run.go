package commands

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/valuescan/backend/internal/contracts"
	"github.com/wonny/valuescan/backend/internal/screen"
	"github.com/wonny/valuescan/backend/internal/valuation"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "스크리닝 실행",
	Long: `시가총액 상위 종목을 기술적/재무 규칙으로 스크리닝합니다.

이 명령어는:
- 시장 상장 목록 조회 후 시가총액 순 정렬
- 상위 N개 종목에 규칙 세트 적용
- 통과 종목의 적정주가/괴리율 계산

Example:
  go run ./cmd/screener run --market KOSPI --top 200
  go run ./cmd/screener run --market KOSDAQ --trend --min-reserve 500
  go run ./cmd/screener run --market NASDAQ --sort fundamental`,
	RunE: runScreening,
}

var (
	runMarket          string
	runTop             int
	runWorkers         int
	runVariant         string
	runSort            string
	runTrend           bool
	runRSIUnder70      bool
	runMA5Breakout     bool
	runMinTradingValue float64
	runExcludeNames    bool
	runMinReserve      float64
	runMaxDebt         float64
	runMinROE          float64
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runMarket, "market", "KOSPI", "시장 (KOSPI|KOSDAQ|NASDAQ)")
	runCmd.Flags().IntVar(&runTop, "top", 0, "시가총액 상위 N개 (0이면 env 기본값)")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "워커 수 (0이면 env 기본값)")
	runCmd.Flags().StringVar(&runVariant, "variant", "", "적정주가 방식 (blend|multiple)")
	runCmd.Flags().StringVar(&runSort, "sort", "", "정렬 (gap|fundamental|deep_discount)")
	runCmd.Flags().BoolVar(&runTrend, "trend", false, "추세 규칙 전체 활성화 (이평 배열/기울기/주봉/월봉)")
	runCmd.Flags().BoolVar(&runRSIUnder70, "rsi-under-70", false, "일봉 RSI 70 이하만")
	runCmd.Flags().BoolVar(&runMA5Breakout, "ma5-breakout", false, "MA5 60봉 신고가 돌파만")
	runCmd.Flags().Float64Var(&runMinTradingValue, "min-trading-value", 0, "최소 거래대금 (억, 0이면 비활성)")
	runCmd.Flags().BoolVar(&runExcludeNames, "exclude-names", true, "스팩/ETF/ETN/지주/우선주 제외")
	runCmd.Flags().Float64Var(&runMinReserve, "min-reserve", 0, "유보율 하한 %% (0이면 비활성)")
	runCmd.Flags().Float64Var(&runMaxDebt, "max-debt", 0, "부채비율 상한 %% (0이면 비활성)")
	runCmd.Flags().Float64Var(&runMinROE, "min-roe", 0, "ROE 하한 %% (0이면 비활성)")
}

func runScreening(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Valuescan Screener ===")

	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	market := contracts.ParseMarket(runMarket)
	cfg := screen.FromAppConfig(a.cfg, market)

	if runTop > 0 {
		cfg.TopN = runTop
	}
	if runWorkers > 0 {
		cfg.Workers = runWorkers
	}
	if runVariant != "" {
		cfg.Variant = valuation.ParseVariant(runVariant)
	}
	if runSort != "" {
		cfg.SortBy = screen.ParseSortKey(runSort)
	}

	cfg.Rules = screen.Rules{
		MonthlyCandlePositive: runTrend,
		WeeklyHigherHigh:      runTrend,
		WeeklyHigherLow:       runTrend,
		RSIUnder70:            runRSIUnder70,
		MA60BelowMA120:        runTrend,
		MA20BelowMA60:         runTrend,
		MA5AboveMA10:          runTrend,
		MA10AboveMA20:         runTrend,
		MA5NonDecreasing:      runTrend,
		MA10Rising:            runTrend,
		MA20Rising:            runTrend,
		MA5Breakout:           runMA5Breakout,
		MinTradingValue:       runMinTradingValue,
		ExcludeByName:         runExcludeNames,
		MinReserveRatio:       runMinReserve,
		MaxDebtRatio:          runMaxDebt,
		MinROE:                runMinROE,
	}
	if cfg.Rules.MinTradingValue == 0 {
		cfg.Rules.MinTradingValue = a.cfg.Screen.MinTradingValue
	}

	fmt.Printf("\nMarket: %s | Top: %d | Workers: %d | Variant: %s\n\n",
		market, cfg.TopN, cfg.Workers, cfg.Variant)

	a.orch.SetProgress(func(done, total int) {
		if done%20 == 0 || done == total {
			fmt.Printf("[Screen] %d/%d analyzed\n", done, total)
		}
	})

	start := time.Now()
	records, err := a.orch.Run(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("screening failed: %w", err)
	}

	printRecords(records)

	fmt.Printf("\n✅ %d passed in %.1fs\n", len(records), time.Since(start).Seconds())
	return nil
}

// printRecords renders the result set as an aligned table
func printRecords(records []contracts.AnalysisRecord) {
	if len(records) == 0 {
		fmt.Println("\n조건을 통과한 종목이 없습니다.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tCODE\tNAME\tPRICE\tFAIR\tTARGET\tGAP%\tF/G\tROE%\tDEBT%\t")

	for _, r := range records {
		mark := ""
		if r.Highlight {
			mark = " ⭐"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%.0f\t%.0f\t%.0f\t%.1f%s\t%.0f\t%.1f\t%.1f\t\n",
			r.MarketCapRank, r.Code, r.Name, r.Price,
			r.FairPrior, r.FairTarget, r.GapPct, mark,
			r.FearGreed, r.ROE, r.DebtRatio)
	}

	w.Flush()
}
