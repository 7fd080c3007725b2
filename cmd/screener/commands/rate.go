package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// rateCmd represents the rate command
var rateCmd = &cobra.Command{
	Use:   "rate",
	Short: "한국은행 기준금리 조회",
	Long: `네이버 시장지표 페이지에서 한국은행 기준금리를 조회합니다.

조회에 실패하면 폴백값을 출력합니다.

Example:
  go run ./cmd/screener rate`,
	RunE: runRate,
}

func init() {
	rootCmd.AddCommand(rateCmd)
}

func runRate(cmd *cobra.Command, args []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	rate := a.naver.BaseRate(cmd.Context())

	fmt.Printf("\n한국은행 기준금리: %.2f%%\n", rate)
	return nil
}
