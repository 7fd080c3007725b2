package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	env     string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "Valuescan - 가치투자 스크리닝 시스템",
	Long: `Valuescan CLI

네이버 금융 데이터 기반 가치투자 스크리너.
시가총액 상위 종목을 기술적/재무 규칙으로 거르고 적정주가를 계산한다.

Usage:
  go run ./cmd/screener [command]

Examples:
  go run ./cmd/screener run --market KOSPI --top 200
  go run ./cmd/screener sentiment 005930
  go run ./cmd/screener rate
  go run ./cmd/screener serve`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		applyGlobalFlags(cmd)
	},
}

// applyGlobalFlags maps the global flags onto the env keys config
// reads, before any subcommand loads config.
func applyGlobalFlags(cmd *cobra.Command) {
	if cmd.Root().PersistentFlags().Changed("env") {
		os.Setenv("ENV", env)
	}
	if verbose {
		os.Setenv("LOG_LEVEL", "debug")
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&env, "env", "development", "environment (development|staging|production)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
