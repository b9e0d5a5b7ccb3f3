package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	policyFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "argus",
	Short: "Argus - OSINT 기반 예측/기회 엔진",
	Long: `Argus Unified CLI

경제지표, 위성 활동, 채용공고 신호를 수집해
엔티티별 활동을 예측하고 Monte Carlo 시뮬레이션으로
위험조정 기회를 산출하는 파이프라인.

Usage:
  go run ./cmd/argus [command]

Examples:
  go run ./cmd/argus collect
  go run ./cmd/argus process
  go run ./cmd/argus run
  go run ./cmd/argus api
  go run ./cmd/argus scheduler`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&policyFile, "policy", "", "policy YAML (default is ENGINE_POLICY_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
