package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "vpudispatch",
	Short: "Adaptive compute dispatcher: profile, plan, execute, and learn",
	Long: `vpudispatch routes Convolution, GEMM, and SAXPY tasks across candidate
execution plans, predicting cost against a learned hardware belief store and
reconciling predicted against observed cost after every run.`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a DispatcherConfig YAML file")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(beliefsCmd)
	rootCmd.AddCommand(serveMetricsCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
