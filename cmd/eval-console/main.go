// eval-console 是 GenAI 评估控制台的服务端
//
// Usage:
//
//	eval-console serve [--config=<path>]
//	eval-console csv inspect <file> [--output=yaml|json]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version 构建时通过 -ldflags 注入
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "eval-console",
	Short: "GenAI evaluation console backend",
	Long:  "Serves the evaluation console API: setup, ground truth datasets,\nsimulated evaluation runs, results and trends.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(csvCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
