package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ashwinyue/eval-console/internal/service/groundtruth"
)

var csvOutput string

var csvCmd = &cobra.Command{
	Use:   "csv",
	Short: "Ground truth CSV utilities",
}

var csvInspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Print headers, row count and the automatic schema mapping of a CSV file",
	Args:  cobra.ExactArgs(1),
	RunE:  runCSVInspect,
}

func init() {
	csvInspectCmd.Flags().StringVarP(&csvOutput, "output", "o", "yaml", "output format: yaml | json")
	csvCmd.AddCommand(csvInspectCmd)
}

func runCSVInspect(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	res, err := groundtruth.Inspect(string(data))
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	switch csvOutput {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(res); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", csvOutput)
	}
}
