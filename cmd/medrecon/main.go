package main

import (
	"os"

	"github.com/spf13/cobra"

	_ "medrecon/internal/extractor/claude"
	_ "medrecon/internal/extractor/gemini"
	_ "medrecon/internal/extractor/openai"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "medrecon",
		Short:        "Reconcile performed medical exams against insurer invoices",
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(reconcileCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(migrateCmd())
	return rootCmd
}
