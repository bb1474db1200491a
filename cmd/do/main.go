package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/educacao-adventista/matriculometro/cmd/do/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "do",
		Short:        "Maintenance tools for the enrollment goals database",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cmd.MigrateCmd())
	rootCmd.AddCommand(cmd.ExportCmd())
	rootCmd.AddCommand(cmd.ImportCmd())
	rootCmd.AddCommand(cmd.SummaryCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
