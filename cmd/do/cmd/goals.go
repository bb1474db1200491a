package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/educacao-adventista/matriculometro/internal/app"
	"github.com/educacao-adventista/matriculometro/internal/board"
	"github.com/educacao-adventista/matriculometro/internal/codec"
	"github.com/educacao-adventista/matriculometro/internal/config"
	"github.com/educacao-adventista/matriculometro/internal/logger"
	"github.com/educacao-adventista/matriculometro/internal/model"
)

func openApp() (*app.App, error) {
	cfg := config.Load()
	logger.InitTo(os.Stderr, cfg.IsDevelopment(), cfg.SentryDSN)
	return app.New(cfg)
}

func ExportCmd() *cobra.Command {
	var format, output string

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write every goal as JSON or CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			goals, err := a.GoalService.Goals()
			if err != nil {
				return err
			}

			if output == "" {
				return writeGoals(cmd.OutOrStdout(), format, goals)
			}

			return exportFile(output, format, goals)
		},
	}

	exportCmd.Flags().StringVarP(&format, "format", "f", "json", "json or csv")
	exportCmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default stdout)")
	return exportCmd
}

// exportFile writes goals to path. The close error is reported because it
// can carry a failed flush.
func exportFile(path, format string, goals []*model.Goal) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	err = writeGoals(f, format, goals)
	closeErr := f.Close()
	if err != nil {
		return err
	}
	if closeErr != nil {
		return fmt.Errorf("failed to write %s: %w", path, closeErr)
	}
	return nil
}

func writeGoals(w io.Writer, format string, goals []*model.Goal) error {
	switch format {
	case "json":
		return codec.WriteJSON(w, goals)
	case "csv":
		return codec.WriteCSV(w, goals)
	default:
		return fmt.Errorf("unknown format %q: use json or csv", format)
	}
}

func ImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json|file.csv>",
		Short: "Replace every goal with the contents of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", path, err)
			}
			defer f.Close()

			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			var count int
			if strings.HasSuffix(strings.ToLower(path), ".csv") {
				inputs, err := codec.ParseCSV(f)
				if err != nil {
					return err
				}
				count, err = a.GoalService.ImportCSV(inputs)
				if err != nil {
					return err
				}
			} else {
				records, err := codec.DecodeImport(f)
				if err != nil {
					return err
				}
				count, err = a.GoalService.Replace(records)
				if err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "imported %d goals\n", count)
			return nil
		},
	}
}

func SummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print the board straight from the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			summary, err := a.GoalService.Summary()
			if err != nil {
				return err
			}
			return board.Render(cmd.OutOrStdout(), summary, board.Options{})
		},
	}
}
