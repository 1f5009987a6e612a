package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vbonduro/traincheck/internal/exchange"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		report bool
		out    string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the log as JSON, or as a readable report",
		Long: `Export writes every train, task and check-in as a JSON document that
import can read back. Photos are not exported. With --report a plain text
summary is written instead; it cannot be imported.

Without --out the result goes to stdout. When --out names a directory the
file is written there as subway-checkins-YYYY-MM-DD.json.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)

			var data []byte
			if report {
				text, err := svc.Transfer.Report(ctx)
				if err != nil {
					return err
				}
				data = []byte(text)
			} else if data, err = svc.Transfer.Export(ctx); err != nil {
				return err
			}

			if out == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}

			path := out
			if info, err := os.Stat(out); err == nil && info.IsDir() {
				path = filepath.Join(out, exchange.DefaultFilename(a.clock().In(a.loc)))
			}
			if err := exchange.WriteFile(path, data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&report, "report", false, "write the readable text report")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file or directory (default: stdout)")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import [file|-]",
		Short: "Merge an export document into the log",
		Long: `Import adds every train, task and check-in from an export document whose
id is not already present. Existing records are never changed. Reads stdin
when the file is - or omitted.`,
		Args: maxArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if len(args) == 0 || args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return usageError{fmt.Errorf("failed to read import: %w", err)}
			}

			svc, err := a.services()
			if err != nil {
				return err
			}
			result, err := svc.Transfer.Import(commandContext(cmd), string(data))
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d trains, %d tasks, %d checkins\n", result.Trains, result.Tasks, result.Checkins)
			return nil
		},
	}
}
