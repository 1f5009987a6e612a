package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vbonduro/traincheck/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:         "init",
		Short:       "Write a default config.yaml if none exists",
		Args:        exactArgs(0),
		Annotations: map[string]string{annotationSkipConfigFile: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath()
			created, err := config.WriteDefault(path)
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already exists\n", path)
			}
			return nil
		},
	})
	return cmd
}
