package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vbonduro/traincheck/internal/query"
)

func newTrainCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Manage registered trains",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "add <id>...",
			Short: "Register one or more trains",
			Args:  minArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				svc, err := a.services()
				if err != nil {
					return err
				}
				for _, id := range args {
					train, err := svc.Trains.Register(commandContext(cmd), id)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "registered train %s\n", train.ID)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List registered trains",
			Args:  exactArgs(0),
			RunE: func(cmd *cobra.Command, args []string) error {
				svc, err := a.services()
				if err != nil {
					return err
				}
				trains, err := svc.Trains.List(commandContext(cmd))
				if err != nil {
					return err
				}
				query.SortTrains(trains)
				if a.jsonOut {
					return writeJSON(cmd.OutOrStdout(), emptyIfNil(trains))
				}

				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "ID\tREGISTERED")
				for _, t := range trains {
					fmt.Fprintf(tw, "%s\t%s\n", t.ID, t.CreatedAt.In(a.loc).Format("2006-01-02 15:04"))
				}
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "rm <id>",
			Short: "Remove a train. Its check-ins are kept",
			Args:  exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				svc, err := a.services()
				if err != nil {
					return err
				}
				if err := a.confirm(cmd, fmt.Sprintf("Remove train %s?", args[0])); err != nil {
					return err
				}
				if err := svc.Trains.Delete(commandContext(cmd), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed train %s\n", args[0])
				return nil
			},
		},
		&cobra.Command{
			Use:   "seed [id...]",
			Short: "Register the configured default trains, or the given ids",
			RunE: func(cmd *cobra.Command, args []string) error {
				svc, err := a.services()
				if err != nil {
					return err
				}
				ids := args
				if len(ids) == 0 {
					ids = a.cfg.SeedTrains
				}
				added, err := svc.Trains.Seed(commandContext(cmd), ids)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %d trains\n", added)
				return nil
			},
		},
	)
	return cmd
}
