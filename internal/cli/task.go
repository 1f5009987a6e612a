package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vbonduro/traincheck/internal/domain"
)

func newTaskCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage work-order tasks",
	}
	cmd.AddCommand(newTaskAddCmd(a), newTaskListCmd(a), newTaskRmCmd(a), newTaskProgressCmd(a))
	return cmd
}

func newTaskAddCmd(a *app) *cobra.Command {
	var date, name string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			task, err := svc.Tasks.Create(commandContext(cmd), date, name)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), task)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created task %s for %s\n", task.ID, task.Date)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "task date YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&name, "name", "", "optional task name")
	return cmd
}

func newTaskListCmd(a *app) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, newest date first",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			var tasks []*domain.Task
			if date != "" {
				tasks, err = svc.Tasks.ListByDate(commandContext(cmd), date)
			} else {
				tasks, err = svc.Tasks.List(commandContext(cmd))
			}
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), emptyIfNil(tasks))
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tDATE\tNAME")
			for _, t := range tasks {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ID, t.Date, t.Name)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "only tasks on this date")
	return cmd
}

func newTaskRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a task. Its check-ins are kept",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			if err := a.confirm(cmd, fmt.Sprintf("Remove task %s?", args[0])); err != nil {
				return err
			}
			if err := svc.Tasks.Delete(commandContext(cmd), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed task %s\n", args[0])
			return nil
		},
	}
}

func newTaskProgressCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "progress <id>",
		Short: "Show how many registered trains a task has covered",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			progress, err := svc.Tasks.Progress(commandContext(cmd), args[0])
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), progress)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d/%d trains (%d%%)\n", progress.Completed, progress.Total, progress.Percent)
			if len(progress.CompletedTrainIDs) > 0 {
				fmt.Fprintf(out, "done: %s\n", strings.Join(progress.CompletedTrainIDs, ", "))
			}
			return nil
		},
	}
}
