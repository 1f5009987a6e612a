package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/vbonduro/traincheck/internal/domain"
	"github.com/vbonduro/traincheck/internal/query"
)

func newCalendarCmd(a *app) *cobra.Command {
	var (
		month string
		opts  query.Options
	)
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show a month of check-ins",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}

			first := a.clock().In(a.loc)
			if month != "" {
				if first, err = time.ParseInLocation("2006-01", month, a.loc); err != nil {
					return usageError{fmt.Errorf("month %q must be YYYY-MM", month)}
				}
			}

			cal, err := svc.Checkins.Calendar(commandContext(cmd), first.Year(), first.Month(), opts)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), cal)
			}
			printCalendar(cmd.OutOrStdout(), cal)
			return nil
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month YYYY-MM (default: current month)")
	cmd.Flags().StringVar(&opts.TrainID, "train", "", "only check-ins of this train")
	cmd.Flags().StringVar(&opts.TaskID, "task", "", "only check-ins under this task")
	return cmd
}

// printCalendar renders the grid with a * after days that have check-ins,
// followed by a per-day count.
func printCalendar(w io.Writer, cal query.Calendar) {
	fmt.Fprintf(w, "%s %d\n", cal.Month, cal.Year)
	fmt.Fprintln(w, "Su  Mo  Tu  We  Th  Fr  Sa")

	var busy []query.Day
	for _, week := range cal.Weeks {
		cells := make([]string, 0, len(week))
		for _, d := range week {
			if !d.InMonth {
				cells = append(cells, "  ")
				continue
			}
			mark := " "
			if len(d.Checkins) > 0 {
				mark = "*"
				busy = append(busy, d)
			}
			cells = append(cells, fmt.Sprintf("%2d%s", d.Date.Day(), mark))
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, " "), " "))
	}

	if len(busy) > 0 {
		fmt.Fprintln(w)
	}
	for _, d := range busy {
		fmt.Fprintf(w, "%s  %d\n", d.Key, len(d.Checkins))
	}
}

func newUsageCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show approximate storage use",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			usage, err := svc.Storage.ComputeUsage(commandContext(cmd))
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), usage)
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintf(tw, "Photos:\t%s\n", humanize.Bytes(uint64(usage.Photos)))
			fmt.Fprintf(tw, "Data:\t%s\n", humanize.Bytes(uint64(usage.Data)))
			fmt.Fprintf(tw, "Total:\t%s\n", humanize.Bytes(uint64(usage.Total)))
			return tw.Flush()
		},
	}
}

func newPurgeCmd(a *app) *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete photos older than a number of days",
		Long: `Purge deletes every photo created more than --days days ago.
Check-ins are kept and still list the removed photo ids.`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if days < 0 {
				return fmt.Errorf("%w: days must not be negative", domain.ErrInvalidInput)
			}
			svc, err := a.services()
			if err != nil {
				return err
			}
			if err := a.confirm(cmd, fmt.Sprintf("Delete photos older than %d days?", days)); err != nil {
				return err
			}
			deleted, err := svc.Storage.PurgeOlderThan(commandContext(cmd), days)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), map[string]int{"deleted": deleted})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d photos\n", deleted)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 30, "age threshold in days")
	return cmd
}
