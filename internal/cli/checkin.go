package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vbonduro/traincheck/internal/domain"
	"github.com/vbonduro/traincheck/internal/exchange"
	"github.com/vbonduro/traincheck/internal/query"
	"github.com/vbonduro/traincheck/internal/service"
)

const listTimeLayout = "2006-01-02 15:04"

func newCheckinCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "checkin",
		Aliases: []string{"ci"},
		Short:   "Record and browse check-ins",
	}
	cmd.AddCommand(
		newCheckinAddCmd(a),
		newCheckinListCmd(a),
		newCheckinEditCmd(a),
		newCheckinRmCmd(a),
		newCheckinPhotoCmd(a),
	)
	return cmd
}

func newCheckinAddCmd(a *app) *cobra.Command {
	var (
		req    service.SubmitRequest
		plat   int
		photos []string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a check-in",
		Example: `  traincheck checkin add --train 368 --platform 10 --notes "door 3 sticky"
  traincheck checkin add --train 368 --platform 1 --date 2026-03-10 --photo a.jpg --photo b.png`,
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			req.Platform = domain.Platform(plat)
			for _, path := range photos {
				data, err := os.ReadFile(path)
				if err != nil {
					return usageError{fmt.Errorf("failed to read photo: %w", err)}
				}
				req.Photos = append(req.Photos, data)
			}

			checkin, err := svc.Checkins.Submit(commandContext(cmd), req)
			if checkin == nil {
				return err
			}
			if a.jsonOut {
				if jerr := writeJSON(cmd.OutOrStdout(), checkin); jerr != nil {
					return jerr
				}
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "recorded checkin %s (%d photos)\n", checkin.ID, len(checkin.PhotoKeys))
			}
			if errors.Is(err, domain.ErrPartialWrite) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&req.TrainID, "train", "", "registered train id")
	cmd.Flags().IntVar(&plat, "platform", 0, "platform: 1 or 10")
	cmd.Flags().StringVar(&req.Date, "date", "", "event date YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&req.Notes, "notes", "", "free-text notes")
	cmd.Flags().StringVar(&req.TaskID, "task", "", "task id to file the check-in under")
	cmd.Flags().StringArrayVar(&photos, "photo", nil, "image file to attach (repeatable, at most 10)")
	return cmd
}

func newCheckinListCmd(a *app) *cobra.Command {
	var (
		opts  query.Options
		sort  string
		today bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List check-ins",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			if opts.Mode, err = query.ParseSortMode(sort); err != nil {
				return err
			}

			var checkins []*domain.Checkin
			if today {
				checkins, err = svc.Checkins.Today(commandContext(cmd))
			} else {
				checkins, err = svc.Checkins.List(commandContext(cmd), opts)
			}
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), emptyIfNil(checkins))
			}
			return a.printCheckins(cmd.OutOrStdout(), checkins)
		},
	}
	cmd.Flags().StringVar(&opts.TrainID, "train", "", "only check-ins of this train")
	cmd.Flags().StringVar(&opts.TaskID, "task", "", "only check-ins under this task")
	cmd.Flags().StringVar(&sort, "sort", "time", "sort by time, train or task")
	cmd.Flags().BoolVar(&opts.Ascending, "asc", false, "ascending order")
	cmd.Flags().BoolVar(&today, "today", false, "only today's check-ins")
	return cmd
}

func (a *app) printCheckins(w io.Writer, checkins []*domain.Checkin) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tWHEN\tTRAIN\tPLATFORM\tTASK\tPHOTOS\tNOTES")
	for _, c := range checkins {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%d\t%s\n",
			c.ID,
			c.Timestamp.In(a.loc).Format(listTimeLayout),
			c.TrainID,
			c.Platform,
			c.TaskID,
			len(c.PhotoKeys),
			strings.ReplaceAll(c.Notes, "\n", " "),
		)
	}
	return tw.Flush()
}

func newCheckinEditCmd(a *app) *cobra.Command {
	var (
		trainID, date, notes string
		plat                 int
	)
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a check-in's train, platform, date or notes",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			current, err := svc.Checkins.Get(ctx, args[0])
			if err != nil {
				return err
			}

			req := service.UpdateRequest{
				TrainID:  current.TrainID,
				Platform: current.Platform,
				Notes:    current.Notes,
			}
			flags := cmd.Flags()
			if flags.Changed("train") {
				req.TrainID = trainID
			}
			if flags.Changed("platform") {
				req.Platform = domain.Platform(plat)
			}
			if flags.Changed("date") {
				req.Date = date
			}
			if flags.Changed("notes") {
				req.Notes = notes
			}

			updated, err := svc.Checkins.Update(ctx, args[0], req)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(cmd.OutOrStdout(), updated)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated checkin %s\n", updated.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&trainID, "train", "", "new train id")
	cmd.Flags().IntVar(&plat, "platform", 0, "new platform: 1 or 10")
	cmd.Flags().StringVar(&date, "date", "", "new event date YYYY-MM-DD; the time of day is kept")
	cmd.Flags().StringVar(&notes, "notes", "", "new notes")
	return cmd
}

func newCheckinRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a check-in and its photos",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			if err := a.confirm(cmd, fmt.Sprintf("Remove checkin %s and its photos?", args[0])); err != nil {
				return err
			}
			if err := svc.Checkins.Delete(commandContext(cmd), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed checkin %s\n", args[0])
			return nil
		},
	}
}

func newCheckinPhotoCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "photo <photo-id>",
		Short: "Write a stored photo to a file or stdout",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.services()
			if err != nil {
				return err
			}
			_, r, err := svc.Checkins.Photo(commandContext(cmd), args[0])
			if err != nil {
				return err
			}
			defer func() {
				if cerr := r.Close(); cerr != nil {
					a.logger.Error("failed to close photo", "photo_id", args[0], "error", cerr)
				}
			}()

			if out == "" {
				_, err = io.Copy(cmd.OutOrStdout(), r)
				return err
			}
			data, err := io.ReadAll(r)
			if err != nil {
				return fmt.Errorf("failed to read photo: %w", err)
			}
			return exchange.WriteFile(out, data)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	return cmd
}
