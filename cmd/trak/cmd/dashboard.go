package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trakapp/trak/internal/client"
	"github.com/trakapp/trak/internal/model"
	"golang.org/x/sync/errgroup"
)

type dashboard struct {
	stats      *model.UserStats
	week       []*model.CommuteLog
	challenges []*model.UserChallenge
	board      *model.Leaderboard
}

// loadDashboard issues the independent reads concurrently. The first
// failure cancels the rest.
func loadDashboard(cmd *cobra.Command, api *client.API) (*dashboard, error) {
	var d dashboard
	g, ctx := errgroup.WithContext(cmd.Context())

	g.Go(func() error {
		var err error
		d.stats, err = api.UserStats(ctx, subjectID)
		return err
	})
	g.Go(func() error {
		var err error
		d.week, err = api.CurrentWeekCommutes(ctx, subjectID)
		return err
	})
	g.Go(func() error {
		var err error
		d.challenges, err = api.UserChallenges(ctx, subjectID)
		return err
	})
	g.Go(func() error {
		var err error
		d.board, err = api.Leaderboard(ctx, subjectID, 5)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}

func dashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show stats, this week, challenges and the leaderboard at once",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return requireUser(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			session := client.SessionFrom(cmd.Context())
			d, err := loadDashboard(cmd, session.API())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Hi %s\n\n", displayName(session.User()))
			printStats(cmd, d.stats)

			fmt.Fprintln(out, "\nThis week")
			if len(d.week) == 0 {
				fmt.Fprintln(out, "Nothing logged yet, try `trak log --type cycle`")
			} else {
				printCommutes(cmd, d.week)
			}

			if len(d.challenges) > 0 {
				fmt.Fprintln(out, "\nChallenges")
				printUserChallenges(cmd, d.challenges)
			}

			fmt.Fprintln(out, "\nLeaderboard")
			printLeaderboard(cmd, d.board)
			return nil
		},
	}
}
