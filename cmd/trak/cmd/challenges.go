package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/trakapp/trak/internal/client"
	"github.com/trakapp/trak/internal/model"
)

func challengesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "challenges",
		Short: "List, join and create challenges",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := openSession(cmd); err != nil {
				return err
			}
			return requireUser(cmd)
		},
	}

	cmd.AddCommand(challengesListCmd(), challengesJoinCmd(), challengesCreateCmd(), challengesMineCmd())
	return cmd
}

func challengesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active challenges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			challenges, err := client.SessionFrom(cmd.Context()).API().Challenges(cmd.Context(), subjectID)
			if err != nil {
				return err
			}
			printChallenges(cmd, challenges)
			return nil
		},
	}
}

func printChallenges(cmd *cobra.Command, challenges []*model.Challenge) {
	tw := newTable(cmd.OutOrStdout(), "ID", "TITLE", "GOAL", "POINTS", "ENDS", "PEOPLE", "JOINED")
	for _, c := range challenges {
		joined := ""
		if c.Joined {
			joined = "yes"
		}
		row(tw, c.ID, c.Title, fmt.Sprintf("%g %s", c.GoalValue, c.GoalType), c.RewardPoints, day(c.EndDate), c.Participants, joined)
	}
	_ = tw.Flush()
}

func challengesMineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mine",
		Short: "Show progress on joined challenges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			joined, err := client.SessionFrom(cmd.Context()).API().UserChallenges(cmd.Context(), subjectID)
			if err != nil {
				return err
			}
			printUserChallenges(cmd, joined)
			return nil
		},
	}
}

func printUserChallenges(cmd *cobra.Command, joined []*model.UserChallenge) {
	tw := newTable(cmd.OutOrStdout(), "TITLE", "PROGRESS", "STATUS")
	for _, uc := range joined {
		status := "in progress"
		if uc.Completed {
			status = "completed"
		}
		row(tw, uc.Challenge.Title, fmt.Sprintf("%g/%g %s", uc.Progress, uc.Challenge.GoalValue, uc.Challenge.GoalType), status)
	}
	_ = tw.Flush()
}

func challengesJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <challenge-id>",
		Short: "Join a challenge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := client.SessionFrom(cmd.Context()).API().JoinChallenge(cmd.Context(), subjectID, args[0])
			return reported(err)
		},
	}
}

func challengesCreateCmd() *cobra.Command {
	var (
		in       model.ChallengeInput
		goalType string
		start    string
		end      string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a challenge (admins only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in.GoalType = model.ChallengeGoal(goalType)

			var err error
			in.StartDate, err = parseDate("start", start, time.Now())
			if err != nil {
				return err
			}
			in.EndDate, err = parseDate("end", end, in.StartDate.AddDate(0, 0, 30))
			if err != nil {
				return err
			}

			_, err = client.SessionFrom(cmd.Context()).API().CreateChallenge(cmd.Context(), in)
			return reported(err)
		},
	}

	cmd.Flags().StringVar(&in.Title, "title", "", "Title (required)")
	cmd.Flags().StringVar(&in.Description, "description", "", "Markdown description")
	cmd.Flags().StringVar(&goalType, "goal", string(model.ChallengeGoalDays), "Goal type: days, co2 or distance")
	cmd.Flags().Float64Var(&in.GoalValue, "target", 0, "Goal value (required)")
	cmd.Flags().IntVar(&in.RewardPoints, "points", 0, "Points awarded on completion")
	cmd.Flags().StringVar(&start, "start", "", "Start date YYYY-MM-DD (default: now)")
	cmd.Flags().StringVar(&end, "end", "", "End date YYYY-MM-DD (default: 30 days after start)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func parseDate(name, value string, def time.Time) (time.Time, error) {
	if value == "" {
		return def, nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q, expected YYYY-MM-DD", name, value)
	}
	return t, nil
}
