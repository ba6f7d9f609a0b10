package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trakapp/trak/internal/client"
	"github.com/trakapp/trak/internal/model"
)

func rewardsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rewards",
		Short: "List, redeem and create rewards",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := openSession(cmd); err != nil {
				return err
			}
			return requireUser(cmd)
		},
	}

	cmd.AddCommand(rewardsListCmd(), rewardsRedeemCmd(), rewardsCreateCmd())
	return cmd
}

func rewardsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active rewards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rewards, err := client.SessionFrom(cmd.Context()).API().Rewards(cmd.Context(), subjectID)
			if err != nil {
				return err
			}
			printRewards(cmd, rewards)
			return nil
		},
	}
}

func printRewards(cmd *cobra.Command, rewards []*model.Reward) {
	tw := newTable(cmd.OutOrStdout(), "ID", "TITLE", "COST", "LEFT")
	for _, r := range rewards {
		left := "unlimited"
		if n := r.Remaining(); n >= 0 {
			left = fmt.Sprint(n)
		}
		row(tw, r.ID, r.Title, r.CostPoints, left)
	}
	_ = tw.Flush()
}

func rewardsRedeemCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "redeem <reward-id>",
		Short: "Spend points on a reward",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := client.SessionFrom(cmd.Context()).API().RedeemReward(cmd.Context(), subjectID, args[0])
			return reported(err)
		},
	}
}

func rewardsCreateCmd() *cobra.Command {
	var (
		in    model.RewardInput
		limit int
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a reward (admins only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("limit") {
				in.QuantityLimit = &limit
			}
			_, err := client.SessionFrom(cmd.Context()).API().CreateReward(cmd.Context(), in)
			return reported(err)
		},
	}

	cmd.Flags().StringVar(&in.Title, "title", "", "Title (required)")
	cmd.Flags().StringVar(&in.Description, "description", "", "Description")
	cmd.Flags().IntVar(&in.CostPoints, "cost", 0, "Cost in points (required)")
	cmd.Flags().IntVar(&limit, "limit", 0, "How many times it can be redeemed (default: unlimited)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("cost")

	return cmd
}

func redemptionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "redemptions",
		Short: "Show redeemed rewards, newest first",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return requireUser(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			redemptions, err := client.SessionFrom(cmd.Context()).API().Redemptions(cmd.Context(), subjectID)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout(), "DATE", "REWARD", "POINTS")
			for _, r := range redemptions {
				row(tw, day(r.RedeemedAt), r.RewardTitle, r.PointsSpent)
			}
			return tw.Flush()
		},
	}
}

func leaderboardCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the top users by points",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return requireUser(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			board, err := client.SessionFrom(cmd.Context()).API().Leaderboard(cmd.Context(), subjectID, limit)
			if err != nil {
				return err
			}
			printLeaderboard(cmd, board)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Number of entries (default: server setting)")
	return cmd
}

func printLeaderboard(cmd *cobra.Command, board *model.Leaderboard) {
	tw := newTable(cmd.OutOrStdout(), "RANK", "USER", "POINTS")
	for _, e := range board.Entries {
		row(tw, e.Rank, "@"+e.Username, e.Points)
	}
	_ = tw.Flush()
	if board.UserRank > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Your rank: %d\n", board.UserRank)
	}
}
