package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/trakapp/trak/internal/client"
	"github.com/trakapp/trak/internal/impact"
	"github.com/trakapp/trak/internal/model"
)

func commuteTypeNames() string {
	names := make([]string, len(model.CommuteTypes))
	for i, t := range model.CommuteTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// parseWeek accepts any date in the week and returns its Sunday.
func parseWeek(value string, now time.Time) (time.Time, error) {
	if value == "" {
		return impact.WeekStart(now), nil
	}
	t, err := time.ParseInLocation("2006-01-02", value, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --week %q, expected YYYY-MM-DD", value)
	}
	return impact.WeekStart(t), nil
}

func logCmd() *cobra.Command {
	var (
		commuteType string
		week        string
		in          model.CommuteLogInput
	)

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Log a week of commuting",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return requireUser(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			in.CommuteType = model.CommuteType(commuteType)
			if !in.CommuteType.Valid() {
				return fmt.Errorf("unknown commute type %q, use one of: %s", commuteType, commuteTypeNames())
			}

			weekStart, err := parseWeek(week, time.Now())
			if err != nil {
				return err
			}
			in.WeekStart = weekStart

			_, err = client.SessionFrom(cmd.Context()).API().LogCommute(cmd.Context(), subjectID, in)
			return reported(err)
		},
	}

	cmd.Flags().StringVarP(&commuteType, "type", "t", "", "Commute type: "+commuteTypeNames())
	cmd.Flags().IntVarP(&in.DaysLogged, "days", "d", 5, "Days commuted this way (1-7)")
	cmd.Flags().Float64Var(&in.DistanceKm, "distance", 0, "One way distance in km")
	cmd.Flags().StringVar(&week, "week", "", "Any date in the week, YYYY-MM-DD (default: this week)")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func weekCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "week",
		Short: "Show this week's commutes",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return requireUser(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logs, err := client.SessionFrom(cmd.Context()).API().CurrentWeekCommutes(cmd.Context(), subjectID)
			if err != nil {
				return err
			}
			if len(logs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing logged this week yet")
				return nil
			}
			printCommutes(cmd, logs)
			return nil
		},
	}
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show every logged commute, newest first",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return requireUser(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logs, err := client.SessionFrom(cmd.Context()).API().CommuteHistory(cmd.Context(), subjectID)
			if err != nil {
				return err
			}
			printCommutes(cmd, logs)
			return nil
		},
	}
}

func printCommutes(cmd *cobra.Command, logs []*model.CommuteLog) {
	tw := newTable(cmd.OutOrStdout(), "WEEK", "TYPE", "DAYS", "KM", "CO2 KG", "POINTS")
	for _, l := range logs {
		row(tw, day(l.WeekStart), l.CommuteType.Label(), l.DaysLogged, l.DistanceKm, l.CO2Saved, l.PointsEarned)
	}
	_ = tw.Flush()
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show impact totals",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return requireUser(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := client.SessionFrom(cmd.Context()).API().UserStats(cmd.Context(), subjectID)
			if err != nil {
				return err
			}
			printStats(cmd, stats)
			return nil
		},
	}
}

func printStats(cmd *cobra.Command, s *model.UserStats) {
	tw := newTable(cmd.OutOrStdout(), "POINTS", "CO2 KG", "DAYS", "STREAK", "CHALLENGES")
	row(tw, s.Points, s.CO2Saved, s.TotalDaysLogged, s.Streak, s.CompletedChallenges)
	_ = tw.Flush()
}

func exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export commute history and print a download link",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return requireUser(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := client.SessionFrom(cmd.Context()).API().ExportCommutes(cmd.Context(), subjectID)
			if err != nil {
				return reported(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
}
