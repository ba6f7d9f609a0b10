package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/trakapp/trak/internal/client"
	"github.com/trakapp/trak/internal/logger"
)

var (
	serverURL string
	staleTime time.Duration
	stateDir  string
	subjectID string
	verbose   bool
)

func RootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "trak",
		Short:         "Log sustainable commutes and track your impact",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return openSession(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return saveState(cmd)
		},
	}

	defaultURL := os.Getenv("TRAK_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8090"
	}

	rootCmd.PersistentFlags().StringVar(&serverURL, "url", defaultURL, "Trak server URL or set TRAK_URL env")
	rootCmd.PersistentFlags().DurationVar(&staleTime, "stale-time", client.DefaultStaleTime, "How long fetched data counts as fresh")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "Where the session is kept (default: user config dir)")
	rootCmd.PersistentFlags().StringVar(&subjectID, "user", "", "Act on another user's data (admins only)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging on stderr")

	rootCmd.AddCommand(
		signupCmd(),
		loginCmd(),
		logoutCmd(),
		whoamiCmd(),
		passwordCmd(),
		forgotCmd(),
		resetCmd(),
		logCmd(),
		weekCmd(),
		historyCmd(),
		statsCmd(),
		dashboardCmd(),
		challengesCmd(),
		rewardsCmd(),
		redemptionsCmd(),
		leaderboardCmd(),
		exportCmd(),
	)

	return rootCmd
}

// openSession restores the persisted session and attaches it to the
// command context.
func openSession(cmd *cobra.Command) error {
	logger.Init(logger.Options{
		Development: verbose,
		Output:      os.Stderr,
	})

	dir, err := resolveStateDir()
	if err != nil {
		return err
	}

	c, err := client.New(serverURL)
	if err != nil {
		return err
	}

	store := &stateStore{dir: dir}
	cookies, err := store.loadCookies()
	if err != nil {
		return err
	}
	c.SetCookies(cookies)

	api := client.NewAPI(c, client.NewCache(client.WithStaleTime(staleTime)), newColorNotifier(cmd.OutOrStdout(), cmd.ErrOrStderr()))
	session := client.NewSession(api, client.FileHintStore{Path: filepath.Join(dir, "user.json")})

	cmd.SetContext(withState(client.WithSession(cmd.Context(), session), store))
	return nil
}

func saveState(cmd *cobra.Command) error {
	store := stateFrom(cmd.Context())
	if store == nil {
		return nil
	}
	return store.saveCookies(client.SessionFrom(cmd.Context()).API().Client().Cookies())
}

func resolveStateDir() (string, error) {
	if stateDir != "" {
		return stateDir, nil
	}

	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("no config dir, pass --state-dir: %w", err)
	}
	return filepath.Join(base, "trak"), nil
}

// requireUser returns the logged in user or a friendly error.
func requireUser(cmd *cobra.Command) error {
	session := client.SessionFrom(cmd.Context())
	if session.Init(cmd.Context()) == nil {
		return fmt.Errorf("not logged in, run `trak login` first")
	}
	return nil
}
