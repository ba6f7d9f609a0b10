package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trakapp/trak/internal/client"
	"github.com/trakapp/trak/internal/model"
)

func signupCmd() *cobra.Command {
	var in client.SignupInput

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(cmd, in.Password, "TRAK_PASSWORD", "Password")
			if err != nil {
				return err
			}
			in.Password = password

			user, err := client.SessionFrom(cmd.Context()).Signup(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s! You are logged in as @%s.\n", displayName(user), user.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Username, "username", "", "Username (required)")
	cmd.Flags().StringVar(&in.Email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&in.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&in.Password, "password", "", "Password or set TRAK_PASSWORD env")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func loginCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <username-or-email>",
		Short: "Log in with a username or email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readPassword(cmd, password, "TRAK_PASSWORD", "Password")
			if err != nil {
				return err
			}

			user, err := client.SessionFrom(cmd.Context()).Login(cmd.Context(), args[0], pw)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as @%s\n", user.Username)
			if user.NeedsPasswordChange {
				fmt.Fprintln(cmd.OutOrStdout(), "Your password must be changed, run `trak passwd`.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Password or set TRAK_PASSWORD env")
	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := client.SessionFrom(cmd.Context()).Logout(cmd.Context())

			// Local state is gone either way, persist that before reporting
			saveErr := saveState(cmd)
			if err != nil {
				return err
			}
			if saveErr != nil {
				return saveErr
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session := client.SessionFrom(cmd.Context())
			out := cmd.OutOrStdout()

			user := session.Init(cmd.Context())
			if user == nil {
				if hint := session.Hint(); hint != nil {
					fmt.Fprintf(out, "Not logged in (last seen as @%s)\n", hint.Username)
				} else {
					fmt.Fprintln(out, "Not logged in")
				}
				return nil
			}

			fmt.Fprintf(out, "%s (@%s) <%s>\n", displayName(user), user.Username, user.Email)
			fmt.Fprintf(out, "Role: %s  Points: %d\n", user.Role, user.Points)
			return nil
		},
	}
}

func passwordCmd() *cobra.Command {
	var current, next string

	cmd := &cobra.Command{
		Use:   "passwd",
		Short: "Change your password",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return requireUser(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			current, err = readPassword(cmd, current, "TRAK_PASSWORD", "Current password")
			if err != nil {
				return err
			}
			next, err = readPassword(cmd, next, "TRAK_NEW_PASSWORD", "New password")
			if err != nil {
				return err
			}

			_, err = client.SessionFrom(cmd.Context()).ChangePassword(cmd.Context(), current, next)
			return reported(err)
		},
	}

	cmd.Flags().StringVar(&current, "current", "", "Current password or set TRAK_PASSWORD env")
	cmd.Flags().StringVar(&next, "new", "", "New password or set TRAK_NEW_PASSWORD env")
	return cmd
}

func forgotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forgot <username-or-email>",
		Short: "Email a password reset token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := client.SessionFrom(cmd.Context()).API().ForgotPassword(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "If that account exists, a reset token is on its way. Then run `trak reset --token <token>`.")
			return nil
		},
	}
}

func resetCmd() *cobra.Command {
	var token, next string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Choose a new password with an emailed reset token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readPassword(cmd, next, "TRAK_NEW_PASSWORD", "New password")
			if err != nil {
				return err
			}

			user, err := client.SessionFrom(cmd.Context()).ResetPassword(cmd.Context(), token, pw)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Password reset, logged in as @%s\n", user.Username)
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Reset token from the email (required)")
	cmd.Flags().StringVar(&next, "new", "", "New password or set TRAK_NEW_PASSWORD env")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}

func displayName(u *model.User) string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
