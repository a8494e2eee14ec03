package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Log in to your Memsient account",
	Long: `Exchanges your credentials for a session token and stores it under
the user config directory. The token is used by every other command
until you run 'memsient logout'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := ""
		if len(args) == 1 {
			email = args[0]
		} else {
			var err error
			if email, err = promptLine("Email: "); err != nil {
				return err
			}
		}
		password, err := promptLine("Password: ")
		if err != nil {
			return err
		}

		sess := newSession(newClient())
		if err := sess.Login(cmd.Context(), email, password); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		user := sess.Snapshot().User
		fmt.Printf("Logged in as %s\n", user.Email)
		if !sess.Persisted() {
			fmt.Println("Note: the session could not be persisted and ends with this process.")
		}
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register [email]",
	Short: "Create a Memsient account and log in",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email := ""
		if len(args) == 1 {
			email = args[0]
		} else {
			var err error
			if email, err = promptLine("Email: "); err != nil {
				return err
			}
		}
		password, err := promptLine("Password (min 8 chars): ")
		if err != nil {
			return err
		}
		name, err := promptLine("Name (optional): ")
		if err != nil {
			return err
		}
		var namePtr *string
		if name != "" {
			namePtr = &name
		}

		sess := newSession(newClient())
		if err := sess.Register(cmd.Context(), email, password, namePtr); err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}
		fmt.Printf("Account created; logged in as %s\n", sess.Snapshot().User.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored session token",
	Long: `Removes the locally stored token. Logout is purely local: the token
is not revoked server-side, it simply stops being used.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		sess := newSession(newClient())
		sess.Logout()
		fmt.Println("Logged out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the currently authenticated user",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, _, user, err := requireUser(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s)\n", user.Email, user.ID)
		if user.Name != nil {
			fmt.Printf("Name: %s\n", *user.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
}
