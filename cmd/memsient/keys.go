package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage API keys for programmatic access",
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your API keys",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, client, _, err := requireUser(cmd.Context())
		if err != nil {
			return err
		}
		keys, err := client.APIKeys.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			fmt.Println("No API keys. Create one with 'memsient keys create <name>'.")
			return nil
		}
		for _, key := range keys {
			lastUsed := "never"
			if key.LastUsedAt != nil {
				lastUsed = key.LastUsedAt.Format("2006-01-02")
			}
			fmt.Printf("%-40s %-16s %-12s %-8s last used %s\n",
				key.ID, key.Name, key.KeyMasked, key.Status, lastUsed)
		}
		return nil
	},
}

var keysCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, client, _, err := requireUser(cmd.Context())
		if err != nil {
			return err
		}
		created, err := client.APIKeys.Create(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Created key %s (%s)\n\n", created.ID, created.Name)
		fmt.Printf("  %s\n\n", created.Key)
		fmt.Println("Store this secret now. It will not be shown again.")
		return nil
	},
}

var keysRevokeCmd = &cobra.Command{
	Use:   "revoke <key-id>",
	Short: "Revoke an API key (keeps the record)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, client, _, err := requireUser(cmd.Context())
		if err != nil {
			return err
		}
		change, err := client.APIKeys.Revoke(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Key %s is now %s\n", change.ID, change.Status)
		return nil
	},
}

var keysDeleteCmd = &cobra.Command{
	Use:   "delete <key-id>",
	Short: "Delete an API key permanently",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, client, _, err := requireUser(cmd.Context())
		if err != nil {
			return err
		}
		change, err := client.APIKeys.Delete(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Key %s deleted\n", change.ID)
		return nil
	},
}

func init() {
	keysCmd.AddCommand(keysListCmd)
	keysCmd.AddCommand(keysCreateCmd)
	keysCmd.AddCommand(keysRevokeCmd)
	keysCmd.AddCommand(keysDeleteCmd)
	rootCmd.AddCommand(keysCmd)
}
