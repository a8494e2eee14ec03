package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var themeCmd = &cobra.Command{
	Use:       "theme [light|dark]",
	Short:     "Show or set the dashboard theme preference",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"light", "dark"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if len(args) == 0 {
			fmt.Println(cfg.Theme)
			return nil
		}
		if args[0] != "light" && args[0] != "dark" {
			return fmt.Errorf("theme must be \"light\" or \"dark\", got %q", args[0])
		}
		cfg.Theme = args[0]
		if err := saveConfig(cfg); err != nil {
			return err
		}
		fmt.Printf("Theme set to %s\n", cfg.Theme)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(themeCmd)
}
