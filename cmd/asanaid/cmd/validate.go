package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"asanaid/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		fmt.Println(okText.Render("Configuration is valid"))
		fmt.Printf("Projects: %d\n", len(cfg.Projects))
		for _, p := range cfg.Projects {
			fmt.Printf("  %s -> %s\n", p.Code, p.AsanaID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
