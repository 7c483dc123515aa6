package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"asanaid/internal/adapters/asana"
	"asanaid/internal/adapters/setup"
	"asanaid/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the configuration file",
	Long: `Init creates the asanaid configuration. By default it prompts for
your Asana personal access token, fetches all projects you can see,
and writes a config listing them with CODE placeholders to fill in.

With --force it writes a bare template instead, without contacting
Asana.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("configuration file %s already exists; remove or rename it first", configPath)
		}

		if initForce {
			if err := config.WriteTemplate(configPath); err != nil {
				return fmt.Errorf("write template: %w", err)
			}
			fmt.Println(okText.Render("Created template configuration: " + configPath))
			fmt.Println("\nNext steps:")
			fmt.Println("1. Add your Asana personal access token")
			fmt.Println("2. Set project codes and Asana project IDs")
			fmt.Println("3. Run 'asanaid scan' to initialize the cache")
			return nil
		}

		token, err := setup.PromptToken()
		if err != nil {
			return err
		}

		ctx, stop := signalContext()
		defer stop()

		client := asana.NewClient(token)
		projects, err := setup.FetchProjects(ctx, client, slog.Default())
		if err != nil {
			return fmt.Errorf("fetch projects: %w", err)
		}

		if err := config.WriteWithComments(configPath, token, projects); err != nil {
			return fmt.Errorf("write config: %w", err)
		}

		fmt.Println(okText.Render("Configuration saved to " + configPath))
		fmt.Printf("Added %d project(s) with URL comments\n", len(projects))
		fmt.Println("\nNext steps:")
		fmt.Println("1. Replace each CODE placeholder with a 2-5 letter uppercase code,")
		fmt.Println("   and remove projects you don't want labeled")
		fmt.Println("2. Run 'asanaid scan' to initialize the cache")
		fmt.Println("3. Run 'asanaid update' to assign IDs")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "write a template without interactive setup")
}
