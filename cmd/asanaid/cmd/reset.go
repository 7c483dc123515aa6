package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"asanaid/internal/domain"
)

var (
	resetProject string
	resetYes     bool
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear counter cache entries",
	Long: `Reset removes counter entries from the cache, for one project or all
of them. The next scan rebuilds the counters from the IDs observed
remotely. Requires --yes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetYes {
			return fmt.Errorf("reset is destructive; pass --yes to confirm")
		}

		store, closeStore, err := openCacheStore()
		if err != nil {
			return err
		}
		defer closeStore()

		cache, err := store.Load()
		if err != nil {
			return err
		}

		if resetProject == "" {
			cleared := len(cache.Projects)
			cache.Projects = make(map[string]*domain.ProjectCounters)
			if err := store.Save(cache); err != nil {
				return err
			}
			fmt.Println(okText.Render(fmt.Sprintf("Cleared counters for %d project(s)", cleared)))
			return nil
		}

		if _, ok := cache.Projects[resetProject]; !ok {
			return fmt.Errorf("no cache entry for project %s", resetProject)
		}
		delete(cache.Projects, resetProject)
		if err := store.Save(cache); err != nil {
			return err
		}
		fmt.Println(okText.Render("Cleared counters for project " + resetProject))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().StringVar(&resetProject, "project", "", "project code to reset (default: all)")
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "confirm the reset")
}
