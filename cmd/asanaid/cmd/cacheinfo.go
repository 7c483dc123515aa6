package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var cacheInfoCmd = &cobra.Command{
	Use:   "cache-info",
	Short: "Show the persisted counter cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openCacheStore()
		if err != nil {
			return err
		}
		defer closeStore()

		cache, err := store.Load()
		if err != nil {
			return err
		}
		if len(cache.Projects) == 0 {
			fmt.Println("Cache is empty (run 'asanaid scan' to initialize it)")
			return nil
		}

		codes := make([]string, 0, len(cache.Projects))
		for code := range cache.Projects {
			codes = append(codes, code)
		}
		sort.Strings(codes)

		for _, code := range codes {
			pc := cache.Projects[code]
			fmt.Printf("%s\n", summaryTitle.Render("Project "+code))
			fmt.Printf("  last_root:        %d\n", pc.LastRoot)
			fmt.Printf("  subtask counters: %d\n", len(pc.Subtasks))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cacheInfoCmd)
}
