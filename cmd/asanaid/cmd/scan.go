package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"asanaid/internal/adapters/asana"
	"asanaid/internal/application/commands"
	"asanaid/internal/config"
)

var (
	scanProject         string
	scanIgnoreConflicts bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Reconcile the counter cache with IDs found on remote tasks",
	Long: `Scan fetches all tasks in the configured projects, extracts the IDs
they already carry, detects conflicts (duplicate IDs, or IDs ahead of
the cached counters), and advances the cache to match remote reality.

Examples:
  asanaid scan                      scan all configured projects
  asanaid scan --project PRJ        scan one project
  asanaid scan --ignore-conflicts   advance the cache past conflicts`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		store, closeStore, err := openCacheStore()
		if err != nil {
			return err
		}
		defer closeStore()

		ctx, stop := signalContext()
		defer stop()

		scan := &commands.ScanCommand{
			Service:         asana.NewClient(cfg.AsanaToken),
			Store:           store,
			Config:          cfg,
			Project:         scanProject,
			IgnoreConflicts: scanIgnoreConflicts,
			Logger:          slog.Default(),
		}
		results, err := scan.Execute(ctx)
		if err != nil {
			return err
		}

		fmt.Println(summaryTitle.Render("Scan summary"))
		for _, r := range results {
			fmt.Printf("\n%s\n", summaryTitle.Render("Project "+r.Code))
			fmt.Printf("  Total tasks:    %d\n", r.TotalTasks)
			fmt.Printf("  Tasks with IDs: %d\n", r.TasksWithIDs)
			if len(r.Conflicts) > 0 {
				fmt.Println(warnText.Render(fmt.Sprintf("  Conflicts:      %d (resolved with --ignore-conflicts)", len(r.Conflicts))))
			}
		}
		fmt.Printf("\n%s\n", okText.Render("Cache saved"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVar(&scanProject, "project", "", "project code to scan (default: all)")
	scanCmd.Flags().BoolVar(&scanIgnoreConflicts, "ignore-conflicts", false, "advance the cache past conflicting IDs instead of failing")
}
