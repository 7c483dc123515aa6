package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"asanaid/internal/adapters/asana"
	"asanaid/internal/application/commands"
	"asanaid/internal/config"
)

const previewLimit = 10

var (
	updateProject         string
	updateDryRun          bool
	updateIgnoreConflicts bool
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Assign IDs to tasks that don't have one",
	Long: `Update scans first (aborting on unresolved conflicts), then walks each
project's task tree in creation order, assigns the next free ID to
every unlabeled task, and renames the tasks in Asana.

Tasks that already carry an ID are left alone, but their subtasks are
still visited, anchored under the existing ID.

Examples:
  asanaid update --dry-run          preview without changing anything
  asanaid update                    update all configured projects
  asanaid update --project PRJ      update one project`,
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

		if updateDryRun {
			fmt.Println(warnText.Render("Dry run: no tasks will be renamed and the cache will not be saved"))
		}

		update := &commands.UpdateCommand{
			Service:         asana.NewClient(cfg.AsanaToken),
			Store:           store,
			Config:          cfg,
			Project:         updateProject,
			DryRun:          updateDryRun,
			IgnoreConflicts: updateIgnoreConflicts,
			Logger:          slog.Default(),
		}
		result, err := update.Execute(ctx)
		if err != nil {
			return err
		}

		fmt.Println(summaryTitle.Render("Update summary"))
		for _, r := range result.Results {
			fmt.Printf("\n%s\n", summaryTitle.Render("Project "+r.Code))
			fmt.Printf("  Tasks processed: %d\n", r.TotalProcessed())
			fmt.Printf("  Tasks updated:   %d\n", len(r.Assignments))
			fmt.Printf("  Tasks skipped:   %d\n", r.Skipped)
			for _, e := range r.Errors {
				fmt.Println(errText.Render("  error: " + e))
			}

			if updateDryRun && len(r.Assignments) > 0 {
				fmt.Println("\n  IDs that would be assigned:")
				for i, a := range r.Assignments {
					if i == previewLimit {
						fmt.Printf("    ... and %d more\n", len(r.Assignments)-previewLimit)
						break
					}
					fmt.Printf("    %s: %s\n", a.AssignedID, a.OldName)
				}
			}
		}

		if updateDryRun {
			fmt.Printf("\n%s\n", okText.Render("Dry run complete, nothing was changed"))
		} else {
			fmt.Printf("\n%s\n", okText.Render("Tasks updated, cache saved"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().StringVar(&updateProject, "project", "", "project code to update (default: all)")
	updateCmd.Flags().BoolVar(&updateDryRun, "dry-run", false, "preview assignments without renaming or persisting")
	updateCmd.Flags().BoolVar(&updateIgnoreConflicts, "ignore-conflicts", false, "advance the cache past conflicting IDs instead of failing")
}
