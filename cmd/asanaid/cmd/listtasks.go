package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"asanaid/internal/adapters/asana"
	"asanaid/internal/config"
	"asanaid/internal/domain"
)

var listTasksCmd = &cobra.Command{
	Use:   "list-tasks <code>",
	Short: "List the tasks of a configured project",
	Long: `List-tasks fetches the top-level tasks of a project in creation order
and shows the ID each one carries, if any. Useful for checking API
access and seeing what scan and update will work with.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		project, ok := cfg.FindProject(args[0])
		if !ok {
			return fmt.Errorf("project %s not found in configuration", args[0])
		}

		ctx, stop := signalContext()
		defer stop()

		client := asana.NewClient(cfg.AsanaToken)
		tasks, err := client.ListProjectTasks(ctx, project.AsanaID)
		if err != nil {
			return err
		}

		fmt.Println(summaryTitle.Render(fmt.Sprintf("Project %s: %d tasks", project.Code, len(tasks))))
		for _, t := range tasks {
			if t.ParentGID != "" {
				continue
			}
			marker := warnText.Render("no ID")
			if id, ok := domain.ExtractID(t.Name, project.Code); ok {
				marker = okText.Render(id)
			}
			fmt.Printf("  [%s] %s", marker, t.Name)
			if t.NumSubtasks > 0 {
				fmt.Printf(" (%d subtasks)", t.NumSubtasks)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listTasksCmd)
}
