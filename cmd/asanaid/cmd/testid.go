package cmd

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"asanaid/internal/domain"
)

var testIDCopy bool

var testIDCmd = &cobra.Command{
	Use:   "test-id <task-name> <code>",
	Short: "Test ID extraction from a task name",
	Long: `Test-id runs the ID grammar against a task name and reports what it
finds.

Examples:
  asanaid test-id "PRJ-5 My task" PRJ
  asanaid test-id "AB-10-2 Subtask" AB --copy`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, code := args[0], args[1]
		if err := domain.ValidateCode(code); err != nil {
			return err
		}

		id, ok := domain.ExtractID(name, code)
		if !ok {
			fmt.Println("No ID found in task name")
			return nil
		}

		fmt.Println("Found ID:", id)
		if testIDCopy {
			if err := clipboard.WriteAll(id); err != nil {
				return fmt.Errorf("copy to clipboard: %w", err)
			}
			fmt.Println(okText.Render("Copied to clipboard"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(testIDCmd)
	testIDCmd.Flags().BoolVar(&testIDCopy, "copy", false, "copy the extracted ID to the clipboard")
}
