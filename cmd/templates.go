package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vibecli/vibe/internal/agent"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the project scaffolding templates CREATE understands",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(agent.ListTemplates())
	},
}

func init() {
	rootCmd.AddCommand(templatesCmd)
}
