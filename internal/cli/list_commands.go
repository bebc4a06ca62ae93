// internal/cli/list_commands.go
package toolhost

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// commandsCmd implements 'list commands', which prints the available
// commands and subcommands in a hierarchical, indented, two-column format.
var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List all commands and subcommands in two columns",
	Long:  `The 'commands' subcommand lists all commands and subcommands in a hierarchical, indented format, with the command path in the first column and its short description in the second column.`,
	Run: func(cmd *cobra.Command, args []string) {
		runListCommands(cmd.OutOrStdout(), rootCmd)
	},
}

func init() {
	listCmd.AddCommand(commandsCmd)
}

// commandInfo holds the path and description of a command for display.
type commandInfo struct {
	path        string
	description string
}

// runListCommands prints the command tree in a two-column layout.
func runListCommands(out io.Writer, root *cobra.Command) {
	commands := collectCommandData(root, "", "")

	width := 0
	for _, c := range commands {
		if len(c.path) > width {
			width = len(c.path)
		}
	}

	fmt.Fprintln(out, "Commands and Subcommands:")
	for _, c := range commands {
		if strings.Contains(c.path, "completion") || strings.HasSuffix(c.path, " help") {
			continue
		}
		fmt.Fprintf(out, "  %s%s%s\n", c.path, strings.Repeat(" ", width-len(c.path)+2), c.description)
	}
}

// collectCommandData walks the command tree and returns a flattened slice
// of path/description pairs, indented by depth.
func collectCommandData(cmd *cobra.Command, currentPath, indent string) []commandInfo {
	fullPath := cmd.Name()
	if currentPath != "" {
		fullPath = currentPath + " " + cmd.Name()
	}

	all := []commandInfo{{path: indent + fullPath, description: cmd.Short}}
	for _, sub := range cmd.Commands() {
		all = append(all, collectCommandData(sub, fullPath, indent+"  ")...)
	}
	return all
}
