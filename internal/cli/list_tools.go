// internal/cli/list_tools.go
package toolhost

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/mwiater/toolhost/internal/dispatch"
	"github.com/mwiater/toolhost/internal/tools"
	"github.com/mwiater/toolhost/internal/util"
)

var listToolsJSON bool

// toolsCmd implements 'list tools', which prints the tools registered by
// the configured profile without contacting any upstream.
var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools of the configured profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := buildHost(cmd.Context(), GetConfig(), "cli")
		if err != nil {
			return err
		}
		defer closeHost(h)

		descs := h.dispatcher.Tools()
		if listToolsJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(descs)
		}
		renderTools(cmd.OutOrStdout(), GetConfig().ProfileName(), descs)
		return nil
	},
}

// profilesCmd implements 'list profiles'.
var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List tool profiles and the tools each registers",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		for _, p := range tools.Profiles() {
			names, err := tools.ProfileTools(p)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%-10s %s\n", p, strings.Join(names, ", "))
		}
		return nil
	},
}

var (
	toolNameStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	headingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	argStyle      = lipgloss.NewStyle().Faint(true)
)

func renderTools(out io.Writer, profile string, descs []dispatch.Descriptor) {
	fmt.Fprintln(out, headingStyle.Render(fmt.Sprintf("Profile %s: %d tools", profile, len(descs))))
	for _, d := range descs {
		fmt.Fprintln(out, toolNameStyle.Render(d.Name))
		fmt.Fprintln(out, indent(util.WrapToWidth(d.Description, 76), "    "))
		if args := describeArgs(d.InputSchema); args != "" {
			fmt.Fprintln(out, argStyle.Render("    args: "+args))
		}
	}
}

// describeArgs renders "name:type" pairs, required ones marked with '*'.
func describeArgs(s dispatch.Schema) string {
	required := map[string]bool{}
	for _, r := range s.Required {
		required[r] = true
	}
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		p := name + ":" + s.Properties[name].Type
		if required[name] {
			p += "*"
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, " ")
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

func init() {
	toolsCmd.Flags().BoolVar(&listToolsJSON, "json", false, "print descriptors as JSON")
	listCmd.AddCommand(toolsCmd)
	listCmd.AddCommand(profilesCmd)
}
