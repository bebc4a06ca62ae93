// internal/cli/probe.go
package toolhost

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwiater/toolhost/internal/logging"
	"github.com/mwiater/toolhost/internal/mcpclient"
)

var (
	probeCall     string
	probeArgsJSON string
	probeProfile  string
)

// probeCmd implements 'probe', which spawns a host binary the way an MCP
// client would and checks it end to end.
var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Spawn a toolhost binary over stdio and list or call its tools",
	Long: `Spawn the binary at mcpBinary (or the per-OS default) with 'serve', complete
the MCP handshake within mcpInitTimeout, list its tools and optionally call one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("configuration is not initialized")
		}
		binary := cfg.MCPBinaryPath()
		hostArgs := []string{"serve"}
		if probeProfile != "" {
			hostArgs = append(hostArgs, "--profile", probeProfile)
		}

		initCtx, cancel := context.WithTimeout(cmd.Context(), cfg.MCPInitTimeoutDuration())
		defer cancel()
		logging.LogEvent("probe: starting %s %v", binary, hostArgs)
		client, err := mcpclient.Start(initCtx, binary, hostArgs...)
		if err != nil {
			return fmt.Errorf("start %s: %w", binary, err)
		}
		defer client.Close()

		out := cmd.OutOrStdout()
		tools, err := client.ListTools(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s exposes %d tools\n", binary, len(tools))
		for _, t := range tools {
			fmt.Fprintf(out, "  %s\n", toolNameStyle.Render(t.Name))
		}

		if probeCall == "" {
			return nil
		}
		toolArgs, err := parseCallArgs(probeArgsJSON, args)
		if err != nil {
			return err
		}
		text, isError, err := client.CallTool(cmd.Context(), probeCall, toolArgs)
		if err != nil {
			return err
		}
		if isError {
			errColor.Fprint(out, "[error] ")
		} else {
			okColor.Fprint(out, "[ok] ")
		}
		fmt.Fprintln(out, text)
		return nil
	},
}

func init() {
	probeCmd.Flags().StringVar(&probeCall, "call", "", "tool to call after listing")
	probeCmd.Flags().StringVar(&probeArgsJSON, "args", "", "arguments for --call as a JSON object")
	probeCmd.Flags().StringVar(&probeProfile, "hostProfile", "", "profile passed to the spawned host")
	rootCmd.AddCommand(probeCmd)
}
