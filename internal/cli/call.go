// internal/cli/call.go
package toolhost

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mwiater/toolhost/internal/dispatch"
)

var callArgsJSON string

// callCmd implements 'call', which runs one tool in-process and prints the
// result envelope.
var callCmd = &cobra.Command{
	Use:   "call <tool> [key=value ...]",
	Short: "Invoke one tool and print its result",
	Long: `Invoke one tool in-process. Arguments come from --args as a JSON object,
or from key=value pairs; pairs override keys from --args.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		toolArgs, err := parseCallArgs(callArgsJSON, args[1:])
		if err != nil {
			return err
		}

		h, err := buildHost(cmd.Context(), GetConfig(), "cli")
		if err != nil {
			return err
		}
		defer closeHost(h)

		res := h.dispatcher.Handle(cmd.Context(), dispatch.Request{Tool: args[0], Arguments: toolArgs})
		printResult(cmd.OutOrStdout(), res)
		if res.IsError() {
			return fmt.Errorf("%s failed: %s", args[0], res.Err.Kind)
		}
		return nil
	},
}

// parseCallArgs merges a JSON object with key=value pairs.
func parseCallArgs(raw string, pairs []string) (map[string]any, error) {
	out := map[string]any{}
	if strings.TrimSpace(raw) != "" {
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, fmt.Errorf("--args must be a JSON object: %w", err)
		}
	}
	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("argument %q is not key=value", p)
		}
		out[strings.TrimSpace(key)] = value
	}
	return out, nil
}

var (
	okColor  = color.New(color.FgGreen, color.Bold)
	errColor = color.New(color.FgRed, color.Bold)
)

func printResult(out io.Writer, res dispatch.Result) {
	if res.IsError() {
		errColor.Fprintf(out, "[%s] ", res.Err.Kind)
	} else {
		okColor.Fprint(out, "[ok] ")
	}
	fmt.Fprintln(out, res.String())
}

func init() {
	callCmd.Flags().StringVar(&callArgsJSON, "args", "", `tool arguments as a JSON object, e.g. '{"crypto":"bitcoin"}'`)
	rootCmd.AddCommand(callCmd)
}
