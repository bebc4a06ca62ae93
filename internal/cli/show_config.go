// internal/cli/show_config.go
package toolhost

import (
	"errors"
	"fmt"
	"io"

	"github.com/k0kubun/pp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mwiater/toolhost/internal/appconfig"
)

var (
	showConfigYAML bool
	showConfigDump bool
)

// showConfigCmd implements 'show config', which displays the merged
// configuration with secrets masked.
var showConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show config settings",
	Long:  `Show config settings after merging the config file, environment and flags. Secrets are masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return errors.New("configuration is not initialized")
		}
		return runShowConfig(cmd.OutOrStdout(), viper.ConfigFileUsed(), *cfg)
	},
}

func runShowConfig(out io.Writer, file string, cfg appconfig.Config) error {
	switch {
	case showConfigYAML:
		data, err := yaml.Marshal(cfg.Redacted())
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		_, err = out.Write(data)
		return err
	case showConfigDump:
		_, err := pp.Fprintln(out, cfg.Redacted())
		return err
	default:
		appconfig.ShowConfig(out, file, cfg)
		return nil
	}
}

func init() {
	showConfigCmd.Flags().BoolVar(&showConfigYAML, "yaml", false, "print the configuration as YAML")
	showConfigCmd.Flags().BoolVar(&showConfigDump, "dump", false, "pretty-print the configuration struct")
	showCmd.AddCommand(showConfigCmd)
}
