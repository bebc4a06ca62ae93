// Package toolhost implements the toolhost command line.
package toolhost

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/toolhost/internal/appconfig"
	"github.com/mwiater/toolhost/internal/logging"
)

var (
	cfgFile       string
	envFile       string
	currentConfig *appconfig.Config
	appVersion    = "dev"
	appCommit     = "none"
	appDate       = "unknown"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "toolhost",
	Short: "toolhost: tool host for n8n workflows and CoinGecko prices",
	Long: `toolhost exposes a small set of tools (crypto prices, n8n workflow listing,
status and execution) over MCP stdio, Content-Length framed JSON-RPC or HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := appconfig.LoadDotEnv(envFile); err != nil {
			return err
		}
		if err := ensureConfigLoaded(); err != nil {
			return err
		}
		cfg, err := appconfig.FromViper(viper.GetViper())
		if err != nil {
			return err
		}
		currentConfig = &cfg

		if err := logging.Init(cfg.LogFile); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.SetDebug(cfg.Debug)
		return nil
	},
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appCommit, appDate)

	defer logging.Close()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (JSON or YAML)")
	rootCmd.PersistentFlags().StringVar(&envFile, "envFile", ".env", "dotenv file with credentials (ignored when absent)")

	rootCmd.PersistentFlags().Bool("debug", false, "log request and response payloads")
	rootCmd.PersistentFlags().String("logFile", "", "path to the log file")
	rootCmd.PersistentFlags().String("profile", "", "tool profile to register (all, crypto, workflows, lister, statut, executer, demo)")
	rootCmd.PersistentFlags().String("mcpBinary", "", "host binary spawned by probe (defaults per OS)")
	rootCmd.PersistentFlags().Int("mcpInitTimeout", 0, "seconds to wait for a probed host to initialize (0 = default)")

	for _, name := range []string{"debug", "logFile", "profile", "mcpBinary", "mcpInitTimeout"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}

	appconfig.SetDefaults(viper.GetViper())
	appconfig.BindEnv(viper.GetViper())
}

// initConfig points viper at the config file, if one was given.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// ensureConfigLoaded reads the config file when one was given. Without
// --config the defaults, environment and flags are used.
func ensureConfigLoaded() error {
	if cfgFile == "" {
		return nil
	}
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("no configuration file found at %q", cfgFile)
		}
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// GetConfig returns the loaded application configuration.
func GetConfig() *appconfig.Config {
	return currentConfig
}

// SetVersionInfo allows the main package to inject build-time variables.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}
