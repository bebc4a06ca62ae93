package toolhost

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// bindFlag binds a local flag to a nested config key so the flag wins over
// file and environment values only when it is set.
func bindFlag(cmd *cobra.Command, key, flag string) {
	_ = viper.BindPFlag(key, cmd.Flags().Lookup(flag))
}
