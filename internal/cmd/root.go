package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/foxstudiohua/AsynKingfisher/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "asynkf",
	Short: "Bind remote images to reusable display slots",
	Long: `AsynKingfisher loads images asynchronously and binds them to reusable
display slots, guaranteeing that overlapping loads against the same slot
can never apply out of order. The CLI ships a one-shot fetch command and
a gallery TUI that exercises rapid rebinding and cancellation.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/asynkf/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("ASYNKF")
	// Replace dots with underscores for nested keys in env vars
	// e.g., ASYNKF_FETCH_TIMEOUT_SECONDS for fetch.timeout_seconds
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
