package cmd

import (
	"sentiment-producer/internal/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML (secrets masked)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeConfig(cmd, GetConfig())
	},
}

func writeConfig(cmd *cobra.Command, cfg config.Config) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(cfg.Redacted())
}

func init() {
	rootCmd.AddCommand(configCmd)
}
