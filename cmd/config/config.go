// Package config implements the configuration inspection subcommand.
package config

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/forenstiq/forenstiq-go/internal/conf"
)

// Command creates the config command and its subcommands.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and persist the effective configuration",
	}
	cmd.AddCommand(showCommand(settings))
	cmd.AddCommand(saveCommand(settings))
	return cmd
}

func showCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(settings)
			if err != nil {
				return fmt.Errorf("error rendering configuration: %w", err)
			}
			cmd.Print(string(data))
			return nil
		},
	}
}

func saveCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "Write the effective configuration back to the config file",
		Long: `Persist the currently effective configuration, including command-line
flag overrides, to the active config file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := conf.SaveSettings(); err != nil {
				return err
			}
			cmd.Println("Configuration saved")
			return nil
		},
	}
}
