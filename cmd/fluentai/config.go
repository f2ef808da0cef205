package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/at-ishikawa/fluentai/internal/config"
)

func newConfigCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}
	command.AddCommand(newConfigValidateCommand(), newConfigShowCommand())
	return command
}

func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration is valid (learning %s from %s, storage %s)\n",
				cfg.Languages.Target, cfg.Languages.Native, cfg.Storage.Driver)
			return nil
		},
	}
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			masked := *cfg
			masked.Gemini.APIKey = config.MaskSecret(cfg.Gemini.APIKey)
			masked.OpenAI.APIKey = config.MaskSecret(cfg.OpenAI.APIKey)
			masked.Database.Password = config.MaskSecret(cfg.Database.Password)

			encoder := yaml.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent(2)
			if err := encoder.Encode(masked); err != nil {
				return fmt.Errorf("yaml.Encode() > %w", err)
			}
			return encoder.Close()
		},
	}
}
