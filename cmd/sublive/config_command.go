package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sublive/sublive/config"
)

func newConfigCommand(configFlag *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and modify configuration",
	}
	cmd.AddCommand(newConfigShowCommand(configFlag))
	cmd.AddCommand(newConfigSetCommand(configFlag))
	return cmd
}

func newConfigShowCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configFlag)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderConfig(cfg))
			return nil
		},
	}
}

func newConfigSetCommand(configFlag *string) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one configuration value and save",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configFlag)
			if err != nil {
				return err
			}
			if err := applySetting(cfg, args[0], args[1]); err != nil {
				return err
			}
			if *configFlag != "" {
				return cfg.SaveFile(*configFlag)
			}
			return cfg.Save()
		},
	}
}

func applySetting(cfg *config.Config, key, value string) error {
	switch key {
	case "default_language":
		cfg.DefaultLanguage = value
	case "target_language":
		cfg.TargetLanguage = value
	case "audio_source":
		cfg.AudioSource = value
	case "listen_addr":
		cfg.ListenAddr = value
	case "speech.api_key":
		cfg.Speech.APIKey = value
	case "translate.api_key":
		cfg.Translate.APIKey = value
	case "max_visible_lines":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("config: %s must be an integer: %w", key, err)
		}
		cfg.MaxVisibleLines = n
	case "fade_timeout_seconds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("config: %s must be an integer: %w", key, err)
		}
		cfg.FadeTimeoutSeconds = n
	default:
		return fmt.Errorf("config: unknown setting %q", key)
	}
	return nil
}
