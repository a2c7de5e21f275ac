package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/meshup/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage meshup configuration",
	Long: `Manage meshup configuration.

Configuration is stored in $XDG_CONFIG_HOME/meshup/config.toml
(~/.config/meshup/config.toml when XDG_CONFIG_HOME is unset).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if path == "" {
				path = "(using defaults)"
			}
			data, err := config.Marshal(cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# config file: %s\n", path)
			_, err = out.Write(data)
			return err
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefaultConfig()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfgFile != "" {
				fmt.Fprintln(cmd.OutOrStdout(), cfgFile)
				return nil
			}
			path, err := config.DefaultPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})
}
