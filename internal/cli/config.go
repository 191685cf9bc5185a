package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jvs-project/fcp/pkg/config"
)

func newConfigCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config <command>",
		Short: "Manage fcp configuration",
		Long: `Manage fcp configuration stored in $XDG_CONFIG_HOME/fcp/config.yaml.

Configuration options:
  chunk_size        - Bytes per read/write cycle (default 1048576)
  on_conflict       - Existing destination policy (ask, overwrite, abandon)
  sync              - Fsync the destination before success (true, false)
  preserve_times    - Copy the source modification time (true, false)
  progress_enabled  - Draw the progress bar (true, false, empty for auto)
  tui               - Use the interactive UI (true, false, empty for auto)
  journal           - History file for finished copies (empty disables)
  logging.level     - debug, info, warn, error
  logging.format    - text, json`,
		DisableFlagsInUseLine: true,
	}

	cmd.AddCommand(
		newConfigShowCmd(g),
		newConfigGetCmd(g),
		newConfigSetCmd(g),
		newConfigInitCmd(g),
	)
	return cmd
}

func newConfigShowCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if g.jsonOutput {
				return outputJSON(cmd.OutOrStdout(), g.cfg)
			}

			data, err := yaml.Marshal(g.cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "# fcp configuration")
			fmt.Fprintf(out, "# Location: %s\n\n", g.configPath)
			_, err = out.Write(data)
			return err
		},
	}
}

func newConfigGetCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "get <key>",
		Short:     "Get a configuration value",
		Args:      cobra.ExactArgs(1),
		ValidArgs: config.Keys,
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := g.cfg.Get(args[0])
			if err != nil {
				return err
			}
			if value == "" {
				value = "(not set)"
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newConfigSetCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value and save the file.

Examples:
  fcp config set on_conflict abandon
  fcp config set chunk_size 4194304
  fcp config set tui ""`,
		Args:      cobra.ExactArgs(2),
		ValidArgs: config.Keys,
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			if err := g.cfg.Set(key, value); err != nil {
				return fmt.Errorf("set config: %w", err)
			}
			if err := config.Save(g.configPath, g.cfg); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
			return nil
		},
	}
}

func newConfigInitCmd(g *globalOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(g.configPath); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to replace it)", g.configPath)
			}
			if err := config.Save(g.configPath, config.Default()); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", g.configPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing file")
	return cmd
}
