package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/indexsyn/internal/config"
	"github.com/Aman-CERP/indexsyn/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage indexsyn configuration.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config (~/.config/indexsyn/config.yaml)
  3. Project config (.indexsyn.yaml)
  4. Environment variables (HTTP_PORT, INDEXSYN_*)
  5. Command line flags`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create user configuration file",
		Long: `Write the default configuration to ~/.config/indexsyn/config.yaml
(or $XDG_CONFIG_HOME/indexsyn/config.yaml). With --force an existing file
is backed up and replaced.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Back up and overwrite existing configuration")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var (
		jsonOutput bool
		from       string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigShow(cmd, jsonOutput, from)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&from, "source", "merged", "Config source: merged, user, project, defaults")

	return cmd
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print user config file path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return err
		},
	}
}

func runConfigInit(cmd *cobra.Command, force bool) error {
	out := output.New(cmd.OutOrStdout())
	path := config.GetUserConfigPath()

	if config.UserConfigExists() {
		if !force {
			out.Warning("User configuration already exists")
			out.Statusf("", "Location: %s", path)
			out.Status("", "Use --force to replace it (a backup is kept)")
			return nil
		}
		backup, err := config.BackupFile(path)
		if err != nil {
			return fmt.Errorf("failed to backup config: %w", err)
		}
		out.Statusf("", "Backup: %s", backup)
	}

	if err := config.NewConfig().WriteYAML(path); err != nil {
		return err
	}
	out.Success("Created user configuration")
	out.Statusf("", "Location: %s", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, jsonOutput bool, from string) error {
	var cfg *config.Config

	switch from {
	case "merged":
		c, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	case "user", "project":
		path := config.GetUserConfigPath()
		if from == "project" {
			path = config.ProjectConfigPath(flags.configDir)
		}
		if path == "" || !fileExists(path) {
			output.New(cmd.OutOrStdout()).Warningf("No %s configuration file found", from)
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s config: %w", from, err)
		}
		cfg = config.NewConfig()
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("failed to parse %s config: %w", from, err)
		}
	case "defaults":
		cfg = config.NewConfig()
	default:
		return fmt.Errorf("invalid source: %s (use: merged, user, project, defaults)", from)
	}

	shown := *cfg
	if shown.Source.Password != "" {
		shown.Source.Password = "********"
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(shown)
	}
	data, err := yaml.Marshal(&shown)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
