package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cliconfig "github.com/fluxbase-eu/urlpack/cli/config"
	"github.com/fluxbase-eu/urlpack/cli/util"
)

var (
	configInitForce bool
	configInitLocal bool
	configViewFmt   string
	configViewFile  string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long:  `View and create urlpack configuration files.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new configuration file",
	Long: `Create a configuration file holding the default settings.

Examples:
  urlpack config init
  urlpack config init --local`,
	RunE: runConfigInit,
}

var configViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Display the effective configuration",
	Long: `Show the configuration after merging defaults, the config file and
URLPACK_* environment variables.

Examples:
  urlpack config view
  urlpack config view --output json
  urlpack config view --file ./urlpack.yaml`,
	RunE: runConfigView,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), GetConfigPath())
		return err
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config file")
	configInitCmd.Flags().BoolVar(&configInitLocal, "local", false, "create ./"+cliconfig.FileName+" instead of the user config")
	configViewCmd.Flags().StringVarP(&configViewFmt, "output", "o", "yaml", "output format: json, yaml")
	configViewCmd.Flags().StringVar(&configViewFile, "file", "", "show this config file on its own, without env or flag overrides")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configViewCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := GetConfigPath()
	if configInitLocal {
		configPath = cliconfig.FileName
	}

	if _, err := os.Stat(configPath); err == nil && !configInitForce {
		if !util.IsInteractive() {
			return fmt.Errorf("configuration file already exists at %s (use --force to overwrite)", configPath)
		}
		ok, err := util.Confirm(cmd.InOrStdin(), fmt.Sprintf("Overwrite %s?", configPath), false)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("aborted")
		}
	}

	if err := cliconfig.New().Save(configPath); err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}

	abs, err := filepath.Abs(configPath)
	if err != nil {
		abs = configPath
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created at: %s\n", abs)
	return nil
}

func runConfigView(cmd *cobra.Command, args []string) error {
	var (
		cfg *cliconfig.Config
		err error
	)
	if configViewFile != "" {
		cfg, err = cliconfig.Load(configViewFile)
	} else {
		cfg, err = cliconfig.FromViper(viper.GetViper())
	}
	if err != nil {
		return err
	}

	formatter, err := newFormatter(configViewFmt)
	if err != nil {
		return err
	}
	formatter.Writer = cmd.OutOrStdout()
	return formatter.Print(cfg)
}
