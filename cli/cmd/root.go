// Package cmd provides the Cobra commands for the urlpack CLI.
package cmd

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cliconfig "github.com/fluxbase-eu/urlpack/cli/config"
	"github.com/fluxbase-eu/urlpack/cli/output"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"

	// Global flags
	cfgFile   string
	debug     bool
	noHeaders bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "urlpack",
	Short: "urlpack - bundle JavaScript modules that import from URLs",
	Long: `urlpack bundles a JavaScript entry module into a single file or a directory
of chunks. Imports written as absolute http:// or https:// URLs are downloaded
and inlined as if they were local modules.

Get started:
  urlpack compile src/index.js --format cjs --out dist/main.js
  urlpack config init
  urlpack --help`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(viper.GetBool("debug"))
	},
}

// Execute runs the CLI. Canceling ctx aborts in-flight remote fetches.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is ./urlpack.yaml, then ~/.urlpack/urlpack.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"enable debug output")
	rootCmd.PersistentFlags().BoolVar(&noHeaders, "no-headers", false,
		"omit headers from table output")
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(completionCmd)
	rootCmd.AddCommand(compileCmd)
}

func initConfig() {
	// A .env file may carry URLPACK_* variables
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("Failed to load .env file")
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(strings.TrimSuffix(cliconfig.FileName, ".yaml"))
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath(cliconfig.DefaultConfigDir())
	}

	viper.SetEnvPrefix("URLPACK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	cliconfig.SetDefaults(viper.GetViper())

	// Read config file (ignore error if not found)
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && cfgFile != "" {
			log.Warn().Err(err).Str("file", cfgFile).Msg("Failed to read config file")
		}
	}
}

func setupLogging(debug bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	if file := viper.ConfigFileUsed(); file != "" {
		log.Debug().Str("file", file).Msg("Config file loaded")
	}
}

// GetConfigPath returns the config file path
func GetConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return cliconfig.DefaultConfigPath()
}

func newFormatter(format string) (*output.Formatter, error) {
	f, err := output.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return output.NewFormatter(f, noHeaders), nil
}
