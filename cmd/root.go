package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yourorg/pmdminer/internal/contract"
	"github.com/yourorg/pmdminer/internal/iocache"
	"github.com/yourorg/pmdminer/schema"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// cacheManager is the global persistence manager instance.
var cacheManager contract.CacheManager

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:                "pmdminer",
	Short:              "Mine a repository's full git history through PMD static analysis.",
	Long:               `pmdminer walks every commit of a repository, runs PMD on the files that changed, and records how warnings evolve over the project's life.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	// Check if a specific config file is provided
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".pmdminer") // Name of config file (without extension)
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")     // Look in the current directory
		viper.AddConfigPath("$HOME") // Look in the home directory
	}

	// Set environment variable prefix
	viper.SetEnvPrefix("PMDMINER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("output-dir", contract.DefaultOutputDir)
	viper.SetDefault("workers", contract.DefaultWorkers)
	viper.SetDefault("analyzer", schema.CLIAnalyzerKind)
	viper.SetDefault("extension", contract.DefaultExtension)
	viper.SetDefault("cache-backend", schema.JSONBackend)
	viper.SetDefault("cache-db-connect", "")
	viper.SetDefault("runs-backend", "")
	viper.SetDefault("runs-db-connect", "")
	viper.SetDefault("output", schema.TableOut)
	viper.SetDefault("color", "yes")
	viper.SetDefault("progress", true)
}

// loadConfigFile handles config file loading logic common to all setup functions.
func loadConfigFile() error {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName(".pmdminer")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	// Load config file if present
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// sharedSetup unmarshals config and runs validation for mining commands.
func sharedSetup(_ context.Context, _ *cobra.Command, args []string) error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := loadConfigFile(); err != nil {
		return err
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Handle positional arguments (which Viper doesn't do).
	if len(args) == 1 {
		input.RepoLocationStr = args[0]
	} else {
		input.RepoLocationStr = "."
	}

	// 4. Run all validation and complex parsing.
	// This function now populates the global 'cfg' from 'input'.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}
	contract.SetColors(cfg.UseColors)

	// 5. Initialize persistence keyed to the active ruleset so stale
	// findings from a different ruleset are never reused.
	fingerprint, err := iocache.FingerprintFile(cfg.RulesetPath)
	if err != nil {
		return fmt.Errorf("failed to fingerprint ruleset: %w", err)
	}
	if err := iocache.InitStores(cfg, fingerprint); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}
	cacheManager = iocache.Manager

	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// outputSetup loads the minimal configuration needed by commands that only
// read an existing output directory. It skips ruleset and analyzer checks.
func outputSetup(args []string) error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	outputDir := viper.GetString("output-dir")
	if outputDir == "" {
		outputDir = contract.DefaultOutputDir
	}
	absDir, err := filepath.Abs(outputDir)
	if err != nil {
		return fmt.Errorf("invalid output dir %q: %w", outputDir, err)
	}
	cfg.OutputDir = absDir

	output := schema.OutputFormat(viper.GetString("output"))
	if output == "" {
		output = schema.TableOut
	}
	if _, ok := schema.ValidOutputFormats[output]; !ok {
		return fmt.Errorf("unsupported output format %q: must be table, json or csv", output)
	}
	cfg.Output = output
	cfg.OutputFile = viper.GetString("output-file")
	cfg.Width = viper.GetInt("width")
	cfg.Ref = viper.GetString("ref")
	cfg.CacheBackend = schema.CacheBackend(viper.GetString("cache-backend"))

	if len(args) == 1 {
		cfg.RepoLocation = args[0]
	}

	contract.SetColors(contract.ParseBoolFlag(viper.GetString("color"), true))
	return nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
