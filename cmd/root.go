// =============================================================================
// Contpaq Normalizer - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands (like 'ingest', 'prorate') are
// attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (normalizer)
//   ├── ingestCmd  (normalizer ingest)
//   ├── detectCmd  (normalizer detect)
//   ├── prorateCmd (normalizer prorate)
//   ├── exportCmd  (normalizer export)
//   ├── seedCmd    (normalizer seed)
//   └── versionCmd (normalizer version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (e.g., --config, --verbose)
//   2. Loading the configuration for subcommands
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ledgertools/contpaq-normalizer/internal/config"
	"github.com/ledgertools/contpaq-normalizer/internal/store"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose enables verbose logging when set to true.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
// This is the entry point for the CLI application.
var rootCmd = &cobra.Command{
	// Use is the one-line usage message.
	Use: "normalizer",

	// Short is a short description shown in the 'help' output.
	Short: "Contpaq Normalizer - Turn raw accounting exports into structured ledgers",

	// Long is a longer description shown in the 'help <command>' output.
	Long: `Contpaq Normalizer is a CLI tool that ingests semi-structured accounting
spreadsheet exports, reconstructs structured transaction records from their
interleaved row layout, and maintains the derived datasets (ledgers, general
expenses, prorations) in a local JSON store.

Key Features:
  - Automatic file type detection (process family, general-expense ledgers)
  - Stateful row-scan normalization of headerless exports
  - Three-tier concept mapping (text rules, code rules, passthrough)
  - Weighted expense proration across production segments
  - Concurrent batch ingestion with automatic archival

Example Usage:
  normalizer ingest                    # Ingest all workbooks in the input directory
  normalizer ingest --file ./b.xlsx    # Ingest a single workbook
  normalizer detect --file ./b.xlsx    # Classify a workbook without ingesting
  normalizer prorate                   # Generate proration records from general expenses
  normalizer export --dataset apk      # Export a dataset as an XLSX workbook`,

	// Run is the function executed when the root command is called without
	// any subcommands. In this case, we just print the help message.
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadConfig loads the main configuration. A missing config file falls back
// to defaults so the tool works out of the box in a fresh directory.
func loadConfig() (*config.MainConfig, error) {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		return config.Default(), nil
	}
	return config.LoadMainConfig(cfgFile)
}

// openStore opens the JSON data store at the configured path.
func openStore(cfg *config.MainConfig) (*store.Store, error) {
	st, err := store.Open(cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", cfg.StorePath, err)
	}
	return st, nil
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init is called automatically when the package is loaded.
// It sets up the global flags.
func init() {
	// ==========================================================================
	// PERSISTENT FLAGS
	// ==========================================================================
	// Persistent flags are available to this command and all subcommands.

	// --config flag: Allows the user to specify a custom configuration file.
	// Default is "config.yaml" in the current directory.
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file (default is config.yaml)",
	)

	// --verbose flag: Enables verbose/debug logging.
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}
