// =============================================================================
// Contpaq Normalizer - Main Entry Point
// =============================================================================
//
// This is the main entry point for the Contpaq Normalizer CLI application.
// It initializes the Cobra CLI framework and delegates command execution to
// the cmd package.
//
// USAGE:
//   normalizer ingest       - Ingest all workbooks in the input directory
//   normalizer detect       - Classify a workbook without ingesting it
//   normalizer prorate      - Distribute general expenses across segments
//   normalizer export       - Export a stored dataset as XLSX or TSV
//   normalizer seed         - Load mappings and segments from a seed file
//   normalizer version      - Display the application version
//
// ARCHITECTURE:
//   This application follows a modular design where:
//   - cmd/           : Contains all CLI command definitions (Cobra)
//   - internal/      : Contains core business logic (not for external import)
//   - pkg/           : Contains shared utilities
//   - seeds/         : Contains example seed data for mappings and segments
//
// =============================================================================

package main

import (
	"github.com/ledgertools/contpaq-normalizer/cmd"
)

// main is the entry point of the application.
// It simply calls the Execute function from the cmd package, which
// initializes and runs the Cobra CLI.
func main() {
	cmd.Execute()
}
