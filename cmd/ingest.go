// =============================================================================
// Contpaq Normalizer - Ingest Command
// =============================================================================
//
// This file defines the 'ingest' command, the main command for pulling raw
// accounting workbooks into the data store.
//
// COMMAND USAGE:
//   normalizer ingest [flags]
//
// FLAGS:
//   --file              : Ingest a single workbook instead of scanning input_dir
//   --type              : Force the target dataset (apk, epk, gg), skipping detection
//   --strict            : Abort a file on the first malformed data row
//   --legacy-categories : Enable the legacy categorical table for general expenses
//   --dry-run           : Run the pipeline without persisting or archiving
//
// INGESTION PIPELINE:
//   1. Load the configuration and open the store
//   2. Discover XLSX workbooks in the input directory
//   3. For each workbook (concurrently):
//      a. Read the raw sheet
//      b. Detect the file type
//      c. Normalize the rows into records
//      d. Persist the records and newly seen segments
//      e. Archive the workbook
//   4. Print a summary and write an error log for failed files
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/ledgertools/contpaq-normalizer/internal/importer"
	"github.com/ledgertools/contpaq-normalizer/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// ingestFile is the path to a single workbook to ingest.
var ingestFile string

// ingestType forces the target dataset, bypassing detection.
var ingestType string

// ingestStrict aborts a file on the first malformed data row.
var ingestStrict bool

// ingestLegacy enables the legacy categorical table for general expenses.
var ingestLegacy bool

// ingestDryRun runs the pipeline without persisting or archiving.
var ingestDryRun bool

// ingestMinConfidence overrides the configured confidence threshold.
// Negative means "use the configured value".
var ingestMinConfidence int

// =============================================================================
// INGEST COMMAND DEFINITION
// =============================================================================

// ingestCmd represents the 'ingest' command.
var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest accounting workbooks into the data store",
	Long: `The ingest command scans the input directory for XLSX workbooks, classifies
each one (process family, general-expense ledger), normalizes its rows into
structured transaction records, and stores them in the dataset partition the
classification selects.

Processing is done concurrently. Each workbook is processed independently,
and errors in one file do not affect the processing of others.

On successful ingestion:
  - The records replace the target dataset partition
  - Newly seen segment labels are merged into the segment table
  - The workbook is moved to the input archive

On error:
  - An error log is created in the output directory
  - The workbook remains in the input directory
  - Processing continues for other files`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest()
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the ingest command with the root command and sets up flags.
func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(
		&ingestFile,
		"file",
		"",
		"Ingest a single workbook instead of scanning the input directory",
	)

	ingestCmd.Flags().StringVar(
		&ingestType,
		"type",
		"",
		"Force the target dataset (apk, epk, gg), skipping detection",
	)

	ingestCmd.Flags().BoolVar(
		&ingestStrict,
		"strict",
		false,
		"Abort a file on the first malformed data row",
	)

	ingestCmd.Flags().BoolVar(
		&ingestLegacy,
		"legacy-categories",
		false,
		"Resolve general-expense concepts through the legacy categorical table",
	)

	ingestCmd.Flags().BoolVar(
		&ingestDryRun,
		"dry-run",
		false,
		"Run the pipeline without persisting records or archiving files",
	)

	ingestCmd.Flags().IntVar(
		&ingestMinConfidence,
		"min-confidence",
		-1,
		"Override the configured detection confidence threshold (0-100)",
	)
}

// =============================================================================
// MAIN INGESTION FUNCTION
// =============================================================================

// runIngest is the main function that orchestrates the ingestion pipeline.
func runIngest() error {
	startTime := time.Now()

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION AND OPEN STORE
	// =========================================================================

	fmt.Println("=== Contpaq Normalizer ===")
	fmt.Println("Loading configuration...")

	mainConfig, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if ingestMinConfidence >= 0 {
		if ingestMinConfidence > 100 {
			return fmt.Errorf("--min-confidence must be between 0 and 100, got %d", ingestMinConfidence)
		}
		mainConfig.MinConfidence = ingestMinConfidence
	}

	st, err := openStore(mainConfig)
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 2: DISCOVER INPUT FILES
	// =========================================================================

	var inputFiles []string
	if ingestFile != "" {
		inputFiles = []string{ingestFile}
	} else {
		fmt.Println("Discovering input files...")
		fm := utils.NewFileManager(mainConfig.InputDir, mainConfig.OutputDir, mainConfig.InputArchiveDir)
		inputFiles, err = fm.DiscoverInputFiles("*.xlsx")
		if err != nil {
			return fmt.Errorf("failed to discover input files: %w", err)
		}
	}

	if len(inputFiles) == 0 {
		fmt.Println("No XLSX workbooks found in the input directory.")
		return nil
	}

	fmt.Printf("Found %d file(s) to process\n", len(inputFiles))

	// =========================================================================
	// STEP 3: PROCESS FILES CONCURRENTLY
	// =========================================================================
	// Each workbook runs in its own goroutine; a semaphore caps concurrency
	// at the configured limit. Results are collected over a channel.

	fmt.Println("Processing files...")

	opts := importer.Options{
		ForcedDataset:    ingestType,
		Strict:           ingestStrict,
		LegacyCategories: ingestLegacy,
		DryRun:           ingestDryRun,
	}

	var wg sync.WaitGroup
	results := make(chan importer.Result, len(inputFiles))
	sem := make(chan struct{}, mainConfig.MaxConcurrency)

	for _, file := range inputFiles {
		wg.Add(1)

		go func(filePath string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			results <- importer.New(filePath, mainConfig, st, opts).Run()
		}(file)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	// =========================================================================
	// STEP 4: COLLECT RESULTS
	// =========================================================================

	var successCount, errorCount, totalRecords, totalSkipped int
	var errorEntries []utils.ErrorLogEntry

	for result := range results {
		if result.Success {
			successCount++
			totalRecords += result.Stats.RecordsCreated
			totalSkipped += result.Stats.SkippedRows
			fmt.Printf("  ✓ %s -> %s (%d records, confidence %d)\n",
				filepath.Base(result.FilePath), result.Dataset,
				result.Stats.RecordsCreated, result.Detection.Confidence)
		} else {
			errorCount++
			errorEntries = append(errorEntries, utils.ErrorLogEntry{
				Timestamp:    time.Now(),
				FileName:     filepath.Base(result.FilePath),
				ErrorType:    "ingestion",
				ErrorMessage: result.Error.Error(),
			})
			fmt.Printf("  ✗ %s: %v\n", filepath.Base(result.FilePath), result.Error)
		}
	}

	// =========================================================================
	// STEP 5: PRINT SUMMARY
	// =========================================================================

	elapsed := time.Since(startTime)
	fmt.Println("\n=== Ingestion Complete ===")
	fmt.Printf("Total files:     %d\n", len(inputFiles))
	fmt.Printf("Successful:      %d\n", successCount)
	fmt.Printf("Errors:          %d\n", errorCount)
	fmt.Printf("Records stored:  %d\n", totalRecords)
	fmt.Printf("Rows skipped:    %d\n", totalSkipped)
	fmt.Printf("Time elapsed:    %s\n", elapsed)

	if errorCount > 0 {
		if logPath, err := utils.WriteErrorLog(errorEntries, mainConfig.OutputDir); err == nil && logPath != "" {
			fmt.Printf("\nErrors have been logged to %s\n", logPath)
		}
	}

	return nil
}
