// =============================================================================
// Contpaq Normalizer - Importer Module
// =============================================================================
//
// This module contains the ingestion orchestration. It runs the full pipeline
// for a single workbook, from reading the raw sheet to persisting the
// normalized records.
//
// INGESTION PIPELINE:
//   1. Read the XLSX workbook into a raw row matrix
//   2. Detect the file type (process family, general expense, period)
//   3. Gate on detection confidence (unless the type was forced)
//   4. Normalize the rows into structured records
//   5. Persist the records into the dataset partition
//   6. Merge newly seen segment labels into the segment table
//   7. Archive the input workbook
//
// CONCURRENCY:
//   Each file is processed in its own goroutine. The importer itself holds no
//   mutable state across runs; the store serializes concurrent writers.
//
// =============================================================================

package importer

import (
	"fmt"
	"time"

	"github.com/ledgertools/contpaq-normalizer/internal/config"
	"github.com/ledgertools/contpaq-normalizer/internal/detector"
	"github.com/ledgertools/contpaq-normalizer/internal/mapping"
	"github.com/ledgertools/contpaq-normalizer/internal/normalizer"
	"github.com/ledgertools/contpaq-normalizer/internal/store"
	"github.com/ledgertools/contpaq-normalizer/internal/types"
	"github.com/ledgertools/contpaq-normalizer/internal/xlsxreader"
	"github.com/ledgertools/contpaq-normalizer/pkg/utils"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of ingesting a single workbook.
type Result struct {
	// FilePath is the path to the input file that was processed.
	FilePath string

	// Dataset is the partition key the records were stored under.
	// This is empty if processing failed.
	Dataset string

	// Success indicates whether the ingestion was successful.
	Success bool

	// Error contains the error if ingestion failed.
	Error error

	// Detection is the classification of the workbook.
	Detection detector.Result

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about the ingestion.
type ProcessingStats struct {
	// RowsScanned is the number of sheet rows scanned.
	RowsScanned int

	// RecordsCreated is the number of transaction records emitted.
	RecordsCreated int

	// SegmentsFound is the number of distinct segment labels encountered.
	SegmentsFound int

	// SkippedRows is the number of malformed data rows dropped.
	SkippedRows int

	// ProcessingTime is the time taken to ingest the file.
	ProcessingTime time.Duration
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options controls a single ingestion run.
type Options struct {
	// ForcedDataset pins the target partition ("apk", "epk", "gg"),
	// bypassing detection and the confidence gate. Empty means auto-detect.
	ForcedDataset string

	// Strict aborts the run on the first malformed date row instead of
	// skipping and counting it.
	Strict bool

	// LegacyCategories enables the legacy categorical table for
	// general-expense runs.
	LegacyCategories bool

	// DryRun runs the full pipeline but skips persistence and archival.
	DryRun bool
}

// =============================================================================
// IMPORTER STRUCTURE
// =============================================================================

// Importer handles the ingestion of a single workbook.
type Importer struct {
	// filePath is the path to the input workbook.
	filePath string

	// mainConfig is the main application configuration.
	mainConfig *config.MainConfig

	// store is the persistent data store.
	store *store.Store

	// opts are the per-run options.
	opts Options

	// logger is used for logging.
	logger Logger
}

// Logger is an interface for logging.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// =============================================================================
// CONSTRUCTOR
// =============================================================================

// New creates a new Importer instance.
//
// PARAMETERS:
//   - filePath: The path to the input workbook.
//   - mainConfig: The main application configuration.
//   - st: The data store records are persisted into.
//   - opts: The per-run options.
func New(filePath string, mainConfig *config.MainConfig, st *store.Store, opts Options) *Importer {
	return &Importer{
		filePath:   filePath,
		mainConfig: mainConfig,
		store:      st,
		opts:       opts,
		logger:     &defaultLogger{},
	}
}

// SetLogger replaces the default stdout logger.
func (im *Importer) SetLogger(logger Logger) {
	if logger != nil {
		im.logger = logger
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the ingestion pipeline for the file.
//
// RETURNS:
//   - A Result struct containing the outcome of the ingestion.
func (im *Importer) Run() Result {
	startTime := time.Now()
	result := Result{
		FilePath: im.filePath,
		Success:  false,
	}

	// =========================================================================
	// STEP 1: READ WORKBOOK
	// =========================================================================
	// Load the first sheet of the workbook into a raw row matrix.

	im.logger.Info("Processing file: %s", im.filePath)

	rows, err := xlsxreader.Read(im.filePath)
	if err != nil {
		result.Error = fmt.Errorf("failed to read workbook: %w", err)
		return result
	}

	result.Stats.RowsScanned = len(rows)
	im.logger.Debug("Read %d rows from workbook", len(rows))

	// =========================================================================
	// STEP 2: DETECT FILE TYPE
	// =========================================================================
	// Classify the workbook: process family, general-expense marker, period.
	// Detection always runs so the result carries the indicators even when
	// the dataset was forced.

	det := detector.New()
	if im.mainConfig.MaxScanRows > 0 {
		det.MaxScanRows = im.mainConfig.MaxScanRows
	}
	detection := det.Detect(rows)
	result.Detection = detection

	im.logger.Debug("Detected family=%s confidence=%d generalExpense=%v period=%q",
		detection.ProcessFamily, detection.Confidence,
		detection.IsGeneralExpense, detection.Period)

	// =========================================================================
	// STEP 3: CONFIDENCE GATE
	// =========================================================================
	// Reject files the detector is not sure about, unless the caller pinned
	// the dataset explicitly.

	dataset := im.opts.ForcedDataset
	if dataset == "" {
		if detection.Confidence < im.mainConfig.MinConfidence {
			result.Error = fmt.Errorf("detection confidence %d below threshold %d; use an explicit type to override",
				detection.Confidence, im.mainConfig.MinConfidence)
			return result
		}
		dataset = detection.DataGroup
		if detection.IsGeneralExpense {
			dataset = store.DatasetGG
		}
	}

	if !store.ValidDataset(dataset) || dataset == store.DatasetProrrateo {
		result.Error = fmt.Errorf("invalid target dataset %q", dataset)
		return result
	}

	im.logger.Debug("Target dataset: %s", dataset)

	// =========================================================================
	// STEP 4: NORMALIZE
	// =========================================================================
	// Walk the row matrix and reconstruct structured transaction records.
	// The resolver reads mappings from the store; the store also receives
	// account catalog registrations as header rows are seen.

	family := familyForDataset(dataset, detection)
	generalExpense := dataset == store.DatasetGG

	var legacy mapping.CodeStrategy
	if im.opts.LegacyCategories {
		legacy = mapping.NewLegacyCategoryTable()
	}

	var catalog normalizer.CatalogRegistrar
	if !im.opts.DryRun {
		catalog = im.store
	}

	norm := normalizer.New(mapping.NewResolver(im.store), legacy, catalog)
	normResult, err := norm.Normalize(rows, normalizer.Options{
		Family:           family,
		GeneralExpense:   generalExpense,
		LegacyCategories: im.opts.LegacyCategories,
		Strict:           im.opts.Strict,
	})
	if err != nil {
		result.Error = fmt.Errorf("failed to normalize rows: %w", err)
		return result
	}

	result.Stats.RecordsCreated = len(normResult.Records)
	result.Stats.SegmentsFound = len(normResult.Segments)
	result.Stats.SkippedRows = normResult.SkippedRows

	for _, rowErr := range normResult.RowErrors {
		im.logger.Warn("Skipped row: %v", rowErr)
	}

	if len(normResult.Records) == 0 {
		result.Error = fmt.Errorf("no transaction records found in %s", im.filePath)
		return result
	}

	im.logger.Debug("Normalized %d records, %d segments, %d skipped rows",
		len(normResult.Records), len(normResult.Segments), normResult.SkippedRows)

	// =========================================================================
	// STEP 5: PERSIST
	// =========================================================================
	// Each ingestion replaces the dataset partition, mirroring the upload
	// semantics of the source workflow. Segment labels merge additively so
	// weights entered for surviving segments are preserved.

	result.Dataset = dataset

	if im.opts.DryRun {
		im.logger.Info("Dry run: skipping persistence for %s", im.filePath)
		result.Success = true
		result.Stats.ProcessingTime = time.Since(startTime)
		return result
	}

	if err := im.store.SaveRecords(dataset, normResult.Records); err != nil {
		result.Error = fmt.Errorf("failed to persist records: %w", err)
		return result
	}

	if len(normResult.Segments) > 0 {
		if err := im.store.SeedSegmentsFromLabels(normResult.Segments); err != nil {
			result.Error = fmt.Errorf("failed to merge segments: %w", err)
			return result
		}
	}

	im.logger.Info("Stored %d records under dataset %s", len(normResult.Records), dataset)

	// =========================================================================
	// STEP 6: ARCHIVE
	// =========================================================================
	// Move the processed workbook out of the input directory.

	fm := utils.NewFileManager(im.mainConfig.InputDir, im.mainConfig.OutputDir, im.mainConfig.InputArchiveDir)
	if archivePath, err := fm.ArchiveInputFile(im.filePath); err != nil {
		// Log the error but don't fail the ingestion.
		im.logger.Warn("Failed to archive file: %v", err)
	} else {
		im.logger.Debug("Archived input to: %s", archivePath)
	}

	// =========================================================================
	// COMPLETE
	// =========================================================================

	result.Success = true
	result.Stats.ProcessingTime = time.Since(startTime)

	return result
}

// familyForDataset returns the mapping scope family for a target dataset.
// A forced "gg" dataset keeps the detector's family guess, since general
// expense files still belong to one process family.
func familyForDataset(dataset string, detection detector.Result) types.ProcessFamily {
	switch dataset {
	case store.DatasetAPK:
		return types.FamilyAPK
	case store.DatasetEPK:
		return types.FamilyEPK
	default:
		return detection.ProcessFamily
	}
}

// =============================================================================
// DEFAULT LOGGER
// =============================================================================

// defaultLogger is a simple logger that prints to stdout.
type defaultLogger struct{}

func (l *defaultLogger) Debug(msg string, args ...interface{}) {
	fmt.Printf("[DEBUG] "+msg+"\n", args...)
}

func (l *defaultLogger) Info(msg string, args ...interface{}) {
	fmt.Printf("[INFO] "+msg+"\n", args...)
}

func (l *defaultLogger) Warn(msg string, args ...interface{}) {
	fmt.Printf("[WARN] "+msg+"\n", args...)
}

func (l *defaultLogger) Error(msg string, args ...interface{}) {
	fmt.Printf("[ERROR] "+msg+"\n", args...)
}
