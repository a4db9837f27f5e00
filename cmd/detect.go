// =============================================================================
// Contpaq Normalizer - Detect Command
// =============================================================================
//
// This file defines the 'detect' command, which classifies a workbook without
// ingesting it. Useful for checking what the automatic detection would decide
// before committing records to the store.
//
// COMMAND USAGE:
//   normalizer detect --file ./balanza.xlsx
//
// OUTPUT:
//   File:               balanza.xlsx
//   Process family:     apk
//   General expense:    false
//   Segment breakdown:  true
//   Period:             Enero 2024
//   Dataset:            apk
//   Confidence:         95
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ledgertools/contpaq-normalizer/internal/detector"
	"github.com/ledgertools/contpaq-normalizer/internal/store"
	"github.com/ledgertools/contpaq-normalizer/internal/xlsxreader"
)

// detectTarget is the workbook to classify.
var detectTarget string

// detectCmd represents the 'detect' command.
var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Classify a workbook without ingesting it",
	Long: `The detect command reads a workbook, runs the file type detection, and
prints the classification: process family, general-expense flag, reporting
period, target dataset and the accumulated confidence score.

No records are written and the input file is left in place.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runDetect()
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().StringVar(
		&detectTarget,
		"file",
		"",
		"Path to the workbook to classify",
	)
	detectCmd.MarkFlagRequired("file")
}

// runDetect classifies a single workbook and prints the result.
func runDetect() error {
	mainConfig, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	rows, err := xlsxreader.Read(detectTarget)
	if err != nil {
		return fmt.Errorf("failed to read workbook: %w", err)
	}

	det := detector.New()
	if mainConfig.MaxScanRows > 0 {
		det.MaxScanRows = mainConfig.MaxScanRows
	}
	result := det.Detect(rows)

	dataset := result.DataGroup
	if result.IsGeneralExpense {
		dataset = store.DatasetGG
	}

	fmt.Printf("File:               %s\n", filepath.Base(detectTarget))
	fmt.Printf("Process family:     %s\n", result.ProcessFamily)
	fmt.Printf("General expense:    %v\n", result.IsGeneralExpense)
	fmt.Printf("Segment breakdown:  %v\n", result.HasSegmentBreakdown)
	fmt.Printf("Period:             %s\n", result.Period)
	fmt.Printf("Dataset:            %s\n", dataset)
	fmt.Printf("Confidence:         %d\n", result.Confidence)

	if verbose {
		fmt.Println("\nIndicators:")
		fmt.Printf("  APK code prefix:  %v\n", result.Indicators.APKCodePrefix)
		fmt.Printf("  EPK code prefix:  %v\n", result.Indicators.EPKCodePrefix)
		fmt.Printf("  APK phrase:       %v\n", result.Indicators.APKPhrase)
		fmt.Printf("  EPK phrase:       %v\n", result.Indicators.EPKPhrase)
		fmt.Printf("  Segment rows:     %v\n", result.Indicators.SegmentRows)
		fmt.Printf("  GG marker:        %v\n", result.Indicators.GeneralExpense)
		fmt.Printf("  Breakdown marker: %v\n", result.Indicators.Breakdown)
		fmt.Printf("  Period detected:  %v\n", result.Indicators.PeriodDetected)
	}

	if result.Confidence < mainConfig.MinConfidence {
		fmt.Printf("\nConfidence is below the ingestion threshold (%d); "+
			"ingest would require an explicit --type.\n", mainConfig.MinConfidence)
	}

	return nil
}
