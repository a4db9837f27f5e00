// =============================================================================
// Contpaq Normalizer - Export Command
// =============================================================================
//
// This file defines the 'export' command, which writes a stored dataset back
// out as an XLSX workbook or tab-separated text.
//
// COMMAND USAGE:
//   normalizer export --dataset apk
//   normalizer export --dataset gg --format tsv
//
// FLAGS:
//   --dataset : The dataset to export (apk, epk, gg, prorrateo)
//   --format  : Output format: xlsx (default) or tsv
//   --out     : Output path; defaults to a generated name in output_dir
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ledgertools/contpaq-normalizer/internal/export"
	"github.com/ledgertools/contpaq-normalizer/internal/store"
	"github.com/ledgertools/contpaq-normalizer/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// exportDataset is the dataset partition to export.
var exportDataset string

// exportFormat is the output format: "xlsx" or "tsv".
var exportFormat string

// exportOut is the output path; empty means a generated name in output_dir.
var exportOut string

// =============================================================================
// EXPORT COMMAND DEFINITION
// =============================================================================

// exportCmd represents the 'export' command.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a stored dataset as XLSX or TSV",
	Long: `The export command serializes one dataset partition out of the store.

The XLSX format writes a single-sheet workbook with a header row. The TSV
format writes the clipboard paste layout: no header row, no ID column, one
record per line. The segment column is titled "Vuelta" for ledger and
proration datasets and "Segmento" for general expenses.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runExport()
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(
		&exportDataset,
		"dataset",
		"",
		"Dataset to export (apk, epk, gg, prorrateo)",
	)
	exportCmd.MarkFlagRequired("dataset")

	exportCmd.Flags().StringVar(
		&exportFormat,
		"format",
		"xlsx",
		"Output format: xlsx or tsv",
	)

	exportCmd.Flags().StringVar(
		&exportOut,
		"out",
		"",
		"Output path (default: generated name in the output directory)",
	)
}

// =============================================================================
// MAIN EXPORT FUNCTION
// =============================================================================

// runExport serializes one dataset partition.
func runExport() error {
	if !store.ValidDataset(exportDataset) {
		return fmt.Errorf("unknown dataset %q (expected apk, epk, gg or prorrateo)", exportDataset)
	}

	mainConfig, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	st, err := openStore(mainConfig)
	if err != nil {
		return err
	}

	records, err := st.Records(exportDataset)
	if err != nil {
		return fmt.Errorf("failed to read dataset: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("dataset %q is empty", exportDataset)
	}

	switch exportFormat {
	case "xlsx":
		outPath := exportOut
		if outPath == "" {
			if err := os.MkdirAll(mainConfig.OutputDir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
			name := utils.GenerateOutputFileName("{dataset}_{timestamp}.xlsx",
				map[string]string{"dataset": exportDataset})
			outPath = filepath.Join(mainConfig.OutputDir, name)
		}
		if err := export.WriteXLSX(outPath, records, export.SegmentHeader(exportDataset)); err != nil {
			return err
		}
		fmt.Printf("Exported %d record(s) to %s\n", len(records), outPath)

	case "tsv":
		text := export.TSV(records)
		if exportOut == "" {
			fmt.Print(text)
		} else {
			if err := os.WriteFile(exportOut, []byte(text), 0644); err != nil {
				return fmt.Errorf("failed to write TSV: %w", err)
			}
			fmt.Printf("Exported %d record(s) to %s\n", len(records), exportOut)
		}

	default:
		return fmt.Errorf("unknown format %q (expected xlsx or tsv)", exportFormat)
	}

	return nil
}
