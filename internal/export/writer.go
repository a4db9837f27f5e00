// =============================================================================
// Contpaq Normalizer - Export Writers
// =============================================================================
//
// This module serializes stored record sets back out of the system in the two
// formats the source workflow supports:
//
//   - An XLSX workbook (one sheet, header row, no ID column)
//   - Tab-separated text, the clipboard paste format: no header row and no ID
//     column, one record per line
//
// Both are pure serializations of the record shape and carry no logic beyond
// column ordering. The only variant behavior is the segment column header:
// "Vuelta" for primary-ledger and proration datasets, "Segmento" for the
// general-expense dataset. The records themselves are identical in shape.
//
// =============================================================================

package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ledgertools/contpaq-normalizer/internal/types"
)

// SheetName is the single sheet written to exported workbooks.
const SheetName = "Datos"

// SegmentHeader returns the segment column header for a dataset key:
// "Segmento" for the general-expense partition, "Vuelta" everywhere else.
func SegmentHeader(datasetKey string) string {
	if datasetKey == "gg" {
		return "Segmento"
	}
	return "Vuelta"
}

// headers returns the XLSX header row for the given segment column name.
func headers(segmentHeader string) []string {
	return []string{
		"Fecha", "Egresos", "Folio", "Proveedor", "Factura",
		"Importe", "Concepto", segmentHeader, "Mes", "Año",
	}
}

// cells returns one record's cell values in export column order.
func cells(r types.TransactionRecord) []interface{} {
	return []interface{}{
		r.Date, r.MovementType, r.DocumentNumber, r.CounterpartyName,
		r.InvoiceRef, r.Amount, r.Concept, r.Segment, r.Month, r.Year,
	}
}

// =============================================================================
// XLSX
// =============================================================================

// WriteXLSX writes the record set to a new workbook at path.
//
// PARAMETERS:
//   - path: The output workbook path.
//   - records: The records to serialize, in order.
//   - segmentHeader: The segment column header ("Vuelta" or "Segmento");
//     use SegmentHeader to derive it from the dataset key.
func WriteXLSX(path string, records []types.TransactionRecord, segmentHeader string) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	if err := writeRow(f, 1, toInterfaces(headers(segmentHeader))); err != nil {
		return err
	}
	for i, r := range records {
		if err := writeRow(f, i+2, cells(r)); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

// writeRow sets one sheet row (1-based) from a cell slice.
func writeRow(f *excelize.File, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to compute cell for row %d: %w", row, err)
	}
	if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

func toInterfaces(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// =============================================================================
// TSV
// =============================================================================

// TSV renders the record set as tab-separated clipboard text: no header row,
// no ID column, one record per line, trailing newline per line.
func TSV(records []types.TransactionRecord) string {
	var b strings.Builder
	for _, r := range records {
		fields := []string{
			r.Date, r.MovementType, r.DocumentNumber, r.CounterpartyName,
			r.InvoiceRef, formatAmount(r.Amount), r.Concept, r.Segment,
			r.Month, r.Year,
		}
		b.WriteString(strings.Join(fields, "\t"))
		b.WriteString("\n")
	}
	return b.String()
}

// formatAmount renders amounts without a fixed decimal count, matching the
// source clipboard output (500 stays "500", 33.33 stays "33.33").
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
