// =============================================================================
// Contpaq Normalizer - XLSX Reader
// =============================================================================
//
// This module converts an uploaded Contpaq export workbook into the raw row
// matrix the detector and normalizer operate on. Only the first worksheet is
// read, and rows are returned exactly as excelize yields them: no header
// coercion, no trimming, no column alignment. Classification downstream is
// purely positional and content-based, so the reader stays dumb on purpose.
//
// =============================================================================

package xlsxreader

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Read opens an .xlsx/.xls workbook and returns the first sheet as an
// array-of-rows matrix.
//
// PARAMETERS:
//   - path: The path to the workbook.
//
// RETURNS:
//   - The row matrix of the first sheet.
//   - An error if the file cannot be opened, has no sheets, or is empty.
func Read(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("workbook %s is empty", path)
	}

	return rows, nil
}
