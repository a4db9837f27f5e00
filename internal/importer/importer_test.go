package importer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ledgertools/contpaq-normalizer/internal/config"
	"github.com/ledgertools/contpaq-normalizer/internal/store"
	"github.com/ledgertools/contpaq-normalizer/pkg/utils"
)

// writeWorkbook creates an XLSX fixture whose first sheet holds the given
// row matrix.
func writeWorkbook(t *testing.T, path string, rows [][]string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &values))
	}
	require.NoError(t, f.SaveAs(path))
}

// apkRows is a minimal but structurally faithful primary-ledger export.
func apkRows() [][]string {
	return [][]string{
		{"BALANZA DE COMPROBACIÓN"},
		{""},
		{"Enero 2024"},
		{"132-020-000-000-00", "APARCERÍA EN PROCESO OBRA"},
		{"Segmento:  1 1 1 APK"},
		{"15/Ene/2024", "Egresos", "F-100", "ACME SA", "A-1", "500.00"},
		{"20/Ene/2024", "Egresos", "F-101", "GRANJA SUR", "A-2", "1,250.50"},
	}
}

func testEnv(t *testing.T) (*config.MainConfig, *store.Store) {
	t.Helper()
	root := t.TempDir()
	cfg := &config.MainConfig{
		InputDir:        filepath.Join(root, "input"),
		OutputDir:       filepath.Join(root, "output"),
		InputArchiveDir: filepath.Join(root, "archive"),
		StorePath:       filepath.Join(root, "store.json"),
		MinConfidence:   50,
		MaxConcurrency:  1,
	}
	fm := utils.NewFileManager(cfg.InputDir, cfg.OutputDir, cfg.InputArchiveDir)
	require.NoError(t, fm.EnsureDirectories())

	st, err := store.Open(cfg.StorePath)
	require.NoError(t, err)
	return cfg, st
}

func TestRunIngestsAndArchives(t *testing.T) {
	cfg, st := testEnv(t)
	path := filepath.Join(cfg.InputDir, "balanza_enero.xlsx")
	writeWorkbook(t, path, apkRows())

	result := New(path, cfg, st, Options{}).Run()
	require.NoError(t, result.Error)
	require.True(t, result.Success)

	assert.Equal(t, "apk", result.Dataset)
	assert.Equal(t, 2, result.Stats.RecordsCreated)
	assert.Equal(t, 1, result.Stats.SegmentsFound)
	assert.Equal(t, 0, result.Stats.SkippedRows)
	assert.Equal(t, "Enero 2024", result.Detection.Period)

	records, err := st.Records("apk")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1, records[0].ID)
	assert.Equal(t, "ACME SA", records[0].CounterpartyName)
	assert.Equal(t, 1250.50, records[1].Amount)
	assert.Equal(t, "APK", records[1].Segment)

	segments, err := st.Segments()
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, "APK", segments[0].Label)

	// The input file moved to the archive.
	assert.False(t, utils.FileExists(path))
	assert.True(t, utils.FileExists(filepath.Join(cfg.InputArchiveDir, "balanza_enero.xlsx")))
}

func TestRunRejectsLowConfidence(t *testing.T) {
	cfg, st := testEnv(t)
	path := filepath.Join(cfg.InputDir, "notas.xlsx")
	writeWorkbook(t, path, [][]string{
		{"NOTAS SUELTAS"},
		{"sin estructura"},
	})

	result := New(path, cfg, st, Options{}).Run()
	require.Error(t, result.Error)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error.Error(), "confidence")

	// Rejected files stay where they are.
	assert.True(t, utils.FileExists(path))
}

func TestRunForcedDatasetBypassesGate(t *testing.T) {
	cfg, st := testEnv(t)
	cfg.MinConfidence = 100

	path := filepath.Join(cfg.InputDir, "balanza.xlsx")
	rows := apkRows()
	// Strip the phrase so detection alone would not clear a 100 threshold.
	rows[3][1] = "CUENTA SIN FRASE"
	writeWorkbook(t, path, rows)

	result := New(path, cfg, st, Options{ForcedDataset: "apk"}).Run()
	require.NoError(t, result.Error)
	assert.Equal(t, "apk", result.Dataset)
}

func TestRunRejectsInvalidForcedDataset(t *testing.T) {
	cfg, st := testEnv(t)
	path := filepath.Join(cfg.InputDir, "balanza.xlsx")
	writeWorkbook(t, path, apkRows())

	result := New(path, cfg, st, Options{ForcedDataset: "prorrateo"}).Run()
	require.Error(t, result.Error)
	assert.Contains(t, result.Error.Error(), "invalid target dataset")
}

func TestRunDryRun(t *testing.T) {
	cfg, st := testEnv(t)
	path := filepath.Join(cfg.InputDir, "balanza.xlsx")
	writeWorkbook(t, path, apkRows())

	result := New(path, cfg, st, Options{DryRun: true}).Run()
	require.NoError(t, result.Error)
	require.True(t, result.Success)
	assert.Equal(t, 2, result.Stats.RecordsCreated)

	// Nothing persisted, nothing archived.
	records, err := st.Records("apk")
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.True(t, utils.FileExists(path))
}

func TestRunEmptyLedgerFails(t *testing.T) {
	cfg, st := testEnv(t)
	path := filepath.Join(cfg.InputDir, "vacio.xlsx")
	writeWorkbook(t, path, [][]string{
		{"BALANZA DE COMPROBACIÓN"},
		{""},
		{"Enero 2024"},
		{"132-020-000-000-00", "APARCERÍA EN PROCESO OBRA"},
		{"Segmento:  1 1 1 APK"},
	})

	result := New(path, cfg, st, Options{}).Run()
	require.Error(t, result.Error)
	assert.Contains(t, result.Error.Error(), "no transaction records")
}
