package xlsxreader

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"BALANZA", "2024"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"132-020-000-000-00", "OBRA"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	rows, err := Read(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "BALANZA", rows[0][0])
	assert.Equal(t, "132-020-000-000-00", rows[1][0])
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.xlsx"))
	require.Error(t, err)
}

func TestReadEmptyWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, err := Read(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}
