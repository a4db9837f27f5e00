package export

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ledgertools/contpaq-normalizer/internal/types"
)

func sampleRecords() []types.TransactionRecord {
	return []types.TransactionRecord{
		{
			ID: 1, Date: "15/Ene/2024", MovementType: "Egresos",
			DocumentNumber: "F-100", CounterpartyName: "PROVEEDOR UNO",
			InvoiceRef: "A-1", Amount: 500, Concept: "OBRA CIVIL",
			Segment: "APK", Month: "Ene", Year: "2024",
		},
		{
			ID: 2, Date: "20/Ene/2024", MovementType: "Egresos",
			DocumentNumber: "F-101", CounterpartyName: "PROVEEDOR DOS",
			InvoiceRef: "A-2", Amount: 33.33, Concept: "FLETES",
			Segment: "EPK", Month: "Ene", Year: "2024",
		},
	}
}

func TestSegmentHeader(t *testing.T) {
	assert.Equal(t, "Segmento", SegmentHeader("gg"))
	assert.Equal(t, "Vuelta", SegmentHeader("apk"))
	assert.Equal(t, "Vuelta", SegmentHeader("epk"))
	assert.Equal(t, "Vuelta", SegmentHeader("prorrateo"))
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	require.NoError(t, WriteXLSX(path, sampleRecords(), "Vuelta"))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{
		"Fecha", "Egresos", "Folio", "Proveedor", "Factura",
		"Importe", "Concepto", "Vuelta", "Mes", "Año",
	}, rows[0])

	assert.Equal(t, "15/Ene/2024", rows[1][0])
	assert.Equal(t, "PROVEEDOR UNO", rows[1][3])
	assert.Equal(t, "500", rows[1][5])
	assert.Equal(t, "APK", rows[1][7])
	assert.Equal(t, "FLETES", rows[2][6])
}

func TestWriteXLSXGeneralExpenseHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gg.xlsx")
	require.NoError(t, WriteXLSX(path, sampleRecords()[:1], SegmentHeader("gg")))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Equal(t, "Segmento", rows[0][7])
}

func TestWriteXLSXEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	require.NoError(t, WriteXLSX(path, nil, "Vuelta"))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1) // header only
}

func TestTSV(t *testing.T) {
	out := TSV(sampleRecords())

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 2)

	first := strings.Split(lines[0], "\t")
	require.Len(t, first, 10)
	assert.Equal(t, "15/Ene/2024", first[0])
	assert.Equal(t, "500", first[5])
	assert.Equal(t, "OBRA CIVIL", first[6])
	assert.Equal(t, "APK", first[7])

	second := strings.Split(lines[1], "\t")
	assert.Equal(t, "33.33", second[5])
}

func TestTSVEmpty(t *testing.T) {
	assert.Equal(t, "", TSV(nil))
}
