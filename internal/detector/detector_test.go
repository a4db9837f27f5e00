package detector_test

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgertools/contpaq-normalizer/internal/detector"
	"github.com/ledgertools/contpaq-normalizer/internal/types"
)

func TestDetect_APKCodeAndPhrase(t *testing.T) {
	rows := [][]string{
		{"Reporte de movimientos"},
		{},
		{"Enero de 2024"},
		{"132-001-000-000-00", "APARCERÍA EN PROCESO"},
	}

	result := detector.New().Detect(rows)

	assert.Equal(t, types.FamilyAPK, result.ProcessFamily)
	assert.GreaterOrEqual(t, result.Confidence, 50)
	assert.True(t, result.Indicators.APKCodePrefix)
	assert.True(t, result.Indicators.APKPhrase)
	assert.Equal(t, "apk", result.DataGroup)
	assert.Equal(t, "Enero 2024", result.Period)
	assert.True(t, result.Indicators.PeriodDetected)
}

func TestDetect_EPKCode(t *testing.T) {
	rows := [][]string{
		{"header"},
		{"133-002-000-000-00", "ENGORDA EN PROCESO"},
	}

	result := detector.New().Detect(rows)

	assert.Equal(t, types.FamilyEPK, result.ProcessFamily)
	assert.True(t, result.Indicators.EPKCodePrefix)
	assert.True(t, result.Indicators.EPKPhrase)
}

func TestDetect_GeneralExpenseMarker(t *testing.T) {
	rows := [][]string{
		{"header"},
		{"133-001-000-000-00", "ENGORDA EN PROCESO"},
		{"Segmento:  0 0 0 GG"},
	}

	result := detector.New().Detect(rows)

	assert.True(t, result.IsGeneralExpense)
	assert.False(t, result.HasSegmentBreakdown)
	assert.True(t, result.Indicators.SegmentRows)
	assert.True(t, result.Indicators.GeneralExpense)
}

func TestDetect_BreakdownMarkerSuppressesGeneralExpense(t *testing.T) {
	rows := [][]string{
		{"header"},
		{"132-001-000-000-00", "APARCERÍA EN PROCESO"},
		{"Segmento:  1 1 1 APK"},
		{"Segmento:  0 0 0 GG"},
	}

	result := detector.New().Detect(rows)

	assert.True(t, result.HasSegmentBreakdown)
	// The GG marker fired, but the breakdown marker overrides it.
	assert.True(t, result.Indicators.GeneralExpense)
	assert.False(t, result.IsGeneralExpense)
}

func TestDetect_NoSignals_DefaultsLowConfidence(t *testing.T) {
	rows := [][]string{
		{"some title"},
		{"random", "cells"},
		{""},
	}

	result := detector.New().Detect(rows)

	assert.Equal(t, types.FamilyEPK, result.ProcessFamily)
	assert.Less(t, result.Confidence, 50)
	assert.Equal(t, detector.PeriodNotDetected, result.Period)
	assert.False(t, result.IsGeneralExpense)
	assert.False(t, result.HasSegmentBreakdown)
}

func TestDetect_EmptyMatrix(t *testing.T) {
	result := detector.New().Detect(nil)

	require.NotEmpty(t, result.ProcessFamily)
	assert.Equal(t, detector.PeriodNotDetected, result.Period)
	assert.LessOrEqual(t, result.Confidence, 100)
}

func TestDetect_PeriodFallbackToRawText(t *testing.T) {
	rows := [][]string{
		{"header"},
		{},
		{"Movimientos del periodo 39"},
	}

	result := detector.New().Detect(rows)

	assert.Equal(t, "Movimientos del periodo 39", result.Period)
	assert.False(t, result.Indicators.PeriodDetected)
}

func TestDetect_PeriodFallbackTruncatesOnRuneBoundary(t *testing.T) {
	// Byte 40 of this cell falls inside the Ñ; the truncated period must
	// still be valid UTF-8.
	raw := "PERÍODO DE OPERACIÓN SIN CIERRE COMPAÑÍA GANADERA DEL SURESTE"
	rows := [][]string{
		{"header"},
		{},
		{raw},
	}

	result := detector.New().Detect(rows)

	assert.True(t, utf8.ValidString(result.Period))
	assert.Equal(t, "PERÍODO DE OPERACIÓN SIN CIERRE COMPAÑÍA", result.Period)
	assert.Equal(t, 40, utf8.RuneCountInString(result.Period))
}

func TestDetect_ConfidenceClamped(t *testing.T) {
	rows := [][]string{
		{"header"},
		{},
		{"Diciembre 2024"},
		{"132-001-000-000-00", "APARCERÍA EN PROCESO"},
		{"Segmento:  1 1 1 APK"},
	}

	result := detector.New().Detect(rows)

	assert.LessOrEqual(t, result.Confidence, 100)
	assert.GreaterOrEqual(t, result.Confidence, 90)
}

func TestDetect_ScanRowLimit(t *testing.T) {
	rows := [][]string{{"header"}}
	for i := 0; i < 30; i++ {
		rows = append(rows, []string{"filler"})
	}
	// Signal past the configured scan window must be ignored.
	rows = append(rows, []string{"132-001-000-000-00", "APARCERÍA EN PROCESO"})

	d := &detector.Detector{MaxScanRows: 10}
	result := d.Detect(rows)

	assert.False(t, result.Indicators.APKCodePrefix)
	assert.Equal(t, types.FamilyEPK, result.ProcessFamily)
}
