// =============================================================================
// Contpaq Normalizer - File Type Detector
// =============================================================================
//
// This module scans a raw row matrix and classifies the export it came from:
//   - Which process family produced it (APK or EPK)
//   - Whether it carries per-segment breakdown rows
//   - Whether it is a general-expense (GG) ledger
//   - The reporting period, best effort
//
// DETECTION STRATEGY:
//   Classification is purely positional and content-based; no column headers
//   are required. The detector accumulates independent boolean indicators from
//   the first rows of the file and combines them into a best-guess result with
//   an additive confidence score. It never fails: a file with no recognizable
//   signals simply yields a low-confidence default, and the caller decides
//   whether to demand human confirmation below its threshold.
//
// SIGNALS:
//   - Account-code-shaped first cells: the 3-digit prefix (132/133) votes for a
//     family; the adjacent cell text is checked for the family phrases
//     ("APARCERÍA EN PROCESO" / "ENGORDA EN PROCESO").
//   - Rows starting with the literal "segmento": segment names containing "GG"
//     mark a general-expense ledger; names containing "APK" or "EPK" mark a
//     per-segment breakdown ledger.
//   - The cell at row 3, column 1 is checked for a "month-name + year" period.
//
// =============================================================================

package detector

import (
	"regexp"
	"strings"

	"github.com/ledgertools/contpaq-normalizer/internal/accountcode"
	"github.com/ledgertools/contpaq-normalizer/internal/types"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// DefaultMaxScanRows is how many rows are inspected for signals by default.
const DefaultMaxScanRows = 100

// PeriodNotDetected is the period label used when no period cell is usable.
const PeriodNotDetected = "No detectado"

// Family-identifying phrases looked for next to account code headers.
const (
	phraseAPK = "APARCERÍA EN PROCESO"
	phraseEPK = "ENGORDA EN PROCESO"
)

// Segment-name suffix tokens.
const (
	markerGG  = "GG"
	markerAPK = "APK"
	markerEPK = "EPK"
)

// periodRow/periodCol is the fixed early cell position checked for the
// reporting period (0-based).
const (
	periodRow = 2
	periodCol = 0
)

// periodPattern extracts a Spanish month name and a 4-digit year from the
// period cell, tolerating separators like "de" ("Enero de 2024").
var periodPattern = regexp.MustCompile(
	`(?i)(enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|octubre|noviembre|diciembre)\D{0,8}(\d{4})`)

// Confidence contributions per indicator. A firing code prefix is a stronger
// signal than a phrase next to it.
const (
	confidenceCodePrefix = 45
	confidencePhrase     = 25
	confidenceSegments   = 15
	confidencePeriod     = 10
	confidenceDefault    = 10
)

// =============================================================================
// RESULT TYPES
// =============================================================================

// Indicators records which raw signals fired during the scan. It is carried in
// the result so the caller (and the detect command) can show why a file was
// classified the way it was.
type Indicators struct {
	APKCodePrefix  bool `json:"apkCodePrefix"`
	EPKCodePrefix  bool `json:"epkCodePrefix"`
	APKPhrase      bool `json:"apkPhrase"`
	EPKPhrase      bool `json:"epkPhrase"`
	SegmentRows    bool `json:"segmentRows"`
	GeneralExpense bool `json:"generalExpense"`
	Breakdown      bool `json:"breakdown"`
	PeriodDetected bool `json:"periodDetected"`
}

// Result is the classification of one raw export.
type Result struct {
	// ProcessFamily is the best-guess family for the file.
	ProcessFamily types.ProcessFamily `json:"processFamily"`

	// HasSegmentBreakdown is true when the file carries per-segment
	// breakdown rows (segment names suffixed APK/EPK).
	HasSegmentBreakdown bool `json:"hasSegmentBreakdown"`

	// IsGeneralExpense is true when the file is a general-expense ledger:
	// the GG marker fired and no breakdown marker did. The two flags are
	// deliberately tied; they are not independent.
	IsGeneralExpense bool `json:"isGeneralExpense"`

	// Period is the best-effort reporting period label.
	Period string `json:"period"`

	// DataGroup is the storage partition key for the file's records. In the
	// canonical design it equals the process family.
	DataGroup string `json:"dataGroup"`

	// Confidence is the accumulated classification confidence, 0-100.
	Confidence int `json:"confidence"`

	// Indicators records which signals fired.
	Indicators Indicators `json:"indicators"`
}

// =============================================================================
// DETECTOR
// =============================================================================

// Detector classifies raw row matrices.
type Detector struct {
	// MaxScanRows bounds how many rows are inspected. Zero means the default.
	MaxScanRows int
}

// New returns a Detector with default settings.
func New() *Detector {
	return &Detector{MaxScanRows: DefaultMaxScanRows}
}

// Detect classifies one raw row matrix. It never returns an error: ambiguity
// is expressed through the confidence score, not failure.
func (d *Detector) Detect(rows [][]string) Result {
	maxRows := d.MaxScanRows
	if maxRows <= 0 {
		maxRows = DefaultMaxScanRows
	}

	result := Result{
		Period: extractPeriod(rows),
	}
	result.Indicators.PeriodDetected = result.Period != PeriodNotDetected

	// =========================================================================
	// SIGNAL SCAN
	// =========================================================================
	// First row is header/metadata; signals start at row index 1.

	limit := len(rows)
	if limit > maxRows {
		limit = maxRows
	}

	for i := 1; i < limit; i++ {
		row := rows[i]
		if len(row) == 0 {
			continue
		}
		first := strings.TrimSpace(row[0])
		if first == "" {
			continue
		}

		// Account header rows vote for a family.
		if parsed, ok := accountcode.Parse(first); ok {
			switch parsed.MainGroup {
			case accountcode.PrefixAPK:
				result.Indicators.APKCodePrefix = true
			case accountcode.PrefixEPK:
				result.Indicators.EPKCodePrefix = true
			}

			adjacent := ""
			if len(row) > 1 {
				adjacent = strings.ToUpper(strings.TrimSpace(row[1]))
			}
			if strings.Contains(adjacent, phraseAPK) {
				result.Indicators.APKPhrase = true
			}
			if strings.Contains(adjacent, phraseEPK) {
				result.Indicators.EPKPhrase = true
			}
			continue
		}

		// Segment marker rows classify the ledger kind.
		if strings.HasPrefix(strings.ToLower(first), "segmento") {
			result.Indicators.SegmentRows = true

			name := strings.ToUpper(first)
			if strings.Contains(name, markerAPK) || strings.Contains(name, markerEPK) {
				result.Indicators.Breakdown = true
			} else if strings.Contains(name, markerGG) {
				result.Indicators.GeneralExpense = true
			}
		}
	}

	// =========================================================================
	// DECISION
	// =========================================================================

	apkScore := familyScore(result.Indicators.APKCodePrefix, result.Indicators.APKPhrase)
	epkScore := familyScore(result.Indicators.EPKCodePrefix, result.Indicators.EPKPhrase)

	confidence := 0
	switch {
	case apkScore >= epkScore && apkScore > 0:
		result.ProcessFamily = types.FamilyAPK
		confidence = apkScore
	case epkScore > 0:
		result.ProcessFamily = types.FamilyEPK
		confidence = epkScore
	default:
		// No family signal at all: default to the secondary family, low
		// confidence, and let the caller ask a human.
		result.ProcessFamily = types.FamilyEPK
		confidence = confidenceDefault
	}

	if result.Indicators.SegmentRows {
		confidence += confidenceSegments
	}
	if result.Indicators.PeriodDetected {
		confidence += confidencePeriod
	}

	result.HasSegmentBreakdown = result.Indicators.Breakdown
	result.IsGeneralExpense = result.Indicators.GeneralExpense && !result.Indicators.Breakdown
	result.DataGroup = string(result.ProcessFamily)
	result.Confidence = clamp(confidence, 0, 100)

	return result
}

// =============================================================================
// HELPERS
// =============================================================================

// familyScore combines the per-family indicators into an additive score.
func familyScore(codePrefix, phrase bool) int {
	score := 0
	if codePrefix {
		score += confidenceCodePrefix
	}
	if phrase {
		score += confidencePhrase
	}
	return score
}

// extractPeriod reads the fixed period cell. Preference order:
//  1. A "month-name + year" pattern, normalized to "Month YYYY".
//  2. The raw cell text, truncated.
//  3. PeriodNotDetected.
func extractPeriod(rows [][]string) string {
	if len(rows) <= periodRow || len(rows[periodRow]) <= periodCol {
		return PeriodNotDetected
	}

	raw := strings.TrimSpace(rows[periodRow][periodCol])
	if raw == "" {
		return PeriodNotDetected
	}

	if m := periodPattern.FindStringSubmatch(raw); m != nil {
		return titleCase(m[1]) + " " + m[2]
	}

	// Truncate on a rune boundary; accented Spanish text must stay valid UTF-8.
	const maxLen = 40
	if r := []rune(raw); len(r) > maxLen {
		return string(r[:maxLen])
	}
	return raw
}

// titleCase upper-cases the first byte of an ASCII-leading month name.
// All Spanish month names start with an ASCII letter.
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
