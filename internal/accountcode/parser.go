// =============================================================================
// Contpaq Normalizer - Account Code Parser
// =============================================================================
//
// This module validates and decomposes the hierarchical account codes found in
// Contpaq export headers. The expected shape is five hyphen-separated numeric
// groups:
//
//   132-020-000-000-00
//   \_/ \_/
//    |   |
//    |   +-- account code: the expense category within the family. This is the
//    |       primary lookup key for concept mapping.
//    +------ main group: identifies the process family (132 = APK, 133 = EPK).
//
// Anything that does not match the shape is a non-match, never an error: export
// files are full of title rows, separators and legacy noise that simply are not
// account codes.
//
// =============================================================================

package accountcode

import (
	"regexp"
	"strings"

	"github.com/ledgertools/contpaq-normalizer/internal/types"
)

// =============================================================================
// CODE SHAPE
// =============================================================================

// codePattern matches the fixed 5-group numeric shape: NNN-NNN-NNN-NNN-NN.
// The first two groups are captured; the remaining groups only need to exist.
var codePattern = regexp.MustCompile(`^(\d{3})-(\d{3})-\d{3}-\d{3}-\d{2}$`)

// Family prefixes recognized in the first group.
const (
	PrefixAPK = "132"
	PrefixEPK = "133"
)

// AccountCode is the decomposed form of a valid account code string.
// It is ephemeral: derived on demand, never persisted.
type AccountCode struct {
	// Full is the verbatim code string, trimmed.
	Full string

	// MainGroup is the leading 3-digit group (process family prefix).
	MainGroup string

	// AccountCode is the second 3-digit group (expense category key).
	AccountCode string
}

// =============================================================================
// PARSING
// =============================================================================

// Parse validates and decomposes an account code string.
//
// PARAMETERS:
//   - code: The raw cell text. Leading/trailing whitespace is ignored.
//
// RETURNS:
//   - The decomposed AccountCode and true on a match.
//   - The zero value and false for anything else (wrong segment count,
//     non-numeric segments, empty input). Never an error.
func Parse(code string) (AccountCode, bool) {
	trimmed := strings.TrimSpace(code)
	m := codePattern.FindStringSubmatch(trimmed)
	if m == nil {
		return AccountCode{}, false
	}

	return AccountCode{
		Full:        trimmed,
		MainGroup:   m[1],
		AccountCode: m[2],
	}, true
}

// Extract returns only the second hyphen-group of a full code, or "" if the
// code does not parse. Convenience wrapper around Parse for callers that only
// need the mapping lookup key.
func Extract(code string) string {
	parsed, ok := Parse(code)
	if !ok {
		return ""
	}
	return parsed.AccountCode
}

// IsValid reports whether the code matches the 5-group shape.
func IsValid(code string) bool {
	_, ok := Parse(code)
	return ok
}

// =============================================================================
// FAMILY DERIVATION
// =============================================================================

// Family returns the process family implied by the code's main group.
// ok is false when the code does not parse or its prefix is not one of the
// two reserved family prefixes.
func Family(code string) (types.ProcessFamily, bool) {
	parsed, ok := Parse(code)
	if !ok {
		return "", false
	}
	switch parsed.MainGroup {
	case PrefixAPK:
		return types.FamilyAPK, true
	case PrefixEPK:
		return types.FamilyEPK, true
	}
	return "", false
}
