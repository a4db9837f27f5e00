// =============================================================================
// Contpaq Normalizer - Shared Types
// =============================================================================
//
// This package contains shared domain types used across multiple modules to
// avoid import cycles. Types defined here are used by:
//   - detector
//   - mapping
//   - normalizer
//   - proration
//   - store
//   - export
//
// =============================================================================

package types

import "strings"

// =============================================================================
// PROCESS FAMILIES AND SCOPES
// =============================================================================

// ProcessFamily identifies one of the two mutually exclusive business lines
// found in Contpaq exports. The family is derived from the leading 3-digit
// prefix of the account codes in the file.
type ProcessFamily string

const (
	// FamilyAPK is the primary business line ("aparcería"), account prefix 132.
	FamilyAPK ProcessFamily = "apk"

	// FamilyEPK is the secondary business line ("engorda"), account prefix 133.
	FamilyEPK ProcessFamily = "epk"
)

// Scope restricts a mapping entry to one process family, or applies it to both.
type Scope string

const (
	ScopeAPK  Scope = "apk"
	ScopeEPK  Scope = "epk"
	ScopeBoth Scope = "both"
)

// Scope returns the mapping scope that corresponds to this family.
func (f ProcessFamily) Scope() Scope {
	return Scope(f)
}

// Matches reports whether a mapping entry with scope s applies to requests
// made for scope want. Entries with ScopeBoth apply everywhere.
func (s Scope) Matches(want Scope) bool {
	return s == want || s == ScopeBoth
}

// ParseFamily parses a user-supplied family name ("apk" or "epk").
func ParseFamily(v string) (ProcessFamily, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "apk":
		return FamilyAPK, true
	case "epk":
		return FamilyEPK, true
	}
	return "", false
}

// =============================================================================
// MONTH TOKENS
// =============================================================================

// ShortMonths holds the twelve 3-letter Spanish month abbreviations exactly as
// they appear in Contpaq date cells ("01/Ene/2024"). Order matters: index 0 is
// January.
var ShortMonths = [12]string{
	"Ene", "Feb", "Mar", "Abr", "May", "Jun",
	"Jul", "Ago", "Sep", "Oct", "Nov", "Dic",
}

// MonthIndex returns the 0-based month index for a 3-letter token, matching
// case-insensitively. ok is false for unrecognized tokens.
func MonthIndex(token string) (int, bool) {
	for i, m := range ShortMonths {
		if strings.EqualFold(m, token) {
			return i, true
		}
	}
	return 0, false
}

// =============================================================================
// TRANSACTION RECORDS
// =============================================================================

// TransactionRecord is the normalized output unit of one normalization pass.
//
// The source system stores two record variants that share every field except
// the segment column name ("Vuelta" in the primary ledger, "Segmento" in the
// general-expense ledger). The variants are unified here; the export layer is
// responsible for emitting the correct column header per dataset.
//
// Records are created once by the normalizer and never mutated by it. Concept
// reassignment happens downstream on the persisted copy.
type TransactionRecord struct {
	// ID is sequential and 1-based, unique within one normalization run.
	ID int `json:"id"`

	// Date is the verbatim source date, format "DD/Mon/YYYY" with Spanish
	// 3-letter month abbreviations.
	Date string `json:"fecha"`

	// MovementType is the movement type column ("Egresos" in the source).
	MovementType string `json:"egresos"`

	// DocumentNumber is the document folio.
	DocumentNumber string `json:"folio"`

	// CounterpartyName is the supplier / concept text of the data row.
	CounterpartyName string `json:"proveedor"`

	// InvoiceRef is the invoice reference.
	InvoiceRef string `json:"factura"`

	// Amount is the parsed decimal amount. Parse failures default to 0.
	Amount float64 `json:"importe"`

	// Concept is the resolved display label (output of the mapping resolver).
	Concept string `json:"concepto"`

	// Segment is the accumulated segment label current at the data row
	// ("vuelta" for ledger records, "segmento" for general-expense records).
	Segment string `json:"segmento"`

	// Month is the 3-letter month token extracted from Date.
	Month string `json:"mes"`

	// Year is the 4-digit year extracted from Date.
	Year string `json:"año"`
}

// =============================================================================
// CONCEPT MAPPINGS
// =============================================================================

// MatchMode selects how a text mapping pattern is tested against candidate text.
type MatchMode string

const (
	MatchPrefix    MatchMode = "prefix"
	MatchSubstring MatchMode = "substring"
	MatchExact     MatchMode = "exact"
)

// ConceptMapping maps an account code (the second hierarchical segment of the
// full code, compared leading-zero-insensitively) to a display concept.
// Persisted and user-editable.
type ConceptMapping struct {
	ID            string `json:"id" yaml:"id"`
	AccountCode   string `json:"accountCode" yaml:"account_code"`
	SourceText    string `json:"sourceText" yaml:"source_text"`
	TargetConcept string `json:"targetConcept" yaml:"target_concept"`
	Scope         Scope  `json:"scope" yaml:"scope"`
	CreatedAt     string `json:"createdAt,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt     string `json:"updatedAt,omitempty" yaml:"updated_at,omitempty"`
}

// TextConceptMapping maps counterparty text to a display concept. Multiple
// entries may match the same input; the lowest Priority value that matches
// wins, ties broken by declaration order.
type TextConceptMapping struct {
	ID            string    `json:"id" yaml:"id"`
	Pattern       string    `json:"pattern" yaml:"pattern"`
	MatchMode     MatchMode `json:"matchMode" yaml:"match_mode"`
	TargetConcept string    `json:"targetConcept" yaml:"target_concept"`
	Scope         Scope     `json:"scope" yaml:"scope"`
	Priority      int       `json:"priority" yaml:"priority"`
	CreatedAt     string    `json:"createdAt,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt     string    `json:"updatedAt,omitempty" yaml:"updated_at,omitempty"`
}

// =============================================================================
// SEGMENTS AND PRORATION
// =============================================================================

// Segment is a proration weight unit: a named cost-center bucket with a
// non-negative head count used as its weight.
type Segment struct {
	Label  string `json:"segment" yaml:"label"`
	Weight int    `json:"count" yaml:"weight"`
}

// ProrationRecord is structurally identical to TransactionRecord but
// synthetic: one record per (concept, segment) pair emitted by the proration
// engine.
type ProrationRecord = TransactionRecord

// =============================================================================
// ACCOUNT CATALOG
// =============================================================================

// AccountEntry is one entry of the account catalog: an account code paired
// with the account name seen in the export header that introduced it.
type AccountEntry struct {
	Code   string        `json:"code"`
	Name   string        `json:"name"`
	Family ProcessFamily `json:"family"`
}

// Concept is a user-managed display concept available for reassignment.
type Concept struct {
	ID        string `json:"id" yaml:"id"`
	Text      string `json:"text" yaml:"text"`
	CreatedAt string `json:"createdAt,omitempty" yaml:"created_at,omitempty"`
}
