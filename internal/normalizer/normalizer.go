// =============================================================================
// Contpaq Normalizer - Record Normalizer
// =============================================================================
//
// This module is the centerpiece of the pipeline: a stateful scan over the raw
// row matrix that reconstructs structured transaction records from Contpaq's
// semi-structured export layout.
//
// ROW LAYOUT:
//   Contpaq interleaves three kinds of rows, and only their content identifies
//   them (there are no headers):
//
//     132-020-000-000-00 | OBRA CIVIL          <- account header row
//     Segmento:  1 1 1 APK                     <- segment marker row
//     01/Ene/2024 | D | 100 | ACME SA | F-1 | 500.00   <- data row
//
//   Account headers and segment markers do not emit records; they update the
//   scan state that the following data rows inherit. Rows matching none of the
//   three patterns (titles, separators, legacy noise) are silently skipped.
//
// SCAN STATE:
//   The scan is an explicit fold: each row steps an immutable-per-step state
//   record {currentAccountCode, currentOriginalLabel, currentAccountLabel,
//   currentSegment} and optionally emits one record. This keeps the exact
//   ordering semantics of the source system without hidden mutable closures.
//
// CONCEPT RESOLUTION:
//   Resolution is deferred to data rows, because the text tier needs the data
//   row's counterparty text, not the header's. General-expense runs may enable
//   the legacy categorical table, which is consulted before the generic
//   resolver (the migration-era behavior).
//
// FAILURE SEMANTICS:
//   A date-shaped row with an unrecognized month token is a hard failure for
//   that row: a bad month means a corrupted export. By default the row is
//   skipped and counted (Result.SkippedRows, Result.RowErrors); Strict mode
//   restores the historical behavior of aborting the whole pass. Amount parse
//   failures are silently recovered to 0 and are never errors. Collaborator
//   failures (mapping store reads, catalog registration) are a different
//   class entirely: they abort the pass in every mode, since continuing
//   without the mapping tables would silently corrupt concept resolution.
//
// =============================================================================

package normalizer

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ledgertools/contpaq-normalizer/internal/accountcode"
	"github.com/ledgertools/contpaq-normalizer/internal/mapping"
	"github.com/ledgertools/contpaq-normalizer/internal/types"
)

// =============================================================================
// COLLABORATOR INTERFACES
// =============================================================================

// ConceptResolver resolves the final display concept for one data row.
// Implemented by mapping.Resolver.
type ConceptResolver interface {
	Resolve(accountCode, originalLabel, candidateText string, scope types.Scope) (string, error)
}

// CatalogRegistrar receives every (code, label, family) pair seen in account
// header rows. Optional; pass nil to skip catalog registration.
type CatalogRegistrar interface {
	RegisterAccount(entry types.AccountEntry) error
}

// =============================================================================
// OPTIONS AND RESULT
// =============================================================================

// Options controls one normalization pass. The process family must already be
// decided by the detector (or forced by the caller); the normalizer does not
// re-detect.
type Options struct {
	// Family is the file's process family; it threads the mapping scope.
	Family types.ProcessFamily

	// GeneralExpense marks the pass as a general-expense (GG) normalization.
	GeneralExpense bool

	// LegacyCategories enables the legacy categorical table for
	// general-expense passes. It is consulted before the generic resolver.
	LegacyCategories bool

	// Strict aborts the whole pass on the first malformed date row instead
	// of skipping and counting it.
	Strict bool
}

// RowError records one skipped row and why it was skipped.
type RowError struct {
	// Row is the 0-based row index in the input matrix.
	Row int

	// Err is the reason the row was skipped.
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row+1, e.Err)
}

// Result is the outcome of one normalization pass.
type Result struct {
	// Records are the emitted transaction records, in row order.
	Records []types.TransactionRecord

	// Segments are the distinct segment labels encountered, in first
	// appearance order.
	Segments []string

	// SkippedRows counts date-shaped rows dropped for hard validation
	// failures. Zero in Strict mode (the pass aborts instead).
	SkippedRows int

	// RowErrors describes each skipped row.
	RowErrors []RowError
}

// =============================================================================
// ROW PATTERNS
// =============================================================================

// datePattern matches the Excel-style short date shape D[D]/Mon/YYYY. The
// month token is validated separately against the known abbreviations, so a
// date-shaped row with a bogus month is a validation failure, not a skip.
var datePattern = regexp.MustCompile(`^\d{1,2}/[A-Za-z]{3}/\d{4}$`)

// segmentPrefix is the literal that opens a segment marker row.
const segmentPrefix = "segmento"

// errBadRow marks a row-validation failure (the bad-month case). Only errors
// wrapping this sentinel are skippable in non-strict mode; anything else is a
// collaborator failure and aborts the pass.
var errBadRow = errors.New("invalid data row")

// =============================================================================
// NORMALIZER
// =============================================================================

// Normalizer walks raw row matrices and emits structured records.
type Normalizer struct {
	resolver ConceptResolver
	legacy   mapping.CodeStrategy
	catalog  CatalogRegistrar
}

// New creates a Normalizer.
//
// PARAMETERS:
//   - resolver: The concept mapping resolver. Required.
//   - legacy: The legacy categorical strategy used when
//     Options.LegacyCategories is set. Pass nil to disable.
//   - catalog: The account catalog collaborator. Pass nil to skip
//     registration.
func New(resolver ConceptResolver, legacy mapping.CodeStrategy, catalog CatalogRegistrar) *Normalizer {
	return &Normalizer{
		resolver: resolver,
		legacy:   legacy,
		catalog:  catalog,
	}
}

// scanState is the accumulating context carried across the row scan. A fresh
// state is used per invocation; the normalizer itself is stateless between
// runs.
type scanState struct {
	currentAccountCode   string
	currentOriginalLabel string
	currentAccountLabel  string
	currentSegment       string
	nextID               int
}

// Normalize runs one pass over the row matrix.
//
// RETURNS:
//   - The Result with emitted records, encountered segments and skip counts.
//   - An error on mapping store failures and catalog failures (in every
//     mode), or on the first malformed date row in Strict mode.
func (n *Normalizer) Normalize(rows [][]string, opts Options) (*Result, error) {
	result := &Result{}
	seen := make(map[string]bool)
	state := scanState{nextID: 1}

	for i, row := range rows {
		next, record, err := n.step(state, row, opts)
		if err != nil {
			if opts.Strict || !errors.Is(err, errBadRow) {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
			result.SkippedRows++
			result.RowErrors = append(result.RowErrors, RowError{Row: i, Err: err})
			state = next
			continue
		}
		state = next

		if record != nil {
			result.Records = append(result.Records, *record)
			if record.Segment != "" && !seen[record.Segment] {
				seen[record.Segment] = true
				result.Segments = append(result.Segments, record.Segment)
			}
		}
	}

	return result, nil
}

// step classifies one row and returns the next scan state plus an optional
// emitted record. The three row patterns are mutually exclusive in practice;
// they are tested in header -> segment -> data order.
func (n *Normalizer) step(state scanState, row []string, opts Options) (scanState, *types.TransactionRecord, error) {
	if len(row) == 0 {
		return state, nil, nil
	}
	first := strings.TrimSpace(row[0])
	if first == "" {
		return state, nil, nil
	}

	// Account header row: update the account context; resolution is deferred
	// until a data row supplies counterparty text.
	if parsed, ok := accountcode.Parse(first); ok {
		label := ""
		if len(row) > 1 {
			label = strings.TrimSpace(row[1])
		}
		state.currentAccountCode = parsed.Full
		state.currentOriginalLabel = label

		if n.catalog != nil {
			entry := types.AccountEntry{Code: parsed.Full, Name: label, Family: opts.Family}
			if err := n.catalog.RegisterAccount(entry); err != nil {
				return state, nil, fmt.Errorf("failed to register account %s: %w", parsed.Full, err)
			}
		}
		return state, nil, nil
	}

	// Segment marker row.
	if strings.HasPrefix(strings.ToLower(first), segmentPrefix) {
		state.currentSegment = segmentLabel(first)
		return state, nil, nil
	}

	// Data row.
	if datePattern.MatchString(first) {
		record, err := n.buildRecord(&state, row, opts)
		if err != nil {
			return state, nil, err
		}
		return state, record, nil
	}

	// Anything else is legacy noise: titles, separators, totals. Skip.
	return state, nil, nil
}

// =============================================================================
// DATA ROW CONSTRUCTION
// =============================================================================

// dataRow is the positional decoding of one data row. Decoding happens once,
// here, instead of repeated positional indexing.
type dataRow struct {
	date           string
	movementType   string
	documentNumber string
	counterparty   string
	invoiceRef     string
	amountText     string
}

// decodeDataRow destructures the six expected positional cells, padding
// missing trailing cells with "".
func decodeDataRow(row []string) dataRow {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	return dataRow{
		date:           cell(0),
		movementType:   cell(1),
		documentNumber: cell(2),
		counterparty:   cell(3),
		invoiceRef:     cell(4),
		amountText:     cell(5),
	}
}

// buildRecord builds one TransactionRecord from a data row, consuming the
// next sequential ID and the current scan context.
func (n *Normalizer) buildRecord(state *scanState, row []string, opts Options) (*types.TransactionRecord, error) {
	d := decodeDataRow(row)

	month, year, err := parseShortDate(d.date)
	if err != nil {
		return nil, err
	}

	code := accountcode.Extract(state.currentAccountCode)
	scope := opts.Family.Scope()

	concept := ""
	resolved := false
	if opts.GeneralExpense && opts.LegacyCategories && n.legacy != nil {
		if label, ok := n.legacy.ResolveCode(code, scope); ok {
			concept = label
			resolved = true
		}
	}
	if !resolved {
		concept, err = n.resolver.Resolve(code, state.currentOriginalLabel, d.counterparty, scope)
		if err != nil {
			return nil, err
		}
	}
	state.currentAccountLabel = concept

	record := &types.TransactionRecord{
		ID:               state.nextID,
		Date:             d.date,
		MovementType:     d.movementType,
		DocumentNumber:   d.documentNumber,
		CounterpartyName: d.counterparty,
		InvoiceRef:       d.invoiceRef,
		Amount:           parseAmount(d.amountText),
		Concept:          concept,
		Segment:          state.currentSegment,
		Month:            month,
		Year:             year,
	}
	state.nextID++

	return record, nil
}

// =============================================================================
// CELL PARSERS
// =============================================================================

// parseShortDate splits a D[D]/Mon/YYYY date into its canonical month token
// and 4-digit year. An unrecognized month token is a hard failure: the row
// already matched the date shape, so a bad month indicates a corrupted
// export. Errors wrap errBadRow so the caller can classify them as
// skippable row validation rather than collaborator failure.
func parseShortDate(date string) (month, year string, err error) {
	parts := strings.Split(date, "/")
	if len(parts) != 3 {
		return "", "", fmt.Errorf("%w: malformed date %q", errBadRow, date)
	}
	idx, ok := types.MonthIndex(parts[1])
	if !ok {
		return "", "", fmt.Errorf("%w: unrecognized month token %q in date %q", errBadRow, parts[1], date)
	}
	return types.ShortMonths[idx], parts[2], nil
}

// parseAmount parses a decimal amount cell, tolerating currency symbols and
// thousands separators. Parse failures default to 0 and are never errors.
func parseAmount(text string) float64 {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(text)
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

// segmentLabel derives the segment name from a marker row's first cell. The
// legacy convention places the name as the final word after a fixed-width
// 3-token prefix: "Segmento:  1 1 1 APK" -> "APK". Markers too short to carry
// a name yield "".
func segmentLabel(cell string) string {
	fields := strings.Fields(cell)
	if len(fields) <= 3 {
		return ""
	}
	rest := fields[3:]
	return rest[len(rest)-1]
}
