// =============================================================================
// Contpaq Normalizer - Expense Proration Engine
// =============================================================================
//
// This module distributes general-expense (GG) concept totals across segments
// proportionally to their weights (head counts). For every distinct concept in
// the input and every segment, one synthetic record is emitted:
//
//   amount = conceptTotal * segmentWeight / totalWeight, rounded to 2 decimals
//
// Rounding is half-up, applied independently per pair, so the sum of emitted
// amounts for one concept may differ from the pre-rounding total by a few
// cents. That drift is documented behavior and is not corrected.
//
// The emitted records are dated to the last day of the previous calendar month
// relative to the engine's clock. The clock is injectable, so given the same
// inputs and the same time the output is fully deterministic.
//
// =============================================================================

package proration

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ledgertools/contpaq-normalizer/internal/types"
)

// ErrNoDistributableBase is returned when proration cannot run: either no
// segments are configured or their weights sum to zero. Proration never runs
// partially.
var ErrNoDistributableBase = errors.New("no distributable base: segments are empty or total weight is zero")

// Engine generates proration record sets.
type Engine struct {
	// Now supplies the current time. Defaults to time.Now.
	Now func() time.Time
}

// New returns an Engine using the real clock.
func New() *Engine {
	return &Engine{Now: time.Now}
}

// Generate distributes the general-expense records across the segments.
//
// PARAMETERS:
//   - records: The normalized general-expense records. Zero-amount entries
//     are ignored during aggregation.
//   - segments: The segment weight table. Must be non-empty with a positive
//     weight sum.
//
// RETURNS:
//   - One ProrationRecord per (distinct concept, segment) pair, concepts in
//     first-appearance order, segments in table order, IDs sequential from 1.
//   - ErrNoDistributableBase when the precondition fails; no partial output.
func (e *Engine) Generate(records []types.TransactionRecord, segments []types.Segment) ([]types.ProrationRecord, error) {
	totalWeight := 0
	for _, s := range segments {
		totalWeight += s.Weight
	}
	if len(segments) == 0 || totalWeight <= 0 {
		return nil, ErrNoDistributableBase
	}

	// =========================================================================
	// AGGREGATE BY CONCEPT
	// =========================================================================
	// Concepts keep first-appearance order so repeat runs emit records in a
	// stable sequence.

	order := make([]string, 0)
	totals := make(map[string]decimal.Decimal)
	for _, r := range records {
		if r.Concept == "" || r.Amount == 0 {
			continue
		}
		if _, seen := totals[r.Concept]; !seen {
			order = append(order, r.Concept)
			totals[r.Concept] = decimal.Zero
		}
		totals[r.Concept] = totals[r.Concept].Add(decimal.NewFromFloat(r.Amount))
	}

	// =========================================================================
	// EMIT PAIRS
	// =========================================================================

	now := e.clock()()
	stamp := lastDayOfPreviousMonth(now)
	date := formatShortDate(stamp)
	month := types.ShortMonths[stamp.Month()-1]
	year := fmt.Sprintf("%d", stamp.Year())

	weightTotal := decimal.NewFromInt(int64(totalWeight))
	out := make([]types.ProrationRecord, 0, len(order)*len(segments))
	id := 1

	for _, concept := range order {
		total := totals[concept]
		for _, segment := range segments {
			share := total.
				Mul(decimal.NewFromInt(int64(segment.Weight))).
				Div(weightTotal).
				Round(2)

			out = append(out, types.ProrationRecord{
				ID:               id,
				Date:             date,
				CounterpartyName: concept + " (prorrateo)",
				Amount:           share.InexactFloat64(),
				Concept:          concept,
				Segment:          segment.Label,
				Month:            month,
				Year:             year,
			})
			id++
		}
	}

	return out, nil
}

// clock returns the configured clock, defaulting to time.Now.
func (e *Engine) clock() func() time.Time {
	if e.Now != nil {
		return e.Now
	}
	return time.Now
}

// lastDayOfPreviousMonth normalizes via day 0 of the current month, which the
// time package resolves to the final day of the month before.
func lastDayOfPreviousMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 0, 0, 0, 0, 0, now.Location())
}

// formatShortDate renders a time in the source system's DD/Mon/YYYY shape.
func formatShortDate(t time.Time) string {
	return fmt.Sprintf("%02d/%s/%d", t.Day(), types.ShortMonths[t.Month()-1], t.Year())
}
