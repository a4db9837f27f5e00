// =============================================================================
// Contpaq Normalizer - Concept Mapping Resolver
// =============================================================================
//
// This module resolves the final display concept for a transaction through a
// layered, priority-ordered mapping system:
//
//   Tier 1: text-pattern mappings against the data row's counterparty text
//           (prefix / substring / exact, case-insensitive, lowest priority
//           value wins, ties broken by declaration order)
//   Tier 2: account-code mappings against the header's account code
//           (leading-zero-insensitive equality)
//   Tier 3: passthrough of the original account label
//
// Text-based intent signals override structural code-based defaults, which
// override the raw source label. The tiers are modeled as an ordered chain of
// short-circuiting resolvers rather than special-cased branching, so callers
// can compose their own chains (see CodeStrategy and the legacy table in
// legacy.go).
//
// The mapping tables live in an external store. Store read failures are fatal
// for the operation: silently resolving without the tables would corrupt
// concept assignment, which is worse than stopping.
//
// =============================================================================

package mapping

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ledgertools/contpaq-normalizer/internal/types"
)

// =============================================================================
// STORE COLLABORATOR
// =============================================================================

// Store provides the persisted mapping tables. Any persistence technology
// satisfies the contract as long as get-after-set within one process is
// consistent.
type Store interface {
	TextMappings() ([]types.TextConceptMapping, error)
	CodeMappings() ([]types.ConceptMapping, error)
}

// CodeStrategy resolves an account code to a concept label. Both the generic
// code-mapping tier and the legacy categorical table implement it, so callers
// choose which strategy chain to run.
type CodeStrategy interface {
	// ResolveCode returns the concept for the code within the scope, and
	// whether a mapping applied.
	ResolveCode(code string, scope types.Scope) (string, bool)
}

// =============================================================================
// RESOLVER
// =============================================================================

// Resolver resolves display concepts from the store's mapping tables.
// The resolution algorithm itself is pure; all state lives in the store.
type Resolver struct {
	store Store
}

// NewResolver creates a Resolver backed by the given store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve resolves the final display concept for one transaction.
//
// PARAMETERS:
//   - accountCode: The second hierarchical group of the current account header
//     (may be empty when no header has been seen yet).
//   - originalLabel: The pre-mapping account label from the header row.
//   - candidateText: The data row's counterparty text, used by the text tier.
//   - scope: The mapping scope of the run (the file's process family).
//
// RETURNS:
//   - The resolved concept. Falls back to originalLabel when no mapping applies.
//   - An error only when a mapping table cannot be read.
func (r *Resolver) Resolve(accountCode, originalLabel, candidateText string, scope types.Scope) (string, error) {
	textTable, err := r.store.TextMappings()
	if err != nil {
		return "", fmt.Errorf("failed to read text mapping table: %w", err)
	}
	if m := ResolveByText(textTable, candidateText, scope); m != nil {
		return m.TargetConcept, nil
	}

	codeTable, err := r.store.CodeMappings()
	if err != nil {
		return "", fmt.Errorf("failed to read concept mapping table: %w", err)
	}
	if m := ResolveByCode(codeTable, accountCode, scope); m != nil {
		return m.TargetConcept, nil
	}

	return originalLabel, nil
}

// ResolveCode implements CodeStrategy using the store's code mapping table.
// Store errors resolve to "no match" here; callers that must distinguish use
// Resolve instead.
func (r *Resolver) ResolveCode(code string, scope types.Scope) (string, bool) {
	table, err := r.store.CodeMappings()
	if err != nil {
		return "", false
	}
	if m := ResolveByCode(table, code, scope); m != nil {
		return m.TargetConcept, true
	}
	return "", false
}

// =============================================================================
// PURE RESOLUTION FUNCTIONS
// =============================================================================

// ResolveByText returns the first text mapping whose pattern matches the
// candidate text, or nil. Entries are filtered to the requested scope (or
// "both"), then sorted ascending by priority; the sort is stable so ties keep
// declaration order. First match wins.
func ResolveByText(table []types.TextConceptMapping, candidateText string, scope types.Scope) *types.TextConceptMapping {
	candidates := make([]types.TextConceptMapping, 0, len(table))
	for _, m := range table {
		if m.Scope.Matches(scope) {
			candidates = append(candidates, m)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority < candidates[j].Priority
	})

	upper := strings.ToUpper(strings.TrimSpace(candidateText))
	for i := range candidates {
		if matchesPattern(&candidates[i], upper) {
			return &candidates[i]
		}
	}
	return nil
}

// ResolveByCode returns the first code mapping whose account code equals the
// given code after stripping leading zeros on both sides, or nil. An
// all-zeros code normalizes to "0".
func ResolveByCode(table []types.ConceptMapping, code string, scope types.Scope) *types.ConceptMapping {
	want := NormalizeCode(code)
	if want == "" {
		return nil
	}
	for i := range table {
		if !table[i].Scope.Matches(scope) {
			continue
		}
		if NormalizeCode(table[i].AccountCode) == want {
			return &table[i]
		}
	}
	return nil
}

// NormalizeCode strips leading zeros for leading-zero-insensitive comparison.
// "020" and "20" normalize identically; "000" normalizes to "0". Empty input
// stays empty so it can never match anything.
func NormalizeCode(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return ""
	}
	stripped := strings.TrimLeft(trimmed, "0")
	if stripped == "" {
		return "0"
	}
	return stripped
}

// matchesPattern tests one mapping's pattern against upper-cased candidate
// text using its match mode. Unknown modes fall back to substring, the most
// permissive behavior of the source system.
func matchesPattern(m *types.TextConceptMapping, upperText string) bool {
	pattern := strings.ToUpper(strings.TrimSpace(m.Pattern))
	if pattern == "" {
		return false
	}
	switch m.MatchMode {
	case types.MatchPrefix:
		return strings.HasPrefix(upperText, pattern)
	case types.MatchExact:
		return upperText == pattern
	case types.MatchSubstring:
		return strings.Contains(upperText, pattern)
	default:
		return strings.Contains(upperText, pattern)
	}
}
