// =============================================================================
// Contpaq Normalizer - Legacy Category Table
// =============================================================================
//
// An earlier generation of the normalizer categorized general-expense rows
// through a fixed table keyed by the numeric suffix of the account code,
// before the generic mapping resolver existed. The table was intentionally
// kept working during the migration and ships here as a named strategy the
// caller can put in front of the generic resolver for general-expense runs.
//
// =============================================================================

package mapping

import "github.com/ledgertools/contpaq-normalizer/internal/types"

// LegacyCategoryTable maps account-code suffixes to fixed expense categories.
// Comparison is leading-zero-insensitive, like the generic code tier. The
// table applies to every scope; scope is accepted to satisfy CodeStrategy.
type LegacyCategoryTable struct {
	categories map[string]string
}

// NewLegacyCategoryTable returns the table with the historical category set.
func NewLegacyCategoryTable() *LegacyCategoryTable {
	return &LegacyCategoryTable{
		categories: map[string]string{
			"1":  "GASTOS VARIABLES",
			"2":  "DEPRECIACIONES",
			"3":  "EQUIPO DE TRANSPORTE",
			"4":  "COMBUSTIBLES Y LUBRICANTES",
			"5":  "MANTENIMIENTO",
			"6":  "ENERGÍA ELÉCTRICA",
			"7":  "SUELDOS Y SALARIOS",
			"8":  "FLETES",
			"20": "OBRA CIVIL",
		},
	}
}

// ResolveCode implements CodeStrategy against the fixed table.
func (t *LegacyCategoryTable) ResolveCode(code string, scope types.Scope) (string, bool) {
	label, ok := t.categories[NormalizeCode(code)]
	return label, ok
}

// Categories returns a copy of the table for display purposes.
func (t *LegacyCategoryTable) Categories() map[string]string {
	out := make(map[string]string, len(t.categories))
	for k, v := range t.categories {
		out[k] = v
	}
	return out
}
