package store_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgertools/contpaq-normalizer/internal/store"
	"github.com/ledgertools/contpaq-normalizer/internal/types"
)

func openTemp(t *testing.T) (*store.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "process.json")
	s, err := store.Open(path)
	require.NoError(t, err)
	return s, path
}

func TestRecords_GetAfterSet(t *testing.T) {
	s, _ := openTemp(t)
	records := []types.TransactionRecord{
		{ID: 1, Concept: "OBRA CIVIL", Amount: 500, Segment: "V1"},
		{ID: 2, Concept: "FLETES", Amount: 100, Segment: "V2"},
	}

	require.NoError(t, s.SaveRecords(store.DatasetAPK, records))

	got, err := s.Records(store.DatasetAPK)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestRecords_SurvivesReopen(t *testing.T) {
	s, path := openTemp(t)
	require.NoError(t, s.SaveRecords(store.DatasetGG, []types.TransactionRecord{
		{ID: 1, Concept: "ALIMENTO", Amount: 42.5, Segment: "GG", Year: "2024", Month: "Ene"},
	}))
	require.NoError(t, s.SaveSegments([]types.Segment{{Label: "A", Weight: 30}}))

	reopened, err := store.Open(path)
	require.NoError(t, err)

	records, err := reopened.Records(store.DatasetGG)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ALIMENTO", records[0].Concept)
	assert.Equal(t, 42.5, records[0].Amount)

	segments, err := reopened.Segments()
	require.NoError(t, err)
	assert.Equal(t, []types.Segment{{Label: "A", Weight: 30}}, segments)
}

func TestRecords_UnknownDatasetRejected(t *testing.T) {
	s, _ := openTemp(t)
	_, err := s.Records("nope")
	assert.Error(t, err)
	assert.Error(t, s.SaveRecords("nope", nil))
}

func TestReplaceConcept_MassReplacement(t *testing.T) {
	s, _ := openTemp(t)
	require.NoError(t, s.SaveRecords(store.DatasetAPK, []types.TransactionRecord{
		{ID: 1, Concept: "VIEJO A"},
		{ID: 2, Concept: "VIEJO B"},
		{ID: 3, Concept: "INTACTO"},
	}))

	changed, err := s.ReplaceConcept(store.DatasetAPK, []string{"VIEJO A", "VIEJO B"}, "NUEVO")
	require.NoError(t, err)
	assert.Equal(t, 2, changed)

	records, err := s.Records(store.DatasetAPK)
	require.NoError(t, err)
	assert.Equal(t, "NUEVO", records[0].Concept)
	assert.Equal(t, "NUEVO", records[1].Concept)
	assert.Equal(t, "INTACTO", records[2].Concept)
}

func TestUniqueConceptsAndSegments(t *testing.T) {
	s, _ := openTemp(t)
	require.NoError(t, s.SaveRecords(store.DatasetAPK, []types.TransactionRecord{
		{ID: 1, Concept: "B", Segment: "V2"},
		{ID: 2, Concept: "A", Segment: "V1"},
		{ID: 3, Concept: "B", Segment: ""},
	}))

	concepts, err := s.UniqueConcepts(store.DatasetAPK)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, concepts)

	segments, err := s.UniqueSegments(store.DatasetAPK)
	require.NoError(t, err)
	assert.Equal(t, []string{"V1", "V2"}, segments)
}

func TestSeedSegmentsFromLabels_MergesIntoTable(t *testing.T) {
	s, _ := openTemp(t)
	require.NoError(t, s.SaveSegments([]types.Segment{
		{Label: "V1", Weight: 120},
		{Label: "VIEJA", Weight: 50},
	}))

	require.NoError(t, s.SeedSegmentsFromLabels([]string{"V1", "V2"}))

	segments, err := s.Segments()
	require.NoError(t, err)
	assert.Equal(t, []types.Segment{
		{Label: "V1", Weight: 120},
		{Label: "VIEJA", Weight: 50},
		{Label: "V2", Weight: 0},
	}, segments)
}

func TestSeedSegmentsFromLabels_SecondLedgerKeepsFirst(t *testing.T) {
	s, _ := openTemp(t)

	// First ledger contributes its segments; the user then enters weights.
	require.NoError(t, s.SeedSegmentsFromLabels([]string{"E1", "E2"}))
	require.NoError(t, s.SaveSegments([]types.Segment{
		{Label: "E1", Weight: 40},
		{Label: "E2", Weight: 60},
	}))

	// A second ledger with different segments must not starve the table.
	require.NoError(t, s.SeedSegmentsFromLabels([]string{"A1"}))

	segments, err := s.Segments()
	require.NoError(t, err)
	assert.Equal(t, []types.Segment{
		{Label: "E1", Weight: 40},
		{Label: "E2", Weight: 60},
		{Label: "A1", Weight: 0},
	}, segments)
}

func TestConcepts_CRUD(t *testing.T) {
	s, _ := openTemp(t)

	added, err := s.AddConcept("SUELDOS Y SALARIOS")
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)

	require.NoError(t, s.UpdateConcept(added.ID, "SUELDOS"))

	concepts, err := s.Concepts()
	require.NoError(t, err)
	require.Len(t, concepts, 1)
	assert.Equal(t, "SUELDOS", concepts[0].Text)

	require.NoError(t, s.DeleteConcept(added.ID))
	concepts, err = s.Concepts()
	require.NoError(t, err)
	assert.Empty(t, concepts)

	assert.Error(t, s.UpdateConcept("missing", "X"))
}

func TestMappings_AssignIDsAndTimestamps(t *testing.T) {
	s, _ := openTemp(t)

	require.NoError(t, s.SaveTextMappings([]types.TextConceptMapping{
		{Pattern: "GRANJ", MatchMode: types.MatchPrefix, TargetConcept: "SUELDOS", Scope: types.ScopeEPK, Priority: 1},
	}))
	require.NoError(t, s.SaveConceptMappings([]types.ConceptMapping{
		{AccountCode: "020", TargetConcept: "OBRA CIVIL", Scope: types.ScopeBoth},
	}))

	text, err := s.TextMappings()
	require.NoError(t, err)
	require.Len(t, text, 1)
	assert.NotEmpty(t, text[0].ID)
	assert.NotEmpty(t, text[0].CreatedAt)

	code, err := s.CodeMappings()
	require.NoError(t, err)
	require.Len(t, code, 1)
	assert.NotEmpty(t, code[0].ID)
}

func TestRegisterAccount_UpsertsByCode(t *testing.T) {
	s, _ := openTemp(t)

	require.NoError(t, s.RegisterAccount(types.AccountEntry{Code: "132-020-000-000-00", Name: "OBRA", Family: types.FamilyAPK}))
	require.NoError(t, s.RegisterAccount(types.AccountEntry{Code: "132-020-000-000-00", Name: "OBRA CIVIL", Family: types.FamilyAPK}))
	require.NoError(t, s.RegisterAccount(types.AccountEntry{Code: "133-001-000-000-00", Name: "ALIMENTO", Family: types.FamilyEPK}))

	catalog, err := s.AccountCatalog()
	require.NoError(t, err)
	require.Len(t, catalog, 2)
	assert.Equal(t, "OBRA CIVIL", catalog[0].Name)
}

func TestClear_DropsEverything(t *testing.T) {
	s, _ := openTemp(t)
	require.NoError(t, s.SaveRecords(store.DatasetAPK, []types.TransactionRecord{{ID: 1}}))
	require.NoError(t, s.SaveSegments([]types.Segment{{Label: "A", Weight: 1}}))

	require.NoError(t, s.Clear())

	records, err := s.Records(store.DatasetAPK)
	require.NoError(t, err)
	assert.Empty(t, records)
	segments, err := s.Segments()
	require.NoError(t, err)
	assert.Empty(t, segments)
}
