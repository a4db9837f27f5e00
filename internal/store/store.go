// =============================================================================
// Contpaq Normalizer - Process Store
// =============================================================================
//
// This module is the durable key-value collaborator behind the pipeline: one
// JSON file holding every persisted table of the process, mirroring the
// browser-era storage layout of the source system:
//
//   - transaction record sets, partitioned by data group (apk / epk / gg /
//     prorrateo)
//   - the segment weight table
//   - the concept list
//   - the concept-mapping and text-mapping tables
//   - the account catalog
//
// The contract is get-after-set consistency within one process: every write
// goes through the in-memory copy and is flushed to disk before returning.
// Writes use a temp-file rename so a crash never leaves a half-written store.
// Read/write failures are propagated to the caller as fatal for that
// operation; losing the mapping tables silently would corrupt concept
// resolution, which is worse than stopping.
//
// The store implements the mapping.Store and normalizer.CatalogRegistrar
// collaborator interfaces.
//
// =============================================================================

package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ledgertools/contpaq-normalizer/internal/types"
)

// =============================================================================
// DATASET KEYS
// =============================================================================

// Dataset keys partition the stored record sets. Family partitions use the
// family name; the general-expense and proration sets have fixed keys.
const (
	DatasetAPK       = "apk"
	DatasetEPK       = "epk"
	DatasetGG        = "gg"
	DatasetProrrateo = "prorrateo"
)

// DatasetKeys lists every valid dataset key, in display order.
var DatasetKeys = []string{DatasetAPK, DatasetEPK, DatasetGG, DatasetProrrateo}

// ValidDataset reports whether key names a stored dataset.
func ValidDataset(key string) bool {
	for _, k := range DatasetKeys {
		if k == key {
			return true
		}
	}
	return false
}

// =============================================================================
// FILE LAYOUT
// =============================================================================

// fileData is the on-disk JSON shape of the store.
type fileData struct {
	Datasets        map[string][]types.TransactionRecord `json:"datasets"`
	Segments        []types.Segment                      `json:"segments"`
	Concepts        []types.Concept                      `json:"concepts"`
	ConceptMappings []types.ConceptMapping               `json:"conceptMappings"`
	TextMappings    []types.TextConceptMapping           `json:"textMappings"`
	AccountCatalog  []types.AccountEntry                 `json:"accountCatalog"`
}

func emptyFileData() fileData {
	return fileData{Datasets: make(map[string][]types.TransactionRecord)}
}

// =============================================================================
// STORE
// =============================================================================

// Store is the JSON-file process store. Safe for concurrent use: the ingest
// command persists from several goroutines at once.
type Store struct {
	mu   sync.RWMutex
	path string
	data fileData

	// now is injectable for deterministic timestamps in tests.
	now func() time.Time
}

// Open loads the store at path, creating an empty one if the file does not
// exist yet.
func Open(path string) (*Store, error) {
	s := &Store{
		path: path,
		data: emptyFileData(),
		now:  time.Now,
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store file %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("failed to parse store file %s: %w", path, err)
	}
	if s.data.Datasets == nil {
		s.data.Datasets = make(map[string][]types.TransactionRecord)
	}
	return s, nil
}

// persist flushes the in-memory copy to disk. Callers hold the write lock.
func (s *Store) persist() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}

// =============================================================================
// RECORD DATASETS
// =============================================================================

// SaveRecords replaces the record set of one dataset partition.
func (s *Store) SaveRecords(key string, records []types.TransactionRecord) error {
	if !ValidDataset(key) {
		return fmt.Errorf("unknown dataset %q", key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Datasets[key] = append([]types.TransactionRecord(nil), records...)
	return s.persist()
}

// Records returns a copy of one dataset partition. Missing partitions are
// empty, not errors.
func (s *Store) Records(key string) ([]types.TransactionRecord, error) {
	if !ValidDataset(key) {
		return nil, fmt.Errorf("unknown dataset %q", key)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.TransactionRecord(nil), s.data.Datasets[key]...), nil
}

// ReplaceConcept rewrites the concept of every record in a dataset whose
// current concept is one of from. Returns how many records changed. This is
// the mass-replacement edit of the source system's data table.
func (s *Store) ReplaceConcept(key string, from []string, to string) (int, error) {
	if !ValidDataset(key) {
		return 0, fmt.Errorf("unknown dataset %q", key)
	}
	match := make(map[string]bool, len(from))
	for _, f := range from {
		match[f] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	records := s.data.Datasets[key]
	for i := range records {
		if match[records[i].Concept] {
			records[i].Concept = to
			changed++
		}
	}
	if changed == 0 {
		return 0, nil
	}
	return changed, s.persist()
}

// UniqueConcepts returns the sorted distinct concepts of one dataset.
func (s *Store) UniqueConcepts(key string) ([]string, error) {
	records, err := s.Records(key)
	if err != nil {
		return nil, err
	}
	return uniqueSorted(records, func(r types.TransactionRecord) string { return r.Concept }), nil
}

// UniqueSegments returns the sorted distinct segment labels of one dataset.
func (s *Store) UniqueSegments(key string) ([]string, error) {
	records, err := s.Records(key)
	if err != nil {
		return nil, err
	}
	return uniqueSorted(records, func(r types.TransactionRecord) string { return r.Segment }), nil
}

func uniqueSorted(records []types.TransactionRecord, field func(types.TransactionRecord) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		v := field(r)
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// =============================================================================
// SEGMENT TABLE
// =============================================================================

// SaveSegments replaces the segment weight table.
func (s *Store) SaveSegments(segments []types.Segment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Segments = append([]types.Segment(nil), segments...)
	return s.persist()
}

// Segments returns a copy of the segment weight table.
func (s *Store) Segments() ([]types.Segment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Segment(nil), s.data.Segments...), nil
}

// SeedSegmentsFromLabels merges the given labels into the segment table.
// Existing entries keep their position and weight; labels not yet in the
// table are appended with weight zero for the user to fill in. Ingesting one
// ledger must never drop segments (or weights) contributed by another.
func (s *Store) SeedSegmentsFromLabels(labels []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	known := make(map[string]bool, len(s.data.Segments))
	for _, seg := range s.data.Segments {
		known[seg.Label] = true
	}

	for _, label := range labels {
		if known[label] {
			continue
		}
		known[label] = true
		s.data.Segments = append(s.data.Segments, types.Segment{Label: label, Weight: 0})
	}
	return s.persist()
}

// =============================================================================
// CONCEPT LIST
// =============================================================================

// Concepts returns the user-managed concept list.
func (s *Store) Concepts() ([]types.Concept, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Concept(nil), s.data.Concepts...), nil
}

// AddConcept appends a new concept and returns it.
func (s *Store) AddConcept(text string) (types.Concept, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	concept := types.Concept{
		ID:        uuid.NewString(),
		Text:      text,
		CreatedAt: s.now().UTC().Format(time.RFC3339),
	}
	s.data.Concepts = append(s.data.Concepts, concept)
	return concept, s.persist()
}

// UpdateConcept rewrites the text of an existing concept.
func (s *Store) UpdateConcept(id, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Concepts {
		if s.data.Concepts[i].ID == id {
			s.data.Concepts[i].Text = text
			return s.persist()
		}
	}
	return fmt.Errorf("concept %s not found", id)
}

// DeleteConcept removes a concept by ID. Removing a missing concept is a
// no-op, matching the source system.
func (s *Store) DeleteConcept(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.data.Concepts[:0]
	for _, c := range s.data.Concepts {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	s.data.Concepts = kept
	return s.persist()
}

// =============================================================================
// MAPPING TABLES
// =============================================================================

// TextMappings implements mapping.Store.
func (s *Store) TextMappings() ([]types.TextConceptMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.TextConceptMapping(nil), s.data.TextMappings...), nil
}

// CodeMappings implements mapping.Store.
func (s *Store) CodeMappings() ([]types.ConceptMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.ConceptMapping(nil), s.data.ConceptMappings...), nil
}

// SaveTextMappings replaces the text mapping table, assigning IDs and
// timestamps to entries that lack them (seed files usually do).
func (s *Store) SaveTextMappings(mappings []types.TextConceptMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp := s.now().UTC().Format(time.RFC3339)
	next := append([]types.TextConceptMapping(nil), mappings...)
	for i := range next {
		if next[i].ID == "" {
			next[i].ID = uuid.NewString()
		}
		if next[i].CreatedAt == "" {
			next[i].CreatedAt = stamp
		}
		next[i].UpdatedAt = stamp
	}
	s.data.TextMappings = next
	return s.persist()
}

// SaveConceptMappings replaces the account-code mapping table, assigning IDs
// and timestamps to entries that lack them.
func (s *Store) SaveConceptMappings(mappings []types.ConceptMapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stamp := s.now().UTC().Format(time.RFC3339)
	next := append([]types.ConceptMapping(nil), mappings...)
	for i := range next {
		if next[i].ID == "" {
			next[i].ID = uuid.NewString()
		}
		if next[i].CreatedAt == "" {
			next[i].CreatedAt = stamp
		}
		next[i].UpdatedAt = stamp
	}
	s.data.ConceptMappings = next
	return s.persist()
}

// =============================================================================
// ACCOUNT CATALOG
// =============================================================================

// RegisterAccount implements normalizer.CatalogRegistrar: upsert by code,
// keeping the latest name seen for a code.
func (s *Store) RegisterAccount(entry types.AccountEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.AccountCatalog {
		if s.data.AccountCatalog[i].Code == entry.Code {
			if s.data.AccountCatalog[i] == entry {
				return nil
			}
			s.data.AccountCatalog[i] = entry
			return s.persist()
		}
	}
	s.data.AccountCatalog = append(s.data.AccountCatalog, entry)
	return s.persist()
}

// AccountCatalog returns a copy of the account catalog.
func (s *Store) AccountCatalog() ([]types.AccountEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.AccountEntry(nil), s.data.AccountCatalog...), nil
}

// =============================================================================
// MAINTENANCE
// =============================================================================

// Clear drops every stored table and persists the empty layout.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = emptyFileData()
	return s.persist()
}
