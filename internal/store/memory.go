package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"lead-intake/internal/models"
)

// MemoryStore keeps encoded documents per collection. Records handed out are
// fresh copies, so callers can never mutate stored state.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[models.Category]map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	docs := make(map[models.Category]map[string][]byte, len(models.Categories))
	for _, c := range models.Categories {
		docs[c] = make(map[string][]byte)
	}
	return &MemoryStore{docs: docs}
}

func (s *MemoryStore) Insert(ctx context.Context, rec models.Record) error {
	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coll, ok := s.docs[rec.RecordCategory()]
	if !ok {
		return fmt.Errorf("unknown category %q", rec.RecordCategory())
	}
	if _, exists := coll[rec.RecordID()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, rec.RecordID())
	}
	coll[rec.RecordID()] = doc
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, category models.Category, id string) (models.Record, error) {
	s.mu.RLock()
	doc, ok := s.docs[category][id]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, category, id)
	}
	return decode(category, doc)
}

func (s *MemoryStore) Find(ctx context.Context, category models.Category, filter Filter) ([]models.Record, error) {
	s.mu.RLock()
	docs := make([][]byte, 0, len(s.docs[category]))
	for _, doc := range s.docs[category] {
		docs = append(docs, doc)
	}
	s.mu.RUnlock()

	out := make([]models.Record, 0, len(docs))
	for _, doc := range docs {
		rec, err := decode(category, doc)
		if err != nil {
			return nil, err
		}
		if filter.Status != "" && rec.RecordMeta().Status != filter.Status {
			continue
		}
		if !MatchesSearch(rec, filter.Search) {
			continue
		}
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].RecordMeta().CreatedAt, out[j].RecordMeta().CreatedAt
		if !a.Equal(b) {
			return a.After(b)
		}
		return out[i].RecordID() < out[j].RecordID()
	})
	return out, nil
}

func (s *MemoryStore) AppendStatus(ctx context.Context, category models.Category, id string, entry models.StatusEntry) (models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[category][id]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, category, id)
	}

	rec, err := decode(category, doc)
	if err != nil {
		return nil, err
	}
	rec.RecordMeta().Apply(entry)

	updated, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	s.docs[category][id] = updated
	return rec, nil
}
