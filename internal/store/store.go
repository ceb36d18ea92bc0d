package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"lead-intake/internal/models"
)

var (
	ErrNotFound    = errors.New("RECORD_NOT_FOUND")
	ErrDuplicateID = errors.New("DUPLICATE_RECORD_ID")
)

// Filter narrows one collection. Empty fields match everything.
type Filter struct {
	Status string
	Search string
}

// Store holds the three collections. Every write touches a single record and
// is atomic for that record.
type Store interface {
	Insert(ctx context.Context, rec models.Record) error
	Get(ctx context.Context, category models.Category, id string) (models.Record, error)
	Find(ctx context.Context, category models.Category, filter Filter) ([]models.Record, error)
	// AppendStatus sets status and updatedAt and appends entry to the history
	// in one step, returning the updated record.
	AppendStatus(ctx context.Context, category models.Category, id string, entry models.StatusEntry) (models.Record, error)
}

// MatchesSearch is a case-insensitive substring match over id, name, email and phone.
func MatchesSearch(rec models.Record, search string) bool {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return true
	}
	c := rec.Contact()
	for _, hay := range []string{rec.RecordID(), c.Name, c.Email, c.Phone} {
		if strings.Contains(strings.ToLower(hay), needle) {
			return true
		}
	}
	return false
}

func decode(category models.Category, doc []byte) (models.Record, error) {
	rec, err := models.NewEmptyRecord(category)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(doc, rec); err != nil {
		return nil, fmt.Errorf("decode %s record: %w", category, err)
	}
	return rec, nil
}
