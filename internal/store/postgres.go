package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"lead-intake/internal/common/logger"
	"lead-intake/internal/models"
)

const uniqueViolation = "23505"

var tables = map[models.Category]string{
	models.CategoryLoan:        "loan_applications",
	models.CategoryInsurance:   "insurance_applications",
	models.CategoryConsultancy: "consultancy_requests",
}

// Table returns the collection backing a category.
func Table(category models.Category) (string, error) {
	t, ok := tables[category]
	if !ok {
		return "", fmt.Errorf("unknown category %q", category)
	}
	return t, nil
}

// PostgresStore keeps each record as one JSONB document with the filterable
// fields lifted into columns. The status history lives inside the document.
type PostgresStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewPostgresStore(db *sql.DB, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "postgres-store"}),
	}
}

func (s *PostgresStore) Insert(ctx context.Context, rec models.Record) error {
	table, err := Table(rec.RecordCategory())
	if err != nil {
		return err
	}

	doc, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	meta := rec.RecordMeta()
	contact := rec.Contact()
	_, err = s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (
			id, status, source, name, email, phone,
			document, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, table),
		rec.RecordID(),
		meta.Status,
		meta.Source,
		contact.Name,
		contact.Email,
		contact.Phone,
		doc,
		meta.CreatedAt,
		meta.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", ErrDuplicateID, rec.RecordID())
		}
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, category models.Category, id string) (models.Record, error) {
	table, err := Table(category)
	if err != nil {
		return nil, err
	}

	var doc []byte
	err = s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT document FROM %s WHERE id = $1`, table), id).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, category, id)
	}
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", table, err)
	}
	return decode(category, doc)
}

func (s *PostgresStore) Find(ctx context.Context, category models.Category, filter Filter) ([]models.Record, error) {
	table, err := Table(category)
	if err != nil {
		return nil, err
	}

	pattern := ""
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern = "%" + escapeLike(search) + "%"
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT document FROM %s
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = '' OR id ILIKE $2 OR name ILIKE $2 OR email ILIKE $2 OR phone ILIKE $2)
		ORDER BY created_at DESC, id`, table),
		filter.Status,
		pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", table, err)
	}
	defer rows.Close()

	var out []models.Record
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		rec, err := decode(category, doc)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return out, nil
}

// AppendStatus is a single UPDATE: the status column, the document's status
// and updatedAt, and the pushed history entry land together or not at all.
func (s *PostgresStore) AppendStatus(ctx context.Context, category models.Category, id string, entry models.StatusEntry) (models.Record, error) {
	table, err := Table(category)
	if err != nil {
		return nil, err
	}

	pushed, err := json.Marshal([]models.StatusEntry{entry})
	if err != nil {
		return nil, fmt.Errorf("encode status entry: %w", err)
	}
	updatedAt := entry.UpdatedAt.UTC()

	var doc []byte
	err = s.db.QueryRowContext(ctx, fmt.Sprintf(`
		UPDATE %s
		SET status = $2,
		    updated_at = $3,
		    document = jsonb_set(
		        jsonb_set(
		            jsonb_set(document, '{status}', to_jsonb($2::text)),
		            '{updatedAt}', to_jsonb($4::text)),
		        '{statusHistory}', COALESCE(document->'statusHistory', '[]'::jsonb) || $5::jsonb)
		WHERE id = $1
		RETURNING document`, table),
		id,
		entry.Status,
		updatedAt,
		updatedAt.Format(time.RFC3339Nano),
		pushed,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, category, id)
	}
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", table, err)
	}

	s.logger.Debug("status appended", map[string]interface{}{
		"category": category,
		"id":       id,
		"status":   entry.Status,
	})
	return decode(category, doc)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Migrate creates the three collections when they are missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, category := range models.Categories {
		table := tables[category]
		statements := []string{
			fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				status TEXT NOT NULL,
				source TEXT NOT NULL,
				name TEXT NOT NULL DEFAULT '',
				email TEXT NOT NULL DEFAULT '',
				phone TEXT NOT NULL DEFAULT '',
				document JSONB NOT NULL,
				created_at TIMESTAMPTZ NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL
			)`, table),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_status_created_idx ON %s (status, created_at DESC)`, table, table),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_source_idx ON %s (source)`, table, table),
		}
		for _, stmt := range statements {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migrate %s: %w", table, err)
			}
		}
	}
	return nil
}
