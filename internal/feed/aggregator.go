package feed

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"

	"lead-intake/internal/common/config"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/common/metrics"
	"lead-intake/internal/common/observability"
	"lead-intake/internal/models"
	"lead-intake/internal/source"
	"lead-intake/internal/store"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

var ErrFeedQueryFailed = errors.New("FEED_QUERY_FAILED")

// Query selects feed rows. Empty fields match everything.
type Query struct {
	Status   string
	Category models.Category
	Search   string
	Source   string
	Page     int
	PageSize int
}

type Stats struct {
	Total       int             `json:"total"`
	Pending     int             `json:"pending"`
	Reviewing   int             `json:"reviewing"`
	Approved    int             `json:"approved"`
	Rejected    int             `json:"rejected"`
	Contacted   int             `json:"contacted"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type Page struct {
	Rows       []Row      `json:"applications"`
	Pagination Pagination `json:"pagination"`
	Stats      Stats      `json:"stats"`
}

// Aggregator merges the three collections into one paginated, newest-first feed.
type Aggregator struct {
	store           store.Store
	defaultPageSize int
	maxPageSize     int
	logger          logger.Logger
}

func NewAggregator(st store.Store, cfg config.FeedConfig, log logger.Logger) *Aggregator {
	a := &Aggregator{
		store:           st,
		defaultPageSize: cfg.DefaultPageSize,
		maxPageSize:     cfg.MaxPageSize,
		logger:          log.WithFields(map[string]interface{}{"component": "feed"}),
	}
	if a.defaultPageSize < 1 {
		a.defaultPageSize = DefaultPageSize
	}
	if a.maxPageSize < 1 {
		a.maxPageSize = MaxPageSize
	}
	return a
}

func (a *Aggregator) List(ctx context.Context, q Query) (*Page, error) {
	ctx, span := observability.StartSpan(ctx, "feed.List",
		attribute.String("status", q.Status),
		attribute.String("category", string(q.Category)),
	)
	defer span.End()

	categories := models.Categories
	if q.Category != "" {
		categories = []models.Category{q.Category}
	}

	p := pool.NewWithResults[[]Row]().WithContext(ctx).WithCancelOnError()
	for _, cat := range categories {
		cat := cat
		p.Go(func(ctx context.Context) ([]Row, error) {
			recs, err := a.store.Find(ctx, cat, store.Filter{Status: q.Status, Search: q.Search})
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrFeedQueryFailed, cat, err)
			}
			return lo.Map(recs, func(r models.Record, _ int) Row { return Project(r) }), nil
		})
	}
	batches, err := p.Wait()
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	rows := lo.Flatten(batches)
	stats := computeStats(rows)

	if src := source.Canonical(q.Source); src != "" {
		rows = lo.Filter(rows, func(r Row, _ int) bool { return r.Source == src })
	}
	SortRows(rows)
	metrics.FeedRows.Observe(float64(len(rows)))

	page, pageSize := a.clamp(q.Page, q.PageSize)
	total := len(rows)
	totalPages := (total + pageSize - 1) / pageSize

	// Compare pages before multiplying; page*pageSize can overflow.
	pageRows := []Row{}
	if page <= totalPages {
		start := (page - 1) * pageSize
		pageRows = rows[start:min(start+pageSize, total)]
	}

	a.logger.Debug("feed listed", map[string]interface{}{
		"matched":  total,
		"returned": len(pageRows),
		"page":     page,
	})

	return &Page{
		Rows: pageRows,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
		},
		Stats: stats,
	}, nil
}

func (a *Aggregator) clamp(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = a.defaultPageSize
	}
	if pageSize > a.maxPageSize {
		pageSize = a.maxPageSize
	}
	return page, pageSize
}

// SortRows orders newest first. Ties fall back to category order, then id.
func SortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		if a.Category != b.Category {
			return a.Category.Rank() < b.Category.Rank()
		}
		return a.ID < b.ID
	})
}

func computeStats(rows []Row) Stats {
	s := Stats{Total: len(rows), TotalAmount: decimal.Zero}
	for _, r := range rows {
		switch r.Status {
		case models.StatusPending:
			s.Pending++
		case "reviewing", "in-review":
			s.Reviewing++
		case "approved", "verified":
			s.Approved++
		case "rejected":
			s.Rejected++
		case "contacted":
			s.Contacted++
		}
		if r.Category == models.CategoryLoan && r.Amount != nil {
			s.TotalAmount = s.TotalAmount.Add(*r.Amount)
		}
	}
	return s
}
