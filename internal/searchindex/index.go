package searchindex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"lead-intake/internal/common/logger"
	"lead-intake/internal/feed"
	"lead-intake/internal/models"
)

const DefaultIndex = "lead-feed"

var ErrSearchIndexFailed = errors.New("SEARCH_INDEX_FAILED")

// Indexer mirrors feed rows somewhere searchable. Mirroring is best effort.
type Indexer interface {
	Upsert(ctx context.Context, rec models.Record) error
}

// Document is the indexed shape of a feed row.
type Document struct {
	feed.Row
	SearchText string `json:"searchText"`
}

// Elasticsearch upserts one document per record, keyed by category and id.
type Elasticsearch struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewElasticsearch(client *elasticsearch.Client, index string, log logger.Logger) *Elasticsearch {
	if index == "" {
		index = DefaultIndex
	}
	return &Elasticsearch{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "searchindex", "index": index}),
	}
}

func DocumentID(rec models.Record) string {
	return string(rec.RecordCategory()) + ":" + rec.RecordID()
}

func NewDocument(rec models.Record) Document {
	row := feed.Project(rec)
	return Document{
		Row:        row,
		SearchText: strings.ToLower(strings.Join([]string{row.ID, row.Name, row.ContactEmail, row.ContactPhone}, " ")),
	}
}

func (e *Elasticsearch) Upsert(ctx context.Context, rec models.Record) error {
	body, err := json.Marshal(NewDocument(rec))
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrSearchIndexFailed, err)
	}

	res, err := e.client.Index(
		e.index,
		bytes.NewReader(body),
		e.client.Index.WithDocumentID(DocumentID(rec)),
		e.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSearchIndexFailed, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("%w: %s", ErrSearchIndexFailed, errorReason(res))
	}

	e.logger.Debug("record mirrored", map[string]interface{}{"id": rec.RecordID()})
	return nil
}

func errorReason(res *esapi.Response) string {
	var payload struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	raw, _ := io.ReadAll(res.Body)
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error.Type != "" {
		return fmt.Sprintf("%s: %s: %s", res.Status(), payload.Error.Type, payload.Error.Reason)
	}
	return res.Status()
}

// Nop never indexes.
type Nop struct{}

func (Nop) Upsert(context.Context, models.Record) error { return nil }
