package searchindex

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-intake/internal/common/logger"
	"lead-intake/internal/models"
)

type captured struct {
	method string
	path   string
	body   map[string]interface{}
}

func newFakeElasticsearch(t *testing.T, status int, reply string) (*elasticsearch.Client, *captured) {
	t.Helper()
	got := &captured{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got.body)

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return client, got
}

func record() *models.ConsultancyRequest {
	return &models.ConsultancyRequest{
		RequestID: "CON-261015-0001",
		ConsultancySubmission: models.ConsultancySubmission{
			FullName: "Meera Nair", PhoneNumber: "9988776655", Email: "Meera@Gmail.com", InterestedIn: "tax planning",
		},
		Meta: models.NewMeta(models.CategoryConsultancy, "website", time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)),
	}
}

func TestElasticsearch_Upsert(t *testing.T) {
	client, got := newFakeElasticsearch(t, http.StatusCreated, `{"result":"created"}`)
	idx := NewElasticsearch(client, "", logger.NewTestLogger(t))

	require.NoError(t, idx.Upsert(context.Background(), record()))

	assert.Equal(t, http.MethodPut, got.method)
	assert.Equal(t, "/lead-feed/_doc/consultancy:CON-261015-0001", got.path)
	assert.Equal(t, "CON-261015-0001", got.body["id"])
	assert.Equal(t, "consultancy", got.body["category"])
	assert.Equal(t, "pending", got.body["status"])
	assert.Equal(t, "con-261015-0001 meera nair meera@gmail.com 9988776655", got.body["searchText"])
}

func TestElasticsearch_UpsertError(t *testing.T) {
	client, _ := newFakeElasticsearch(t, http.StatusBadRequest,
		`{"error":{"type":"mapper_parsing_exception","reason":"failed to parse field [createdAt]"},"status":400}`)
	idx := NewElasticsearch(client, "leads", logger.NewTestLogger(t))

	err := idx.Upsert(context.Background(), record())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSearchIndexFailed))
	assert.Contains(t, err.Error(), "mapper_parsing_exception")
}
