package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-intake/internal/common/auth"
	"lead-intake/internal/common/config"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/feed"
	"lead-intake/internal/idgen"
	"lead-intake/internal/intake"
	"lead-intake/internal/schema"
	"lead-intake/internal/source"
	"lead-intake/internal/store"
	"lead-intake/internal/workflow"
)

const staffToken = "staff-token"

var testNow = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

type testServer struct {
	router *gin.Engine
	store  *store.MemoryStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewTestLogger(t)
	st := store.NewMemoryStore()
	policy := source.NewPolicy(config.SourcesConfig{
		Default: "website",
		Known:   []string{"website", "partner-portal", "insure-site"},
		Blocked: map[string][]string{"insure-site": {"loan"}},
	})

	svc := intake.NewService(st, idgen.NewULIDAllocator(), log,
		intake.WithSourcePolicy(policy),
		intake.WithClock(func() time.Time { return testNow }),
	)
	engine := workflow.NewEngine(st, log, workflow.WithClock(func() time.Time { return testNow.Add(time.Hour) }))
	agg := feed.NewAggregator(st, config.FeedConfig{DefaultPageSize: 20, MaxPageSize: 100}, log)
	gate := auth.NewStaffGate(config.AuthConfig{Mode: config.AuthModeStaticToken, StaticToken: staffToken}, nil, log)

	router := NewRouter(RouterConfig{
		Server:  config.ServerConfig{RequestTimeout: 5000},
		Sources: policy,
		Staff:   gate,
		Logger:  log,
	}, Handlers{
		Intake:   NewIntakeHandler(svc, log),
		Admin:    NewAdminHandler(engine, agg, log),
		Variants: NewVariantHandler(schema.Default()),
		Health:   NewHealthHandler("test"),
	})
	return &testServer{router: router, store: st}
}

func (s *testServer) do(t *testing.T, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

var staff = map[string]string{"Authorization": "Bearer " + staffToken}

const personalLoanBody = `{
	"loanType": "personal",
	"personalInfo": {
		"fullName": "Asha Rao", "mobileNumber": "9876543210", "email": "asha@gmail.com",
		"pincode": "560001", "dob": "1990-05-14", "city": "Bengaluru", "panCard": "abcde1234f"
	},
	"employmentInfo": {"employmentType": "salaried", "monthlyIncome": 85000, "employerName": "Infosys"},
	"loanRequirement": {"loanAmount": 500000, "tenure": 5}
}`

const consultancyBody = `{"fullName": "Meera Nair", "phoneNumber": "9988776655", "interestedIn": "tax planning", "source": "partner-portal"}`

// ==========================
// Intake
// ==========================

func TestSubmitLoan_CreatedAndCanonicalized(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodPost, "/api/v1/loans", personalLoanBody, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, true, body["success"])
	id, _ := body["applicationId"].(string)
	require.True(t, strings.HasPrefix(id, "LN-"), id)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))

	w, body = s.do(t, http.MethodGet, "/api/v1/admin/applications/"+id, "", staff)
	require.Equal(t, http.StatusOK, w.Code)
	app := body["application"].(map[string]interface{})
	assert.Equal(t, "loan", app["type"])
	assert.Equal(t, "pending", app["status"])
	assert.Equal(t, "website", app["source"])
	assert.Equal(t, "ABCDE1234F", app["personalInfo"].(map[string]interface{})["panCard"])

	history := app["statusHistory"].([]interface{})
	require.Len(t, history, 1)
	assert.Equal(t, "System", history[0].(map[string]interface{})["updatedBy"])
}

func TestSubmitLoan_ShortMobileRejected(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodPost, "/api/v1/loans",
		strings.Replace(personalLoanBody, "9876543210", "98765", 1), nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
	errs := body["errors"].([]interface{})
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0], "mobileNumber")

	_, list := s.do(t, http.MethodGet, "/api/v1/admin/applications", "", staff)
	assert.EqualValues(t, 0, list["pagination"].(map[string]interface{})["total"])
}

func TestSubmit_StructuralErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"not json", "/api/v1/consultancy", `hello`},
		{"missing required", "/api/v1/consultancy", `{"fullName": "Meera Nair"}`},
		{"wrong type", "/api/v1/loans", strings.Replace(personalLoanBody, `"tenure": 5`, `"tenure": "five"`, 1)},
		{"unknown loan type", "/api/v1/loans", strings.Replace(personalLoanBody, `"personal"`, `"gold"`, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := s.do(t, http.MethodPost, tt.path, tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, body["errors"])
		})
	}
}

func TestSubmitConsultancy_SourceFromBodyAndHeader(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodPost, "/api/v1/consultancy", consultancyBody, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	id := body["requestId"].(string)
	assert.True(t, strings.HasPrefix(id, "CON-"))

	_, detail := s.do(t, http.MethodGet, "/api/v1/admin/applications/"+id, "", staff)
	assert.Equal(t, "partner-portal", detail["application"].(map[string]interface{})["source"])

	w, body = s.do(t, http.MethodPost, "/api/v1/consultancy", consultancyBody, map[string]string{source.HeaderName: "Website"})
	require.Equal(t, http.StatusCreated, w.Code)
	_, detail = s.do(t, http.MethodGet, "/api/v1/admin/applications/"+body["requestId"].(string), "", staff)
	assert.Equal(t, "website", detail["application"].(map[string]interface{})["source"])
}

func TestSubmit_SourcePolicy(t *testing.T) {
	s := newTestServer(t)

	w, _ := s.do(t, http.MethodPost, "/api/v1/loans", personalLoanBody, map[string]string{source.HeaderName: "insure-site"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/consultancy", consultancyBody, map[string]string{source.HeaderName: "rogue-site"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/consultancy", consultancyBody, map[string]string{source.HeaderName: "insure-site"})
	assert.Equal(t, http.StatusCreated, w.Code)
}

// ==========================
// Admin
// ==========================

func TestAdmin_RequiresStaff(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodGet, "/api/v1/admin/applications", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, body["success"])

	w, _ = s.do(t, http.MethodPatch, "/api/v1/admin/applications/LN-1/status", `{"status":"approved"}`,
		map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdmin_UpdateStatus(t *testing.T) {
	s := newTestServer(t)
	_, created := s.do(t, http.MethodPost, "/api/v1/consultancy", consultancyBody, nil)
	id := created["requestId"].(string)

	w, body := s.do(t, http.MethodPatch, "/api/v1/admin/applications/"+id+"/status",
		`{"status":"contacted","notes":"called back"}`, staff)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	app := body["application"].(map[string]interface{})
	assert.Equal(t, "contacted", app["status"])
	history := app["statusHistory"].([]interface{})
	require.Len(t, history, 2)
	last := history[1].(map[string]interface{})
	assert.Equal(t, "Admin", last["updatedBy"])
	assert.Equal(t, "called back", last["notes"])

	w, body = s.do(t, http.MethodPatch, "/api/v1/admin/applications/"+id+"/status", `{"status":"approved"}`, staff)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, body["error"], "approved")

	w, _ = s.do(t, http.MethodPatch, "/api/v1/admin/applications/"+id+"/status", `{"notes":"no status"}`, staff)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdmin_NotFound(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodGet, "/api/v1/admin/applications/LN-404", "", staff)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, map[string]interface{}{"success": false, "error": "application not found"}, body)

	w, body = s.do(t, http.MethodPatch, "/api/v1/admin/applications/LN-404/status", `{"status":"approved"}`, staff)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "application not found", body["error"])
}

func TestAdmin_List(t *testing.T) {
	s := newTestServer(t)
	for i := 0; i < 3; i++ {
		w, _ := s.do(t, http.MethodPost, "/api/v1/consultancy", consultancyBody, nil)
		require.Equal(t, http.StatusCreated, w.Code)
	}
	w, _ := s.do(t, http.MethodPost, "/api/v1/loans", personalLoanBody, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	w, body := s.do(t, http.MethodGet, "/api/v1/admin/applications?category=consultancy&pageSize=2", "", staff)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["applications"], 2)
	pagination := body["pagination"].(map[string]interface{})
	assert.EqualValues(t, 3, pagination["total"])
	assert.EqualValues(t, 2, pagination["totalPages"])
	stats := body["stats"].(map[string]interface{})
	assert.EqualValues(t, 3, stats["total"])

	w, _ = s.do(t, http.MethodGet, "/api/v1/admin/applications?category=gold", "", staff)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.do(t, http.MethodGet, "/api/v1/admin/applications?page=abc", "", staff)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// ==========================
// Catalogue and probes
// ==========================

func TestVariants(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodGet, "/api/v1/variants", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["variants"], len(schema.Default().Variants()))

	w, body = s.do(t, http.MethodGet, "/api/v1/variants/consultancy", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "consultancy", body["variant"].(map[string]interface{})["key"])

	w, _ = s.do(t, http.MethodGet, "/api/v1/variants/loan-gold", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t)

	w, body := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])

	w, body = s.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", body["status"])
}
