package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-intake/internal/common/config"
	"lead-intake/internal/common/errors"
	"lead-intake/internal/common/logger"
)

// ==========================
// Fake Keycloak
// ==========================

func newFakeKeycloak(t *testing.T, tokens map[string]TokenInfo) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/realms/leads/protocol/openid-connect/token/introspect", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "admin-console", r.PostForm.Get("client_id"))
		assert.Equal(t, "access_token", r.PostForm.Get("token_type_hint"))

		if r.PostForm.Get("token") == "explode" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		info, ok := tokens[r.PostForm.Get("token")]
		if !ok {
			info = TokenInfo{Active: false}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(info)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func keycloakAuthConfig() config.AuthConfig {
	cfg := config.AuthConfig{
		Mode:        config.AuthModeKeycloak,
		StaffEmails: []string{" Admin@Leads.in ", "ops@leads.in"},
	}
	return cfg
}

// ==========================
// KeycloakClient
// ==========================

func TestValidateToken(t *testing.T) {
	srv := newFakeKeycloak(t, map[string]TokenInfo{
		"good": {Active: true, Email: "admin@leads.in", Sub: "u-1"},
	})
	kc := NewKeycloakClient(srv.URL+"/", "leads", "admin-console", "secret")

	info, err := kc.ValidateToken(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "u-1", info.Sub)

	_, err = kc.ValidateToken(context.Background(), "expired")
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnauthorized))

	_, err = kc.ValidateToken(context.Background(), "explode")
	assert.True(t, errors.HasCode(err, errors.ErrCodeExternalService))
}

func TestPrincipalEmail(t *testing.T) {
	tests := []struct {
		name string
		info TokenInfo
		want string
	}{
		{"email claim", TokenInfo{Email: "A@B.in", Username: "ab"}, "a@b.in"},
		{"preferred username", TokenInfo{PreferredUsername: "ops@leads.in"}, "ops@leads.in"},
		{"plain username", TokenInfo{Username: "ops"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.PrincipalEmail())
		})
	}
}

// ==========================
// StaffGate
// ==========================

func TestAuthorize_Keycloak(t *testing.T) {
	srv := newFakeKeycloak(t, map[string]TokenInfo{
		"staff":    {Active: true, Email: "admin@leads.in"},
		"customer": {Active: true, Email: "someone@gmail.com"},
	})
	gate := NewStaffGate(keycloakAuthConfig(), NewKeycloakClient(srv.URL, "leads", "admin-console", "secret"), logger.NewTestLogger(t))

	p, err := gate.Authorize(context.Background(), "Bearer staff")
	require.NoError(t, err)
	assert.Equal(t, "admin@leads.in", p.Email)

	_, err = gate.Authorize(context.Background(), "Bearer customer")
	assert.True(t, errors.HasCode(err, errors.ErrCodeForbidden))

	_, err = gate.Authorize(context.Background(), "Bearer nope")
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnauthorized))

	_, err = gate.Authorize(context.Background(), "Basic abc")
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnauthorized))

	_, err = gate.Authorize(context.Background(), "")
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnauthorized))
}

func TestAuthorize_StaticToken(t *testing.T) {
	gate := NewStaffGate(config.AuthConfig{Mode: config.AuthModeStaticToken, StaticToken: "s3cret"}, nil, logger.NewTestLogger(t))

	_, err := gate.Authorize(context.Background(), "Bearer s3cret")
	require.NoError(t, err)

	_, err = gate.Authorize(context.Background(), "Bearer s3cre")
	assert.True(t, errors.HasCode(err, errors.ErrCodeUnauthorized))
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := newFakeKeycloak(t, map[string]TokenInfo{
		"staff":    {Active: true, Email: "ops@leads.in"},
		"customer": {Active: true, Email: "someone@gmail.com"},
	})
	gate := NewStaffGate(keycloakAuthConfig(), NewKeycloakClient(srv.URL, "leads", "admin-console", "secret"), logger.NewTestLogger(t))

	r := gin.New()
	r.GET("/admin", gate.Middleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"email": c.GetString(ContextKeyStaffEmail)})
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"staff", "Bearer staff", http.StatusOK},
		{"not staff", "Bearer customer", http.StatusForbidden},
		{"inactive token", "Bearer revoked", http.StatusUnauthorized},
		{"no header", "", http.StatusUnauthorized},
		{"keycloak down", "Bearer explode", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			if tt.status == http.StatusOK {
				assert.Equal(t, "ops@leads.in", body["email"])
			} else {
				assert.Equal(t, false, body["success"])
			}
		})
	}
}
