package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"lead-intake/internal/common/config"
	"lead-intake/internal/common/errors"
	"lead-intake/internal/common/logger"
)

// ContextKeyStaffEmail is the gin context key the middleware sets on success.
const ContextKeyStaffEmail = "staffEmail"

// TokenValidator is satisfied by KeycloakClient.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*TokenInfo, error)
}

type Principal struct {
	Email string
}

// StaffGate answers "is the caller staff" for the admin routes.
type StaffGate struct {
	mode        string
	staticToken string
	staff       map[string]struct{}
	validator   TokenValidator
	logger      logger.Logger
}

// NewStaffGate builds the gate from the loaded auth settings. validator may be
// nil in static_token mode.
func NewStaffGate(cfg config.AuthConfig, validator TokenValidator, log logger.Logger) *StaffGate {
	emails := lo.FilterMap(cfg.StaffEmails, func(e string, _ int) (string, bool) {
		e = strings.ToLower(strings.TrimSpace(e))
		return e, e != ""
	})
	return &StaffGate{
		mode:        cfg.Mode,
		staticToken: cfg.StaticToken,
		staff:       lo.SliceToMap(emails, func(e string) (string, struct{}) { return e, struct{}{} }),
		validator:   validator,
		logger:      log.WithFields(map[string]interface{}{"component": "staff-gate"}),
	}
}

// Authorize checks an Authorization header value.
func (g *StaffGate) Authorize(ctx context.Context, header string) (Principal, error) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return Principal{}, errors.NewUnauthorizedError("missing bearer token")
	}
	token := strings.TrimSpace(parts[1])

	switch g.mode {
	case config.AuthModeStaticToken:
		if g.staticToken == "" || subtle.ConstantTimeCompare([]byte(token), []byte(g.staticToken)) != 1 {
			return Principal{}, errors.NewUnauthorizedError("invalid token")
		}
		return Principal{Email: "static-token"}, nil

	case config.AuthModeKeycloak:
		if g.validator == nil {
			return Principal{}, errors.NewInternalError(errNoValidator)
		}
		info, err := g.validator.ValidateToken(ctx, token)
		if err != nil {
			return Principal{}, err
		}
		email := info.PrincipalEmail()
		if _, ok := g.staff[email]; !ok || email == "" {
			return Principal{}, errors.NewForbiddenError("caller is not on the staff list")
		}
		return Principal{Email: email}, nil

	default:
		return Principal{}, errors.NewInternalError(errUnknownMode)
	}
}

// Middleware rejects non-staff callers with 401 or 403.
func (g *StaffGate) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := g.Authorize(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			status := errors.HTTPStatus(err)
			if status != http.StatusUnauthorized && status != http.StatusForbidden {
				g.logger.Error("staff check failed", map[string]interface{}{"error": err.Error()})
				status = http.StatusUnauthorized
			}
			c.JSON(status, gin.H{"success": false, "error": http.StatusText(status)})
			c.Abort()
			return
		}

		c.Set(ContextKeyStaffEmail, principal.Email)
		c.Next()
	}
}
