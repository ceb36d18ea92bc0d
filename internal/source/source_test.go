package source

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"lead-intake/internal/common/config"
	"lead-intake/internal/models"
)

func TestPolicy_Resolve(t *testing.T) {
	p := Default()

	tests := []struct {
		name       string
		candidates []string
		want       string
	}{
		{"no candidates", nil, "website"},
		{"blank", []string{"   "}, "website"},
		{"canonicalized", []string{"  Partner-Site "}, "partner-site"},
		{"header wins over body", []string{"mobile-app", "website"}, "mobile-app"},
		{"blank header falls through to body", []string{"", "Landing"}, "landing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Resolve(tt.candidates...))
		})
	}
}

func TestPolicy_ConfiguredDefault(t *testing.T) {
	p := NewPolicy(config.SourcesConfig{Default: "Main-Site"})
	assert.Equal(t, "main-site", p.DefaultSource())
	assert.Equal(t, "main-site", p.Resolve(""))
}

func TestPolicy_Allows(t *testing.T) {
	p := NewPolicy(config.SourcesConfig{
		Blocked: map[string][]string{
			"Loans-Portal": {"consultancy", "bogus"},
		},
	})

	assert.False(t, p.Allows("loans-portal", models.CategoryConsultancy))
	assert.False(t, p.Allows(" LOANS-PORTAL ", models.CategoryConsultancy))
	assert.True(t, p.Allows("loans-portal", models.CategoryLoan))
	assert.True(t, p.Allows("website", models.CategoryConsultancy))
	assert.True(t, p.Allows("", models.CategoryConsultancy))
}

func TestPolicy_Known(t *testing.T) {
	assert.True(t, Default().Known("anything"))

	p := NewPolicy(config.SourcesConfig{Known: []string{"Website", "partner-site"}})
	assert.True(t, p.Known("website"))
	assert.True(t, p.Known("PARTNER-SITE"))
	assert.False(t, p.Known("unknown"))
}
