package source

import (
	"strings"

	"github.com/samber/lo"

	"lead-intake/internal/common/config"
	"lead-intake/internal/models"
)

const (
	DefaultSource = "website"
	HeaderName    = "X-Lead-Source"
)

// Canonical trims and lowercases a raw source tag without applying a default.
func Canonical(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Policy attributes records to front-ends and decides which front-end may
// submit which category.
type Policy struct {
	defaultSource string
	known         []string
	blocked       map[string][]models.Category
}

func NewPolicy(cfg config.SourcesConfig) *Policy {
	p := &Policy{
		defaultSource: Canonical(cfg.Default),
		known:         lo.Map(cfg.Known, func(s string, _ int) string { return Canonical(s) }),
		blocked:       make(map[string][]models.Category, len(cfg.Blocked)),
	}
	if p.defaultSource == "" {
		p.defaultSource = DefaultSource
	}
	for src, cats := range cfg.Blocked {
		key := Canonical(src)
		for _, c := range cats {
			if cat, err := models.ParseCategory(c); err == nil {
				p.blocked[key] = append(p.blocked[key], cat)
			}
		}
	}
	return p
}

// Default is the policy with no blocks and the stock default source.
func Default() *Policy {
	return NewPolicy(config.SourcesConfig{})
}

func (p *Policy) DefaultSource() string { return p.defaultSource }

// Resolve canonicalizes the first non-blank candidate, falling back to the default.
func (p *Policy) Resolve(candidates ...string) string {
	for _, c := range candidates {
		if s := Canonical(c); s != "" {
			return s
		}
	}
	return p.defaultSource
}

// Known reports whether the source is a registered front-end. An empty
// registry accepts every source.
func (p *Policy) Known(source string) bool {
	return len(p.known) == 0 || lo.Contains(p.known, Canonical(source))
}

func (p *Policy) Allows(source string, category models.Category) bool {
	return !lo.Contains(p.blocked[p.Resolve(source)], category)
}
