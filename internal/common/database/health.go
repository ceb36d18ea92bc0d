package database

import (
	"context"
	"fmt"
)

// Pinger is a dependency the readiness probe checks.
type Pinger interface {
	Name() string
	Ping(ctx context.Context) error
}

// PingAll returns one entry per dependency: "ok" or the failure text. The
// second result is false when any dependency failed.
func PingAll(ctx context.Context, deps ...Pinger) (map[string]string, bool) {
	results := make(map[string]string, len(deps))
	healthy := true
	for _, d := range deps {
		if d == nil {
			continue
		}
		if err := d.Ping(ctx); err != nil {
			results[d.Name()] = fmt.Sprintf("error: %v", err)
			healthy = false
			continue
		}
		results[d.Name()] = "ok"
	}
	return results, healthy
}
