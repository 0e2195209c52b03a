// Package fetch resolves one lookup operation to a choice list. Failures at
// this boundary always degrade to an empty list; staleness is the engine's
// concern, not the fetcher's.
package fetch

import (
	"context"

	"github.com/onceinteractive/cascade/pkg/types"
)

// Fetcher resolves a lookup operation against its filter values. A nil or
// empty result is the universal fallback; implementations never return errors
// past this boundary and never retry; the user's next selection supersedes
// any in-flight request.
type Fetcher interface {
	Fetch(ctx context.Context, operation string, filters map[string]string) []types.Choice
}

// Func adapts a plain function to the Fetcher interface.
type Func func(ctx context.Context, operation string, filters map[string]string) []types.Choice

// Fetch implements Fetcher.
func (f Func) Fetch(ctx context.Context, operation string, filters map[string]string) []types.Choice {
	return f(ctx, operation, filters)
}

// MissingFilter reports whether any required filter value is empty. An empty
// filter means "nothing selected upstream yet": the lookup must short-circuit
// to an empty result without a remote call.
func MissingFilter(filters map[string]string) bool {
	for _, v := range filters {
		if v == "" {
			return true
		}
	}
	return false
}
