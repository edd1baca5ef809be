// Package catalog supplies candidate products to the engine: a SQLite store,
// an HTTP client for a remote catalog service, and a Redis-backed cache.
package catalog

import (
	"context"
	"errors"

	"github.com/hazyhaar/wardrobe/pkg/scoring"
)

// Filter parameter keys understood by every Fetcher.
const (
	ParamItemTypes      = "item_types"
	ParamColors         = "colors"
	ParamPriceBand      = "price_band"
	ParamPriceMin       = "price_min"
	ParamPriceMax       = "price_max"
	ParamOccasion       = "occasion"
	ParamSeason         = "season"
	ParamQuality        = "quality"
	ParamCompleteOutfit = "complete_outfit"
)

// ErrUnavailable is returned when the catalog cannot be reached.
var ErrUnavailable = errors.New("catalog unavailable")

// Fetcher returns the candidates matching a set of filter parameters.
type Fetcher interface {
	Fetch(ctx context.Context, params map[string]string) ([]scoring.Candidate, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, params map[string]string) ([]scoring.Candidate, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, params map[string]string) ([]scoring.Candidate, error) {
	return f(ctx, params)
}

// Static returns a Fetcher that ignores params and returns candidates.
func Static(candidates []scoring.Candidate) Fetcher {
	return FetcherFunc(func(context.Context, map[string]string) ([]scoring.Candidate, error) {
		return candidates, nil
	})
}
