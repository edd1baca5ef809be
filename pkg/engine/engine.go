// Package engine wires the lexicon, extractor, scorer and composer into the
// four entry points the chat layer calls, plus a one-shot Search.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/hazyhaar/wardrobe/pkg/catalog"
	"github.com/hazyhaar/wardrobe/pkg/compose"
	"github.com/hazyhaar/wardrobe/pkg/fuzzy"
	"github.com/hazyhaar/wardrobe/pkg/intent"
	"github.com/hazyhaar/wardrobe/pkg/lexicon"
	"github.com/hazyhaar/wardrobe/pkg/scoring"
)

// Options configures an Engine. The zero value uses the defaults.
type Options struct {
	// FuzzyThreshold overrides fuzzy.DefaultThreshold when in (0, 1].
	FuzzyThreshold float64
	MinFuzzyRunes  int
	// Policy overrides scoring.DefaultPolicy.
	Policy *scoring.Policy
	Logger *slog.Logger
}

// Engine is immutable after New and safe for concurrent use.
type Engine struct {
	lex        *lexicon.Lexicon
	normalizer *intent.Normalizer
	extractor  *intent.Extractor
	scorer     *scoring.Scorer
	composer   *compose.Composer
	logger     *slog.Logger
}

// New builds an Engine over lex.
func New(lex *lexicon.Lexicon, opts Options) (*Engine, error) {
	threshold := fuzzy.DefaultThreshold
	if opts.FuzzyThreshold > 0 && opts.FuzzyThreshold <= 1 {
		threshold = opts.FuzzyThreshold
	}
	policy := scoring.DefaultPolicy()
	if opts.Policy != nil {
		policy = *opts.Policy
	}
	scorer, err := scoring.New(policy, lex)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Engine{
		lex:        lex,
		normalizer: intent.NewNormalizer(lex),
		extractor:  intent.NewExtractor(lex, fuzzy.NewMatcher(threshold), intent.WithMinFuzzyRunes(opts.MinFuzzyRunes)),
		scorer:     scorer,
		composer:   compose.New(lex),
		logger:     logger,
	}, nil
}

// Lexicon returns the engine's lexicon.
func (e *Engine) Lexicon() *lexicon.Lexicon { return e.lex }

// Policy returns the scoring policy in force.
func (e *Engine) Policy() scoring.Policy { return e.scorer.Policy() }

// Analysis is an Intent with the steps that produced it.
type Analysis struct {
	Query       string              `json:"query"`
	Tokens      []string            `json:"tokens"`
	Resolutions []intent.Resolution `json:"resolutions,omitempty"`
	Intent      intent.Intent       `json:"intent"`
}

// Analyze normalizes and extracts raw, keeping the intermediate tokens.
func (e *Engine) Analyze(raw string) Analysis {
	tokens := e.normalizer.Normalize(raw)
	in, res := e.extractor.ExtractDetailed(tokens)
	e.logger.Debug("query analyzed",
		"tokens", len(tokens),
		"resolved", len(res),
		"items", in.ItemTypes,
		"price_band", in.PriceBand,
		"occasion", in.Occasion,
		"season", in.Season,
		"quality", in.Quality,
		"outfit", in.WantsCompleteOutfit,
	)
	return Analysis{Query: raw, Tokens: tokens, Resolutions: res, Intent: in}
}

// AnalyzeQuery returns the Intent of raw. Unrecognized text yields an empty
// Intent, never an error.
func (e *Engine) AnalyzeQuery(raw string) intent.Intent {
	return e.Analyze(raw).Intent
}

// FilterParameters translates an Intent into catalog filter parameters.
// price_min and price_max span the requested band and one neighbour on each
// side, the window outside which scoring rejects; price_max is omitted for
// an open top.
func (e *Engine) FilterParameters(in intent.Intent) map[string]string {
	params := make(map[string]string)
	if len(in.ItemTypes) > 0 {
		params[catalog.ParamItemTypes] = strings.Join(in.ItemTypes, ",")
	}
	if len(in.Colors) > 0 {
		params[catalog.ParamColors] = strings.Join(in.Colors, ",")
	}
	if r := in.PriceBand.Rank(); r >= 0 {
		params[catalog.ParamPriceBand] = string(in.PriceBand)
		lo, hi := e.scorer.Policy().PriceBands.Range(r-1, r+1)
		params[catalog.ParamPriceMin] = formatPrice(lo)
		if !math.IsInf(hi, 1) {
			params[catalog.ParamPriceMax] = formatPrice(hi)
		}
	}
	if in.Occasion != "" {
		params[catalog.ParamOccasion] = string(in.Occasion)
	}
	if in.Season != "" {
		params[catalog.ParamSeason] = string(in.Season)
	}
	if in.Quality != "" {
		params[catalog.ParamQuality] = string(in.Quality)
	}
	if in.WantsCompleteOutfit {
		params[catalog.ParamCompleteOutfit] = "true"
	}
	return params
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ScoreAndFilter ranks candidates against in. See scoring.Scorer.
func (e *Engine) ScoreAndFilter(in intent.Intent, candidates []scoring.Candidate) ([]scoring.ScoredCandidate, error) {
	return e.scorer.ScoreAndFilter(in, candidates)
}

// ScoreAll scores every candidate, rejected ones included, in input order.
func (e *Engine) ScoreAll(in intent.Intent, candidates []scoring.Candidate) ([]scoring.ScoredCandidate, error) {
	return e.scorer.ScoreAll(in, candidates)
}

// ComposeResponse returns the chat reply for count results.
func (e *Engine) ComposeResponse(in intent.Intent, count int) string {
	return e.composer.Compose(in, count)
}

// SearchResult is the outcome of one Search.
type SearchResult struct {
	Analysis
	Params  map[string]string         `json:"params"`
	Fetched int                       `json:"fetched"`
	Results []scoring.ScoredCandidate `json:"results"`
	Message string                    `json:"message"`
}

// Search runs analyze, fetch, score and compose. A fetch failure is
// returned wrapped; an empty result is not an error and carries the
// apology message.
func (e *Engine) Search(ctx context.Context, raw string, fetcher catalog.Fetcher) (*SearchResult, error) {
	a := e.Analyze(raw)
	params := e.FilterParameters(a.Intent)

	candidates, err := fetcher.Fetch(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("fetch candidates: %w", err)
	}
	results, err := e.ScoreAndFilter(a.Intent, candidates)
	if err != nil {
		return nil, fmt.Errorf("score candidates: %w", err)
	}
	if results == nil {
		results = []scoring.ScoredCandidate{}
	}

	e.logger.Debug("search complete", "fetched", len(candidates), "kept", len(results))
	return &SearchResult{
		Analysis: a,
		Params:   params,
		Fetched:  len(candidates),
		Results:  results,
		Message:  e.ComposeResponse(a.Intent, len(results)),
	}, nil
}
