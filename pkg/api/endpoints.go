package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/hazyhaar/wardrobe/pkg/catalog"
	"github.com/hazyhaar/wardrobe/pkg/engine"
	"github.com/hazyhaar/wardrobe/pkg/intent"
	"github.com/hazyhaar/wardrobe/pkg/kit"
	"github.com/hazyhaar/wardrobe/pkg/lexicon"
	"github.com/hazyhaar/wardrobe/pkg/scoring"
)

const (
	maxBatchQueries = 100
	maxCandidates   = 1000
	batchWorkers    = 8
)

var (
	// ErrBadRequest marks caller mistakes; transports map it to 400.
	ErrBadRequest = errors.New("bad request")
	// ErrNoCatalog is returned by search when no catalog is configured.
	ErrNoCatalog = errors.New("no catalog configured")
)

// Shared request/response types used by both HTTP and MCP transports.

type analyzeReq struct {
	Query string `json:"query"`
}

type analyzeResponse struct {
	engine.Analysis
	Params map[string]string `json:"params"`
}

type analyzeBatchReq struct {
	Queries []string `json:"queries"`
}

type batchResponse struct {
	Results []analyzeResponse `json:"results"`
}

// scoreReq carries either an explicit intent or a query to analyze.
type scoreReq struct {
	Intent     *intent.Intent      `json:"intent,omitempty"`
	Query      string              `json:"query,omitempty"`
	Candidates []scoring.Candidate `json:"candidates"`
}

type scoreResponse struct {
	Intent  intent.Intent             `json:"intent"`
	Results []scoring.ScoredCandidate `json:"results"`
	Message string                    `json:"message,omitempty"`
}

type composeReq struct {
	Intent *intent.Intent `json:"intent,omitempty"`
	Query  string         `json:"query,omitempty"`
	Count  int            `json:"count"`
}

type composeResponse struct {
	Message string `json:"message"`
}

type searchReq struct {
	Query string `json:"query"`
}

type lexiconResponse struct {
	Lexicon lexicon.Stats  `json:"lexicon"`
	Policy  scoring.Policy `json:"policy"`
}

// Endpoints groups the kit.Endpoints served over HTTP and MCP.
type Endpoints struct {
	Analyze      kit.Endpoint
	AnalyzeBatch kit.Endpoint
	Score        kit.Endpoint
	Explain      kit.Endpoint
	Compose      kit.Endpoint
	Search       kit.Endpoint
	Lexicon      kit.Endpoint
}

// NewEndpoints builds the endpoints over the engine in service. fetcher may
// be nil, in which case Search fails with ErrNoCatalog.
func NewEndpoints(p *engine.Provider, fetcher catalog.Fetcher, logger *slog.Logger) Endpoints {
	wrap := func(name string, ep kit.Endpoint) kit.Endpoint {
		return kit.Logging(logger, name)(ep)
	}
	return Endpoints{
		Analyze:      wrap("analyze", analyzeEndpoint(p)),
		AnalyzeBatch: wrap("analyze_batch", analyzeBatchEndpoint(p)),
		Score:        wrap("score", scoreEndpoint(p)),
		Explain:      wrap("explain", explainEndpoint(p)),
		Compose:      wrap("compose", composeEndpoint(p)),
		Search:       wrap("search", searchEndpoint(p, fetcher)),
		Lexicon:      wrap("lexicon", lexiconEndpoint(p)),
	}
}

func analyze(e *engine.Engine, query string) analyzeResponse {
	a := e.Analyze(query)
	return analyzeResponse{Analysis: a, Params: e.FilterParameters(a.Intent)}
}

func analyzeEndpoint(p *engine.Provider) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*analyzeReq)
		return analyze(p.Current(), req.Query), nil
	}
}

func analyzeBatchEndpoint(p *engine.Provider) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*analyzeBatchReq)
		if len(req.Queries) == 0 {
			return nil, fmt.Errorf("%w: queries array is empty", ErrBadRequest)
		}
		if len(req.Queries) > maxBatchQueries {
			return nil, fmt.Errorf("%w: too many queries (max %d, got %d)", ErrBadRequest, maxBatchQueries, len(req.Queries))
		}

		// One engine for the whole batch, even across a reload.
		e := p.Current()
		results := make([]analyzeResponse, len(req.Queries))
		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(batchWorkers)
		for i, q := range req.Queries {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				results[i] = analyze(e, q)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return batchResponse{Results: results}, nil
	}
}

// resolveIntent validates an explicit intent or analyzes the query.
func resolveIntent(e *engine.Engine, in *intent.Intent, query string) (intent.Intent, error) {
	if in == nil {
		return e.AnalyzeQuery(query), nil
	}
	if err := in.Validate(); err != nil {
		return intent.Intent{}, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return *in, nil
}

func checkCandidates(cs []scoring.Candidate) error {
	if len(cs) > maxCandidates {
		return fmt.Errorf("%w: too many candidates (max %d, got %d)", ErrBadRequest, maxCandidates, len(cs))
	}
	return nil
}

func scoreEndpoint(p *engine.Provider) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*scoreReq)
		e := p.Current()
		in, err := resolveIntent(e, req.Intent, req.Query)
		if err != nil {
			return nil, err
		}
		if err := checkCandidates(req.Candidates); err != nil {
			return nil, err
		}
		results, err := e.ScoreAndFilter(in, req.Candidates)
		if err != nil {
			return nil, err
		}
		if results == nil {
			results = []scoring.ScoredCandidate{}
		}
		return scoreResponse{
			Intent:  in,
			Results: results,
			Message: e.ComposeResponse(in, len(results)),
		}, nil
	}
}

func explainEndpoint(p *engine.Provider) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*scoreReq)
		e := p.Current()
		in, err := resolveIntent(e, req.Intent, req.Query)
		if err != nil {
			return nil, err
		}
		if err := checkCandidates(req.Candidates); err != nil {
			return nil, err
		}
		results, err := e.ScoreAll(in, req.Candidates)
		if err != nil {
			return nil, err
		}
		if results == nil {
			results = []scoring.ScoredCandidate{}
		}
		return scoreResponse{Intent: in, Results: results}, nil
	}
}

func composeEndpoint(p *engine.Provider) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*composeReq)
		if req.Count < 0 {
			return nil, fmt.Errorf("%w: count must not be negative", ErrBadRequest)
		}
		e := p.Current()
		in, err := resolveIntent(e, req.Intent, req.Query)
		if err != nil {
			return nil, err
		}
		return composeResponse{Message: e.ComposeResponse(in, req.Count)}, nil
	}
}

func searchEndpoint(p *engine.Provider, fetcher catalog.Fetcher) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*searchReq)
		if fetcher == nil {
			return nil, ErrNoCatalog
		}
		return p.Current().Search(ctx, req.Query, fetcher)
	}
}

func lexiconEndpoint(p *engine.Provider) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		e := p.Current()
		return lexiconResponse{Lexicon: e.Lexicon().Stats(), Policy: e.Policy()}, nil
	}
}
