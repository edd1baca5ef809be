package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/hazyhaar/wardrobe/pkg/catalog"
	"github.com/hazyhaar/wardrobe/pkg/engine"
	"github.com/hazyhaar/wardrobe/pkg/intent"
	"github.com/hazyhaar/wardrobe/pkg/kit"
	"github.com/hazyhaar/wardrobe/pkg/scoring"
)

const (
	maxQueryBody     = 64 * 1024   // 64 KiB
	maxCandidateBody = 1024 * 1024 // 1 MiB

	defaultRequestTimeout = 30 * time.Second
)

// Config wires optional collaborators into the router.
type Config struct {
	// Fetcher backs /v1/search. Nil disables search with 503.
	Fetcher catalog.Fetcher
	// Checker reports catalog reachability on /v1/health.
	Checker        *catalog.Checker
	Logger         *slog.Logger
	RequestTimeout time.Duration
}

// NewRouter returns an http.Handler with all wardrobe API routes.
func NewRouter(p *engine.Provider, cfg Config) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	h := &handler{
		eps:     NewEndpoints(p, cfg.Fetcher, cfg.Logger),
		p:       p,
		checker: cfg.Checker,
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(kit.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
	r.Use(cors)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(methodNotAllowed)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/analyze", serve[analyzeReq](h.eps.Analyze, maxQueryBody))
		r.Post("/analyze/batch", serve[analyzeBatchReq](h.eps.AnalyzeBatch, maxQueryBody))
		r.Post("/score", serve[scoreReq](h.eps.Score, maxCandidateBody))
		r.Post("/explain", serve[scoreReq](h.eps.Explain, maxCandidateBody))
		r.Post("/compose", serve[composeReq](h.eps.Compose, maxQueryBody))
		r.Post("/search", serve[searchReq](h.eps.Search, maxQueryBody))
		r.Get("/lexicon", h.handleLexicon)
		r.Get("/health", h.handleHealth)
	})

	return r
}

type handler struct {
	eps     Endpoints
	p       *engine.Provider
	checker *catalog.Checker
}

// serve decodes a JSON body of type T, capped at limit bytes, and hands it
// to ep.
func serve[T any](ep kit.Endpoint, limit int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
		req := new(T)
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		resp, err := ep(r.Context(), req)
		if err != nil {
			writeError(w, statusOf(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// statusOf maps endpoint errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, intent.ErrInvalidIntent),
		errors.Is(err, scoring.ErrInvalidCandidate):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoCatalog):
		return http.StatusServiceUnavailable
	case errors.Is(err, catalog.ErrUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// --- lexicon ---

func (h *handler) handleLexicon(w http.ResponseWriter, r *http.Request) {
	resp, err := h.eps.Lexicon(r.Context(), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- health ---

type healthResponse struct {
	Status         string          `json:"status"`
	Lexicon        string          `json:"lexicon"`
	LexiconVersion string          `json:"lexicon_version"`
	Fingerprint    string          `json:"fingerprint"`
	Catalog        *catalog.Status `json:"catalog,omitempty"`
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	lex := h.p.Current().Lexicon()
	resp := healthResponse{
		Status:         "ok",
		Lexicon:        lex.ID(),
		LexiconVersion: lex.Version(),
		Fingerprint:    lex.Fingerprint(),
	}
	if h.checker != nil {
		st := h.checker.Last()
		resp.Catalog = &st
		if !st.OK && !st.CheckedAt.IsZero() {
			resp.Status = "degraded"
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+kit.RequestIDHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
