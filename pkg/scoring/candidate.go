// Package scoring ranks catalog candidates against an Intent. Candidates
// with a critical mismatch are rejected outright; survivors are scored by
// weighted per-factor deltas and gated by a minimum score.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrInvalidCandidate marks a candidate that breaks the catalog contract:
// no id, a negative price, or a rating outside [0, 5].
var ErrInvalidCandidate = errors.New("invalid candidate")

// Candidate is a catalog product as supplied by the catalog client.
// Optional fields left nil or empty are neutral for their factor.
type Candidate struct {
	ID            string   `json:"id" yaml:"id"`
	Name          string   `json:"name" yaml:"name"`
	Category      string   `json:"category,omitempty" yaml:"category"`
	Colors        []string `json:"colors,omitempty" yaml:"colors"`
	Price         *float64 `json:"price,omitempty" yaml:"price"`
	OccasionTags  []string `json:"occasion_tags,omitempty" yaml:"occasion_tags"`
	SeasonTags    []string `json:"season_tags,omitempty" yaml:"season_tags"`
	QualityRating *float64 `json:"quality_rating,omitempty" yaml:"quality_rating"`
	BestSeller    bool     `json:"best_seller,omitempty" yaml:"best_seller"`
	IsSet         bool     `json:"is_set,omitempty" yaml:"is_set"`
}

// Validate checks the catalog contract.
func (c Candidate) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidCandidate)
	}
	if c.Price != nil && (*c.Price < 0 || math.IsNaN(*c.Price)) {
		return fmt.Errorf("%w: %s: negative price %v", ErrInvalidCandidate, c.ID, *c.Price)
	}
	if c.QualityRating != nil {
		if r := *c.QualityRating; r < 0 || r > 5 || math.IsNaN(r) {
			return fmt.Errorf("%w: %s: rating %v outside [0,5]", ErrInvalidCandidate, c.ID, r)
		}
	}
	return nil
}

// Reject reasons.
const (
	RejectPrice    = "price_out_of_range"
	RejectOccasion = "occasion_mismatch"
	RejectQuality  = "quality_below_floor"
)

// Factor is one scoring contribution.
type Factor struct {
	Name  string  `json:"name"`
	Delta float64 `json:"delta"`
}

// ScoredCandidate is a candidate with its score for one Intent.
type ScoredCandidate struct {
	Candidate
	Score        float64  `json:"score"`
	Rejected     bool     `json:"rejected,omitempty"`
	RejectReason string   `json:"reject_reason,omitempty"`
	Factors      []Factor `json:"factors,omitempty"`
}

func (sc *ScoredCandidate) add(name string, delta float64) {
	sc.Score += delta
	sc.Factors = append(sc.Factors, Factor{Name: name, Delta: delta})
}

func (sc *ScoredCandidate) reject(reason string) {
	sc.Rejected = true
	sc.RejectReason = reason
}

// Float returns a pointer to v, for building candidates in code.
func Float(v float64) *float64 { return &v }
