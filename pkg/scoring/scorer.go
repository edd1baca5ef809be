package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/hazyhaar/wardrobe/pkg/intent"
	"github.com/hazyhaar/wardrobe/pkg/lexicon"
)

// Scorer scores candidates under one Policy. Safe for concurrent use.
type Scorer struct {
	policy    Policy
	occasions map[string]map[string]bool // occasion -> folded tag aliases
	seasons   map[string]map[string]bool
	allSeason map[string]bool
}

// New returns a Scorer. Catalog tags are compared folded against each
// value's lexicon aliases, so "فرح" and "Wedding" both match wedding. A nil
// lex matches tags against the bare enumeration values.
func New(policy Policy, lex *lexicon.Lexicon) (*Scorer, error) {
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("scoring policy: %w", err)
	}
	s := &Scorer{
		policy:    policy,
		occasions: aliasSets(lex, lexicon.FamilyOccasion),
		seasons:   aliasSets(lex, lexicon.FamilySeason),
		allSeason: make(map[string]bool, len(policy.AllSeasonTags)),
	}
	for _, t := range policy.AllSeasonTags {
		s.allSeason[lexicon.Fold(t)] = true
	}
	return s, nil
}

func aliasSets(lex *lexicon.Lexicon, f lexicon.Family) map[string]map[string]bool {
	out := make(map[string]map[string]bool)
	for _, v := range lexicon.ClosedValues(f) {
		aliases := []string{v}
		if lex != nil {
			aliases = lex.Aliases(f, v)
		}
		set := make(map[string]bool, len(aliases))
		for _, a := range aliases {
			set[lexicon.Fold(a)] = true
		}
		out[v] = set
	}
	return out
}

// Policy returns the scorer's policy.
func (s *Scorer) Policy() Policy { return s.policy }

// ScoreAll scores every candidate in input order, rejected ones included.
// It fails on the first candidate that breaks the catalog contract.
func (s *Scorer) ScoreAll(in intent.Intent, candidates []Candidate) ([]ScoredCandidate, error) {
	out := make([]ScoredCandidate, 0, len(candidates))
	for i, c := range candidates {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("candidate %d: %w", i, err)
		}
		out = append(out, s.Score(in, c))
	}
	return out, nil
}

// ScoreAndFilter drops rejected candidates and, when the intent carries any
// constraint, candidates scoring below MinScore. Survivors are ordered by
// score, highest first; equal scores keep input order.
func (s *Scorer) ScoreAndFilter(in intent.Intent, candidates []Candidate) ([]ScoredCandidate, error) {
	scored, err := s.ScoreAll(in, candidates)
	if err != nil {
		return nil, err
	}
	gated := in.HasConstraints()
	kept := scored[:0]
	for _, sc := range scored {
		if sc.Rejected {
			continue
		}
		if gated && sc.Score < s.policy.MinScore {
			continue
		}
		kept = append(kept, sc)
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Score > kept[j].Score })
	return kept, nil
}

// Score scores one candidate. A rejected candidate keeps the factors
// accumulated before the rejection.
func (s *Scorer) Score(in intent.Intent, c Candidate) ScoredCandidate {
	sc := ScoredCandidate{Candidate: c}
	s.score(in, &sc)
	sc.Score = math.Round(sc.Score*100) / 100
	return sc
}

func (s *Scorer) score(in intent.Intent, sc *ScoredCandidate) {
	p := s.policy
	w := p.Weights
	c := sc.Candidate

	if want := in.PriceBand.Rank(); want >= 0 && c.Price != nil {
		switch p.PriceBands.Rank(*c.Price) - want {
		case 0:
			sc.add("price", w.PriceExact)
		case -1:
			sc.add("price", w.PriceCheaper)
		case 1:
			sc.add("price", w.PricePricier)
		default:
			sc.reject(RejectPrice)
			return
		}
	}

	if in.Occasion != "" && len(c.OccasionTags) > 0 {
		n := countMatches(s.occasions[string(in.Occasion)], c.OccasionTags)
		switch {
		case n > 0:
			sc.add("occasion", float64(n)*w.OccasionMatch)
		case p.RejectOccasionMismatch:
			sc.reject(RejectOccasion)
			return
		default:
			sc.add("occasion", w.OccasionMismatch)
		}
	}

	if in.Season != "" && len(c.SeasonTags) > 0 {
		if countMatches(s.seasons[string(in.Season)], c.SeasonTags) > 0 || countMatches(s.allSeason, c.SeasonTags) > 0 {
			sc.add("season", w.SeasonMatch)
		} else {
			sc.add("season", w.SeasonMismatch)
		}
	}

	if in.Quality != "" && c.QualityRating != nil {
		r := *c.QualityRating
		if in.Quality == intent.QualityExcellent {
			switch {
			case r < p.QualityFloor:
				sc.reject(RejectQuality)
				return
			case r >= p.TopRating && c.BestSeller:
				sc.add("quality", w.QualityTop)
			case r >= p.HighRating:
				sc.add("quality", w.QualityHigh)
			}
		} else if floor, ok := p.TierRatings[string(in.Quality)]; ok && r >= floor {
			sc.add("quality", w.QualityTierMet)
		}
	}

	if in.WantsCompleteOutfit {
		if c.IsSet {
			sc.add("outfit", w.OutfitSet)
		} else {
			sc.add("outfit", w.OutfitSingle)
		}
	}
}

func countMatches(aliases map[string]bool, tags []string) int {
	n := 0
	for _, t := range tags {
		if aliases[lexicon.Fold(t)] {
			n++
		}
	}
	return n
}
