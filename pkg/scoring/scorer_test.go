package scoring

import (
	"errors"
	"math"
	"testing"

	"github.com/hazyhaar/wardrobe/pkg/intent"
	"github.com/hazyhaar/wardrobe/pkg/lexicon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScorer(t *testing.T, p Policy) *Scorer {
	t.Helper()
	lex, err := lexicon.Default()
	require.NoError(t, err)
	s, err := New(p, lex)
	require.NoError(t, err)
	return s
}

func ids(scored []ScoredCandidate) []string {
	out := make([]string, len(scored))
	for i, sc := range scored {
		out[i] = sc.ID
	}
	return out
}

func TestPriceBands_BandOf(t *testing.T) {
	pb := DefaultPolicy().PriceBands
	tests := []struct {
		price float64
		want  intent.PriceBand
	}{
		{0, intent.PriceVeryLow},
		{299.99, intent.PriceVeryLow},
		{300, intent.PriceLow},
		{699, intent.PriceLow},
		{700, intent.PriceMedium},
		{1500, intent.PriceHigh},
		{2999, intent.PriceHigh},
		{3000, intent.PriceVeryHigh},
		{25000, intent.PriceVeryHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, pb.BandOf(tt.price), "BandOf(%v)", tt.price)
	}
}

func TestPriceBands_Range(t *testing.T) {
	pb := DefaultPolicy().PriceBands

	lo, hi := pb.Range(1, 1)
	assert.Equal(t, 300.0, lo)
	assert.Equal(t, 700.0, hi)

	lo, hi = pb.Range(-1, 1)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 700.0, hi)

	lo, hi = pb.Range(3, 5)
	assert.Equal(t, 1500.0, lo)
	assert.True(t, math.IsInf(hi, 1))
}

func TestPolicy_Validate(t *testing.T) {
	require.NoError(t, DefaultPolicy().Validate())

	p := DefaultPolicy()
	p.PriceBands.High = 500
	assert.Error(t, p.Validate())

	p = DefaultPolicy()
	p.PriceBands.Low = 0
	assert.Error(t, p.Validate())

	p = DefaultPolicy()
	p.QualityFloor = 7
	assert.Error(t, p.Validate())

	_, err := New(p, nil)
	assert.Error(t, err)
}

func TestCriticalPriceRejectionIsAbsolute(t *testing.T) {
	s := newScorer(t, DefaultPolicy())
	in := intent.Intent{
		PriceBand:           intent.PriceVeryLow,
		Occasion:            intent.OccasionWedding,
		Season:              intent.SeasonSummer,
		Quality:             intent.QualityExcellent,
		WantsCompleteOutfit: true,
	}
	perfect := Candidate{
		ID:            "lux",
		Price:         Float(4500),
		OccasionTags:  []string{"wedding", "فرح", "زفاف"},
		SeasonTags:    []string{"summer"},
		QualityRating: Float(5),
		BestSeller:    true,
		IsSet:         true,
	}

	got, err := s.ScoreAndFilter(in, []Candidate{perfect})
	require.NoError(t, err)
	assert.Empty(t, got)

	all, err := s.ScoreAll(in, []Candidate{perfect})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Rejected)
	assert.Equal(t, RejectPrice, all[0].RejectReason)
}

func TestPriceFactors(t *testing.T) {
	s := newScorer(t, DefaultPolicy())
	in := intent.Intent{PriceBand: intent.PriceMedium}

	tests := []struct {
		price    float64
		score    float64
		rejected bool
	}{
		{1000, 2.0, false}, // same band
		{500, 1.5, false},  // one band cheaper
		{2000, 0.5, false}, // one band pricier
		{100, 0, true},     // two bands cheaper
		{3500, 0, true},    // two bands pricier
	}
	for _, tt := range tests {
		sc := s.Score(in, Candidate{ID: "p", Price: Float(tt.price)})
		assert.Equal(t, tt.rejected, sc.Rejected, "price %v", tt.price)
		if !tt.rejected {
			assert.Equal(t, tt.score, sc.Score, "price %v", tt.price)
		}
	}
}

func TestThresholdGating(t *testing.T) {
	in := intent.Intent{PriceBand: intent.PriceLow}
	c := Candidate{ID: "c", Price: Float(500)}

	p := DefaultPolicy()
	p.Weights.PriceExact = 1.49
	got, err := newScorer(t, p).ScoreAndFilter(in, []Candidate{c})
	require.NoError(t, err)
	assert.Empty(t, got, "score 1.49 must be excluded")

	p.Weights.PriceExact = 1.5
	got, err = newScorer(t, p).ScoreAndFilter(in, []Candidate{c})
	require.NoError(t, err)
	require.Len(t, got, 1, "score 1.5 must be included")
	assert.Equal(t, 1.5, got[0].Score)
}

func TestThresholdGating_SumsReachMinScore(t *testing.T) {
	s := newScorer(t, DefaultPolicy())
	in := intent.Intent{PriceBand: intent.PriceLow, Season: intent.SeasonWinter}

	got, err := s.ScoreAndFilter(in, []Candidate{
		{ID: "cheaper", Price: Float(150)},
		{ID: "pricier-season", Price: Float(900), SeasonTags: []string{"شتا"}},
		{ID: "exact-wrong-season", Price: Float(400), SeasonTags: []string{"summer"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"cheaper", "pricier-season"}, ids(got))
	assert.Equal(t, 1.5, got[0].Score)
	assert.Equal(t, 1.5, got[1].Score)
}

func TestBareQueryIsRejectionOnly(t *testing.T) {
	s := newScorer(t, DefaultPolicy())
	in := intent.Intent{ItemTypes: []string{"shirt"}, Colors: []string{"white"}}
	require.False(t, in.HasConstraints())

	cands := []Candidate{
		{ID: "a", Price: Float(9000)},
		{ID: "b"},
		{ID: "c", OccasionTags: []string{"sports"}, QualityRating: Float(1)},
	}
	got, err := s.ScoreAndFilter(in, cands)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(got))
	for _, sc := range got {
		assert.Zero(t, sc.Score)
	}
}

func TestMissingFieldsAreNeutral(t *testing.T) {
	s := newScorer(t, DefaultPolicy())
	in := intent.Intent{
		PriceBand: intent.PriceLow,
		Occasion:  intent.OccasionWedding,
		Season:    intent.SeasonSummer,
		Quality:   intent.QualityExcellent,
	}

	sc := s.Score(in, Candidate{ID: "bare"})
	assert.False(t, sc.Rejected)
	assert.Zero(t, sc.Score)
	assert.Empty(t, sc.Factors)
}

func TestOccasion(t *testing.T) {
	s := newScorer(t, DefaultPolicy())
	in := intent.Intent{Occasion: intent.OccasionWedding}

	sc := s.Score(in, Candidate{ID: "ar", OccasionTags: []string{"فرح"}})
	assert.Equal(t, 1.5, sc.Score)

	sc = s.Score(in, Candidate{ID: "multi", OccasionTags: []string{"Wedding", "خطوبة", "party"}})
	assert.Equal(t, 3.0, sc.Score, "one bonus per matching tag")

	sc = s.Score(in, Candidate{ID: "work", OccasionTags: []string{"work", "office"}})
	assert.True(t, sc.Rejected)
	assert.Equal(t, RejectOccasion, sc.RejectReason)

	p := DefaultPolicy()
	p.RejectOccasionMismatch = false
	sc = newScorer(t, p).Score(in, Candidate{ID: "work", OccasionTags: []string{"work"}})
	assert.False(t, sc.Rejected)
	assert.Equal(t, -1.5, sc.Score)
}

func TestSeason(t *testing.T) {
	s := newScorer(t, DefaultPolicy())
	in := intent.Intent{Season: intent.SeasonSummer}

	assert.Equal(t, 1.0, s.Score(in, Candidate{ID: "a", SeasonTags: []string{"صيفي"}}).Score)
	assert.Equal(t, 1.0, s.Score(in, Candidate{ID: "b", SeasonTags: []string{"All-Season"}}).Score)
	assert.Equal(t, -0.8, s.Score(in, Candidate{ID: "c", SeasonTags: []string{"winter"}}).Score)
}

func TestQuality(t *testing.T) {
	s := newScorer(t, DefaultPolicy())
	excellent := intent.Intent{Quality: intent.QualityExcellent}

	sc := s.Score(excellent, Candidate{ID: "low", QualityRating: Float(3.7)})
	assert.True(t, sc.Rejected)
	assert.Equal(t, RejectQuality, sc.RejectReason)

	assert.Equal(t, 2.0, s.Score(excellent, Candidate{ID: "top", QualityRating: Float(4.6), BestSeller: true}).Score)
	assert.Equal(t, 1.0, s.Score(excellent, Candidate{ID: "top-no-bs", QualityRating: Float(4.6)}).Score)
	assert.Equal(t, 1.0, s.Score(excellent, Candidate{ID: "high", QualityRating: Float(4.2)}).Score)
	assert.Equal(t, 0.0, s.Score(excellent, Candidate{ID: "floor", QualityRating: Float(3.8)}).Score)

	good := intent.Intent{Quality: intent.QualityGood}
	assert.Equal(t, 1.0, s.Score(good, Candidate{ID: "ok", QualityRating: Float(3.5)}).Score)
	sc = s.Score(good, Candidate{ID: "meh", QualityRating: Float(2)})
	assert.False(t, sc.Rejected)
	assert.Zero(t, sc.Score)
}

func TestOutfit(t *testing.T) {
	s := newScorer(t, DefaultPolicy())
	in := intent.Intent{WantsCompleteOutfit: true}

	assert.Equal(t, 1.5, s.Score(in, Candidate{ID: "set", IsSet: true}).Score)
	assert.Equal(t, -1.2, s.Score(in, Candidate{ID: "single"}).Score)
}

func TestScoreAndFilter_OrderIsStable(t *testing.T) {
	s := newScorer(t, DefaultPolicy())
	in := intent.Intent{Occasion: intent.OccasionParty, WantsCompleteOutfit: true}

	cands := []Candidate{
		{ID: "one", OccasionTags: []string{"party"}, IsSet: true},
		{ID: "two", OccasionTags: []string{"سهره", "party"}, IsSet: true},
		{ID: "three", OccasionTags: []string{"حفله"}, IsSet: true},
		{ID: "four", OccasionTags: []string{"party"}},
		{ID: "five", OccasionTags: []string{"بارتي"}, IsSet: true},
	}
	got, err := s.ScoreAndFilter(in, cands)
	require.NoError(t, err)
	// two has two matching tags; four is a single item and falls under the gate.
	assert.Equal(t, []string{"two", "one", "three", "five"}, ids(got))
}

func TestInvalidCandidates(t *testing.T) {
	s := newScorer(t, DefaultPolicy())
	in := intent.Intent{}

	tests := []struct {
		name string
		c    Candidate
	}{
		{"empty id", Candidate{ID: "  "}},
		{"negative price", Candidate{ID: "x", Price: Float(-1)}},
		{"rating too high", Candidate{ID: "x", QualityRating: Float(5.5)}},
		{"rating negative", Candidate{ID: "x", QualityRating: Float(-0.1)}},
		{"nan price", Candidate{ID: "x", Price: Float(math.NaN())}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.ScoreAndFilter(in, []Candidate{{ID: "ok"}, tt.c})
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidCandidate), "err = %v", err)
			assert.Contains(t, err.Error(), "candidate 1")
		})
	}
}

func TestScoreAll_KeepsInputOrderAndFactors(t *testing.T) {
	s := newScorer(t, DefaultPolicy())
	in := intent.Intent{PriceBand: intent.PriceLow, Occasion: intent.OccasionWork}

	all, err := s.ScoreAll(in, []Candidate{
		{ID: "a", Price: Float(10000)},
		{ID: "b", Price: Float(400), OccasionTags: []string{"مكتب"}},
	})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.True(t, all[0].Rejected)
	assert.Equal(t, []Factor{{Name: "price", Delta: 2.0}, {Name: "occasion", Delta: 1.5}}, all[1].Factors)
	assert.Equal(t, 3.5, all[1].Score)
}

func TestNew_NilLexiconMatchesBareValues(t *testing.T) {
	s, err := New(DefaultPolicy(), nil)
	require.NoError(t, err)
	in := intent.Intent{Occasion: intent.OccasionWedding}

	assert.Equal(t, 1.5, s.Score(in, Candidate{ID: "a", OccasionTags: []string{"WEDDING"}}).Score)
	assert.True(t, s.Score(in, Candidate{ID: "b", OccasionTags: []string{"فرح"}}).Rejected)
}
