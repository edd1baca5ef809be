package scoring

import (
	"fmt"
	"math"

	"github.com/hazyhaar/wardrobe/pkg/intent"
)

// PriceBands holds the lower bound of every band above very_low, in EGP.
type PriceBands struct {
	Low      float64 `mapstructure:"low" json:"low"`
	Medium   float64 `mapstructure:"medium" json:"medium"`
	High     float64 `mapstructure:"high" json:"high"`
	VeryHigh float64 `mapstructure:"very_high" json:"very_high"`
}

func (pb PriceBands) bounds() [4]float64 {
	return [4]float64{pb.Low, pb.Medium, pb.High, pb.VeryHigh}
}

// Rank returns the band index of price, 0 (very_low) to 4 (very_high).
func (pb PriceBands) Rank(price float64) int {
	r := 0
	for _, b := range pb.bounds() {
		if price >= b {
			r++
		}
	}
	return r
}

// BandOf returns the band price falls in.
func (pb PriceBands) BandOf(price float64) intent.PriceBand {
	return intent.PriceBands[pb.Rank(price)]
}

// Range returns the [min, max) price range of the bands from rank lo to rank
// hi inclusive, clamped to the valid ranks. max is +Inf for very_high.
func (pb PriceBands) Range(lo, hi int) (float64, float64) {
	b := pb.bounds()
	if lo < 0 {
		lo = 0
	}
	if hi > len(b) {
		hi = len(b)
	}
	lower, upper := 0.0, math.Inf(1)
	if lo > 0 {
		lower = b[lo-1]
	}
	if hi < len(b) {
		upper = b[hi]
	}
	return lower, upper
}

// Weights are the per-factor score deltas.
type Weights struct {
	PriceExact       float64 `mapstructure:"price_exact" json:"price_exact"`
	PriceCheaper     float64 `mapstructure:"price_cheaper" json:"price_cheaper"`
	PricePricier     float64 `mapstructure:"price_pricier" json:"price_pricier"`
	OccasionMatch    float64 `mapstructure:"occasion_match" json:"occasion_match"`
	OccasionMismatch float64 `mapstructure:"occasion_mismatch" json:"occasion_mismatch"`
	SeasonMatch      float64 `mapstructure:"season_match" json:"season_match"`
	SeasonMismatch   float64 `mapstructure:"season_mismatch" json:"season_mismatch"`
	QualityTop       float64 `mapstructure:"quality_top" json:"quality_top"`
	QualityHigh      float64 `mapstructure:"quality_high" json:"quality_high"`
	QualityTierMet   float64 `mapstructure:"quality_tier_met" json:"quality_tier_met"`
	OutfitSet        float64 `mapstructure:"outfit_set" json:"outfit_set"`
	OutfitSingle     float64 `mapstructure:"outfit_single" json:"outfit_single"`
}

// Policy configures rejection, weights and the acceptance threshold.
type Policy struct {
	PriceBands PriceBands `mapstructure:"price_bands" json:"price_bands"`
	// MinScore gates survivors whenever the intent carries a constraint.
	MinScore float64 `mapstructure:"min_score" json:"min_score"`
	// QualityFloor rejects candidates rated below it for an excellent intent.
	QualityFloor float64 `mapstructure:"quality_floor" json:"quality_floor"`
	TopRating    float64 `mapstructure:"top_rating" json:"top_rating"`
	HighRating   float64 `mapstructure:"high_rating" json:"high_rating"`
	// TierRatings is the rating that satisfies each non-excellent tier.
	TierRatings            map[string]float64 `mapstructure:"tier_ratings" json:"tier_ratings"`
	RejectOccasionMismatch bool               `mapstructure:"reject_occasion_mismatch" json:"reject_occasion_mismatch"`
	// AllSeasonTags match any requested season.
	AllSeasonTags []string `mapstructure:"all_season_tags" json:"all_season_tags"`
	Weights       Weights  `mapstructure:"weights" json:"weights"`
}

// DefaultPolicy returns the production policy.
func DefaultPolicy() Policy {
	return Policy{
		PriceBands: PriceBands{Low: 300, Medium: 700, High: 1500, VeryHigh: 3000},
		MinScore:   1.5,

		QualityFloor: 3.8,
		TopRating:    4.5,
		HighRating:   4.2,
		TierRatings: map[string]float64{
			string(intent.QualityVeryGood):   4.0,
			string(intent.QualityGood):       3.5,
			string(intent.QualityAcceptable): 3.0,
		},

		RejectOccasionMismatch: true,
		AllSeasonTags:          []string{"all", "all_season", "all-season", "all seasons", "كل المواسم", "كل الفصول"},

		Weights: Weights{
			PriceExact:       2.0,
			PriceCheaper:     1.5,
			PricePricier:     0.5,
			OccasionMatch:    1.5,
			OccasionMismatch: -1.5,
			SeasonMatch:      1.0,
			SeasonMismatch:   -0.8,
			QualityTop:       2.0,
			QualityHigh:      1.0,
			QualityTierMet:   1.0,
			OutfitSet:        1.5,
			OutfitSingle:     -1.2,
		},
	}
}

// Validate checks the price bands are positive and strictly ascending.
func (p Policy) Validate() error {
	prev := 0.0
	for i, b := range p.PriceBands.bounds() {
		if b <= prev {
			return fmt.Errorf("price band %s: bound %v must be greater than %v", intent.PriceBands[i+1], b, prev)
		}
		prev = b
	}
	if p.QualityFloor < 0 || p.QualityFloor > 5 {
		return fmt.Errorf("quality floor %v outside [0,5]", p.QualityFloor)
	}
	return nil
}
