// Package intent turns a customer query into a structured purchase Intent.
package intent

import (
	"errors"
	"fmt"
	"slices"
)

// PriceBand is one of five ordered price buckets.
type PriceBand string

const (
	PriceVeryLow  PriceBand = "very_low"
	PriceLow      PriceBand = "low"
	PriceMedium   PriceBand = "medium"
	PriceHigh     PriceBand = "high"
	PriceVeryHigh PriceBand = "very_high"
)

// PriceBands lists the bands cheapest first.
var PriceBands = []PriceBand{PriceVeryLow, PriceLow, PriceMedium, PriceHigh, PriceVeryHigh}

// Rank returns the band's position in PriceBands, or -1 when absent or unknown.
func (b PriceBand) Rank() int {
	for i, pb := range PriceBands {
		if pb == b {
			return i
		}
	}
	return -1
}

// Occasion is what the outfit is for.
type Occasion string

const (
	OccasionWedding Occasion = "wedding"
	OccasionWork    Occasion = "work"
	OccasionParty   Occasion = "party"
	OccasionCasual  Occasion = "casual"
	OccasionSports  Occasion = "sports"
	OccasionFormal  Occasion = "formal"
	OccasionBeach   Occasion = "beach"
	OccasionHome    Occasion = "home"
	OccasionSchool  Occasion = "school"
)

// Season of wear.
type Season string

const (
	SeasonSummer Season = "summer"
	SeasonWinter Season = "winter"
	SeasonSpring Season = "spring"
	SeasonAutumn Season = "autumn"
)

// Quality is the requested quality tier.
type Quality string

const (
	QualityExcellent  Quality = "excellent"
	QualityVeryGood   Quality = "very_good"
	QualityGood       Quality = "good"
	QualityAcceptable Quality = "acceptable"
)

// Intent is the structured form of one query. The zero value of each
// optional field means the query did not mention it.
type Intent struct {
	ItemTypes           []string  `json:"item_types,omitempty"`
	Colors              []string  `json:"colors,omitempty"`
	PriceBand           PriceBand `json:"price_band,omitempty"`
	Occasion            Occasion  `json:"occasion,omitempty"`
	Season              Season    `json:"season,omitempty"`
	Quality             Quality   `json:"quality,omitempty"`
	WantsCompleteOutfit bool      `json:"wants_complete_outfit"`
}

// HasConstraints reports whether any scoring field (price, occasion, season,
// quality, complete outfit) is set. Item types and colors are not scoring
// constraints.
func (in Intent) HasConstraints() bool {
	return in.PriceBand != "" ||
		in.Occasion != "" ||
		in.Season != "" ||
		in.Quality != "" ||
		in.WantsCompleteOutfit
}

// Validate rejects enumeration fields outside their closed sets. Intents
// produced by the Extractor are always valid; this guards intents decoded
// from requests.
func (in Intent) Validate() error {
	checks := []struct {
		name, value string
		allowed     []string
	}{
		{"price_band", string(in.PriceBand), priceValues},
		{"occasion", string(in.Occasion), occasionValues},
		{"season", string(in.Season), seasonValues},
		{"quality", string(in.Quality), qualityValues},
	}
	for _, c := range checks {
		if c.value == "" {
			continue
		}
		if !slices.Contains(c.allowed, c.value) {
			return fmt.Errorf("%w: %s %q", ErrInvalidIntent, c.name, c.value)
		}
	}
	return nil
}

// ErrInvalidIntent is returned by Validate.
var ErrInvalidIntent = errors.New("invalid intent")

var (
	priceValues = []string{
		string(PriceVeryLow), string(PriceLow), string(PriceMedium), string(PriceHigh), string(PriceVeryHigh),
	}
	occasionValues = []string{
		string(OccasionWedding), string(OccasionWork), string(OccasionParty),
		string(OccasionCasual), string(OccasionSports), string(OccasionFormal),
		string(OccasionBeach), string(OccasionHome), string(OccasionSchool),
	}
	seasonValues = []string{
		string(SeasonSummer), string(SeasonWinter), string(SeasonSpring), string(SeasonAutumn),
	}
	qualityValues = []string{
		string(QualityExcellent), string(QualityVeryGood), string(QualityGood), string(QualityAcceptable),
	}
)

// IsEmpty reports whether nothing at all was detected.
func (in Intent) IsEmpty() bool {
	return len(in.ItemTypes) == 0 && len(in.Colors) == 0 && !in.HasConstraints()
}
