// Package compose renders the short chat reply that accompanies search
// results.
package compose

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/wardrobe/pkg/intent"
	"github.com/hazyhaar/wardrobe/pkg/lexicon"
)

// Marker ends every success reply.
const Marker = "✨"

// Apology is returned whenever nothing matched.
const Apology = "معلش، ملقتش حاجه مناسبه للطلب ده 🙏\n" +
	"جرب تكتبه بشكل تاني، مثلاً:\n" +
	"• \"فستان سهره اسود\"\n" +
	"• \"قميص ابيض للشغل\"\n" +
	"• أو قول السعر اللي يناسبك"

// maxItemLabels caps the item names echoed back.
const maxItemLabels = 3

// Composer builds replies from lexicon display labels.
type Composer struct {
	lex *lexicon.Lexicon
}

// New returns a Composer.
func New(lex *lexicon.Lexicon) *Composer {
	return &Composer{lex: lex}
}

// Compose returns the success sentence for count > 0 and Apology otherwise.
func (c *Composer) Compose(in intent.Intent, count int) string {
	if count <= 0 {
		return Apology
	}
	parts := []string{"لقيتلك " + countPhrase(count)}
	parts = append(parts, c.labels(in)...)
	parts = append(parts, Marker)
	return strings.Join(parts, " ")
}

func (c *Composer) labels(in intent.Intent) []string {
	var out []string
	if items := in.ItemTypes; len(items) > 0 {
		if len(items) > maxItemLabels {
			items = items[:maxItemLabels]
		}
		names := make([]string, len(items))
		for i, it := range items {
			names[i] = c.lex.Label(lexicon.FamilyItem, it)
		}
		out = append(out, strings.Join(names, " و"))
	}
	add := func(f lexicon.Family, v string) {
		if v != "" {
			out = append(out, c.lex.Label(f, v))
		}
	}
	if in.WantsCompleteOutfit && len(in.ItemTypes) == 0 {
		add(lexicon.FamilyOutfit, "complete")
	}
	add(lexicon.FamilyOccasion, string(in.Occasion))
	add(lexicon.FamilySeason, string(in.Season))
	add(lexicon.FamilyPrice, string(in.PriceBand))
	add(lexicon.FamilyQuality, string(in.Quality))
	return out
}

// countPhrase agrees the noun with the count the way the assistant speaks.
func countPhrase(n int) string {
	switch {
	case n == 1:
		return "اختيار واحد"
	case n == 2:
		return "اختيارين"
	case n <= 10:
		return fmt.Sprintf("%d اختيارات", n)
	default:
		return fmt.Sprintf("%d اختيار", n)
	}
}
