package intent

import (
	"strings"
	"testing"

	"github.com/hazyhaar/wardrobe/pkg/fuzzy"
	"github.com/hazyhaar/wardrobe/pkg/lexicon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Normalizer, *Extractor) {
	t.Helper()
	lex, err := lexicon.Default()
	require.NoError(t, err)
	return NewNormalizer(lex), NewExtractor(lex, fuzzy.NewMatcher(fuzzy.DefaultThreshold))
}

func analyze(t *testing.T, query string) Intent {
	t.Helper()
	n, e := setup(t)
	return e.Extract(n.Normalize(query))
}

func TestNormalize(t *testing.T) {
	n, _ := setup(t)

	tests := []struct {
		in   string
		want []string
	}{
		{"عاوز بنطرون اسود", []string{"عايز", "بنطلون", "اسود"}},
		{"فستان سهرة!!", []string{"فستان", "سهره"}},
		{"ابغى فساتين حمراء", []string{"عايز", "فستان", "احمر"}},
		{"Cheap WHITE shirts", []string{"cheap", "white", "shirts"}},
		{"", []string{}},
		{"   ...   ", []string{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, n.Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	n, _ := setup(t)

	for _, q := range []string{
		"عاوز جاكيت سوداء شتويه",
		"ابغى فستان سهرة اسود رخيص اوي",
		"I want a RED dress, for a wedding",
		"قمسي ابيض ١٢٣",
	} {
		once := n.Normalize(q)
		twice := n.Normalize(strings.Join(once, " "))
		assert.Equal(t, once, twice, "Normalize not idempotent for %q", q)
	}
}

func TestExtract_Scenarios(t *testing.T) {
	tests := []struct {
		query string
		want  Intent
	}{
		{
			query: "عايز طقم كامل للفرح صيفي ومش غالي",
			want: Intent{
				PriceBand:           PriceLow,
				Occasion:            OccasionWedding,
				Season:              SeasonSummer,
				WantsCompleteOutfit: true,
			},
		},
		{
			query: "عايز فستان احمر",
			want:  Intent{ItemTypes: []string{"dress"}, Colors: []string{"red"}},
		},
		{
			query: "عاوز جاكيت اسود شتوي ممتاز",
			want: Intent{
				ItemTypes: []string{"jacket"},
				Colors:    []string{"black"},
				Season:    SeasonWinter,
				Quality:   QualityExcellent,
			},
		},
		{
			query: "ابغى فستان سهرة اسود رخيص اوي",
			want: Intent{
				ItemTypes: []string{"dress"},
				Colors:    []string{"black"},
				PriceBand: PriceVeryLow,
				Occasion:  OccasionParty,
			},
		},
		{
			query: "وريني بلوزه بيضا للشغل",
			want:  Intent{ItemTypes: []string{"blouse"}, Colors: []string{"white"}, Occasion: OccasionWork},
		},
		{
			query: "عايز جزمه للجيم",
			want:  Intent{ItemTypes: []string{"shoes"}, Occasion: OccasionSports},
		},
		{
			query: "فستان كويس جدا",
			want:  Intent{ItemTypes: []string{"dress"}, Quality: QualityVeryGood},
		},
		{
			query: "اوتفيت كامل للخروجه",
			want:  Intent{Occasion: OccasionCasual, WantsCompleteOutfit: true},
		},
		{
			query: "I want a red dress for a wedding",
			want:  Intent{ItemTypes: []string{"dress"}, Colors: []string{"red"}, Occasion: OccasionWedding},
		},
		{
			query: "cheap white shirts",
			want:  Intent{ItemTypes: []string{"shirt"}, Colors: []string{"white"}, PriceBand: PriceLow},
		},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, analyze(t, tt.query))
		})
	}
}

func TestExtract_TypoCorrection(t *testing.T) {
	n, e := setup(t)

	got, resolutions := e.ExtractDetailed(n.Normalize("قمسي"))
	assert.Equal(t, []string{"shirt"}, got.ItemTypes)
	require.Len(t, resolutions, 1)
	assert.Equal(t, ResolvedFuzzy, resolutions[0].Kind)
	assert.Equal(t, "قميص", resolutions[0].To)
	assert.InDelta(t, 0.5, resolutions[0].Similarity, 1e-12)
}

func TestExtract_OnlyNearMissesAreCorrected(t *testing.T) {
	n, e := setup(t)

	tests := []struct {
		query string
		want  Intent
	}{
		{"عايز فستان لبنتي", Intent{ItemTypes: []string{"dress"}}},
		{"عايز قميص لابني", Intent{ItemTypes: []string{"shirt"}}},
		{"عايز بنت", Intent{}},
		{"شورت", Intent{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, resolutions := e.ExtractDetailed(n.Normalize(tt.query))
			assert.Equal(t, tt.want, got)
			for _, r := range resolutions {
				assert.NotEqual(t, ResolvedFuzzy, r.Kind, "unexpected correction %+v", r)
			}
		})
	}
}

func TestExtract_NearMissBehindClitic(t *testing.T) {
	n, e := setup(t)

	got, resolutions := e.ExtractDetailed(n.Normalize("والقمسي ابيص"))
	assert.Equal(t, []string{"shirt"}, got.ItemTypes)
	assert.Equal(t, []string{"white"}, got.Colors)
	require.Len(t, resolutions, 2)
	assert.Equal(t, Resolution{From: "والقمسي", To: "قميص", Kind: ResolvedFuzzy, Similarity: 0.5}, resolutions[0])
	assert.Equal(t, "ابيض", resolutions[1].To)
}

func TestExtract_StemmedPlurals(t *testing.T) {
	assert.Equal(t, OccasionWedding, analyze(t, "dresses for weddings").Occasion)
	assert.Equal(t, OccasionParty, analyze(t, "parties").Occasion)
	assert.Equal(t, []string{"shoes"}, analyze(t, "black shoe").ItemTypes)

	n, e := setup(t)
	_, resolutions := e.ExtractDetailed(n.Normalize("weddings"))
	require.Len(t, resolutions, 1)
	assert.Equal(t, Resolution{From: "weddings", To: "wedding", Kind: ResolvedStem}, resolutions[0])
}

func TestExtract_PrefixAndStem(t *testing.T) {
	n, e := setup(t)

	_, resolutions := e.ExtractDetailed(n.Normalize("والفستان للشغل"))
	require.Len(t, resolutions, 2)
	assert.Equal(t, Resolution{From: "والفستان", To: "فستان", Kind: ResolvedPrefix}, resolutions[0])
	assert.Equal(t, Resolution{From: "للشغل", To: "شغل", Kind: ResolvedPrefix}, resolutions[1])

	_, resolutions = e.ExtractDetailed(n.Normalize("dresses"))
	require.Len(t, resolutions, 1)
	assert.Equal(t, Resolution{From: "dresses", To: "dress", Kind: ResolvedStem}, resolutions[0])
}

func TestExtract_ThreeItemsImplyOutfit(t *testing.T) {
	got := analyze(t, "عايز قميص وبنطلون وجزمه")
	assert.Equal(t, []string{"shirt", "pants", "shoes"}, got.ItemTypes)
	assert.True(t, got.WantsCompleteOutfit)

	got = analyze(t, "عايز قميص وبنطلون")
	assert.False(t, got.WantsCompleteOutfit)
}

func TestExtract_ItemsDeduplicatedInMentionOrder(t *testing.T) {
	got := analyze(t, "فستان احمر ولا قميص ولا فساتين حمراء")
	assert.Equal(t, []string{"dress", "shirt"}, got.ItemTypes)
	assert.Equal(t, []string{"red"}, got.Colors)
}

func TestExtract_LastSignalWins(t *testing.T) {
	assert.Equal(t, PriceVeryHigh, analyze(t, "رخيص جدا وفخم").PriceBand)
	assert.Equal(t, PriceVeryLow, analyze(t, "فخم ورخيص جدا").PriceBand)
	assert.Equal(t, SeasonWinter, analyze(t, "صيفي ولا شتوي").Season)
}

func TestExtract_LongestPhraseWins(t *testing.T) {
	// "غالي جدا" is a two-word very_high trigger; "غالي" alone is high.
	assert.Equal(t, PriceVeryHigh, analyze(t, "جاكت غالي جدا").PriceBand)
	assert.Equal(t, PriceHigh, analyze(t, "جاكت غالي").PriceBand)
	assert.Equal(t, PriceLow, analyze(t, "جاكت مش غالي").PriceBand)
}

func TestExtract_Monotonic(t *testing.T) {
	base := analyze(t, "عايز فستان احمر")
	more := analyze(t, "عايز فستان احمر للشغل")

	assert.Equal(t, base.ItemTypes, more.ItemTypes)
	assert.Equal(t, base.Colors, more.Colors)
	assert.Empty(t, base.Occasion)
	assert.Equal(t, OccasionWork, more.Occasion)
}

func TestExtract_NoSignals(t *testing.T) {
	for _, q := range []string{"", "عايز لبس حلو", "ممكن حاجه شيك", "please"} {
		got := analyze(t, q)
		assert.True(t, got.IsEmpty(), "query %q: got %+v", q, got)
	}
}

func TestExtract_BareQueryHasNoConstraints(t *testing.T) {
	got := analyze(t, "عايز قميص ابيض")
	assert.False(t, got.HasConstraints())
	assert.False(t, got.IsEmpty())
}

func TestExtract_ShortAndNumericTokensSkipFuzzy(t *testing.T) {
	n, e := setup(t)
	_, resolutions := e.ExtractDetailed(n.Normalize("قم 42 x1"))
	assert.Empty(t, resolutions)
}

func TestTypedValuesMatchLexicon(t *testing.T) {
	check := func(f lexicon.Family, got []string) {
		t.Helper()
		assert.ElementsMatch(t, lexicon.ClosedValues(f), got, "family %s", f)
	}

	var bands []string
	for _, b := range PriceBands {
		bands = append(bands, string(b))
	}
	check(lexicon.FamilyPrice, bands)

	check(lexicon.FamilyOccasion, []string{
		string(OccasionWedding), string(OccasionWork), string(OccasionParty),
		string(OccasionCasual), string(OccasionSports), string(OccasionFormal),
		string(OccasionBeach), string(OccasionHome), string(OccasionSchool),
	})
	check(lexicon.FamilySeason, []string{
		string(SeasonSummer), string(SeasonWinter), string(SeasonSpring), string(SeasonAutumn),
	})
	check(lexicon.FamilyQuality, []string{
		string(QualityExcellent), string(QualityVeryGood), string(QualityGood), string(QualityAcceptable),
	})
}

func TestPriceBandRank(t *testing.T) {
	assert.Equal(t, 0, PriceVeryLow.Rank())
	assert.Equal(t, 4, PriceVeryHigh.Rank())
	assert.Equal(t, -1, PriceBand("").Rank())
	assert.Equal(t, -1, PriceBand("free").Rank())
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Intent{}.Validate())
	assert.NoError(t, Intent{PriceBand: PriceHigh, Occasion: OccasionBeach, Season: SeasonAutumn, Quality: QualityGood}.Validate())

	for _, in := range []Intent{
		{PriceBand: "free"},
		{Occasion: "funeral"},
		{Season: "monsoon"},
		{Quality: "perfect"},
	} {
		err := in.Validate()
		assert.ErrorIs(t, err, ErrInvalidIntent, "intent %+v", in)
	}
}
