package intent

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hazyhaar/wardrobe/pkg/fuzzy"
	"github.com/hazyhaar/wardrobe/pkg/lexicon"
	"github.com/surgebase/porter2"
)

// DefaultMinFuzzyRunes is the shortest token handed to the fuzzy matcher.
const DefaultMinFuzzyRunes = 3

// Resolution kinds, in the order they are attempted.
const (
	ResolvedPrefix = "prefix"
	ResolvedStem   = "stem"
	ResolvedFuzzy  = "fuzzy"
)

// Resolution records how an unknown token was mapped to a lexicon word.
type Resolution struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	Kind       string  `json:"kind"`
	Similarity float64 `json:"similarity,omitempty"`
}

// Extractor builds an Intent from a normalized token stream with one
// table-driven keyword matcher shared by every family.
type Extractor struct {
	lex           *lexicon.Lexicon
	matcher       *fuzzy.Matcher
	prefixes      []string
	minFuzzyRunes int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMinFuzzyRunes sets the minimum token length for fuzzy correction.
func WithMinFuzzyRunes(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.minFuzzyRunes = n
		}
	}
}

// NewExtractor returns an Extractor over lex. A nil matcher uses
// fuzzy.DefaultThreshold.
func NewExtractor(lex *lexicon.Lexicon, matcher *fuzzy.Matcher, opts ...Option) *Extractor {
	if matcher == nil {
		matcher = fuzzy.NewMatcher(fuzzy.DefaultThreshold)
	}
	e := &Extractor{
		lex:           lex,
		matcher:       matcher,
		prefixes:      lex.Prefixes(),
		minFuzzyRunes: DefaultMinFuzzyRunes,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the Intent of tokens.
func (e *Extractor) Extract(tokens []string) Intent {
	in, _ := e.ExtractDetailed(tokens)
	return in
}

// ExtractDetailed returns the Intent and the token resolutions applied.
//
// Tokens are scanned left to right. At each position the longest phrase
// window is tried first; a hit consumes the window. For price, occasion,
// season and quality the last value detected wins. Item types and colors
// accumulate in first-mention order. A complete outfit is requested by an
// outfit phrase or, once the scan is done, by three or more item types.
func (e *Extractor) ExtractDetailed(tokens []string) (Intent, []Resolution) {
	resolved := make([]string, len(tokens))
	var resolutions []Resolution
	for i, tok := range tokens {
		word, res := e.resolve(tok)
		resolved[i] = word
		if res != nil {
			resolutions = append(resolutions, *res)
		}
	}

	var in Intent
	maxWords := e.lex.MaxPhraseWords()
	for i := 0; i < len(resolved); {
		n := maxWords
		if rest := len(resolved) - i; n > rest {
			n = rest
		}
		matched := false
		for ; n > 0; n-- {
			hits := e.lex.Lookup(strings.Join(resolved[i:i+n], " "))
			if len(hits) == 0 {
				continue
			}
			for _, h := range hits {
				in.apply(h)
			}
			matched = true
			break
		}
		if matched {
			i += n
		} else {
			i++
		}
	}

	if len(in.ItemTypes) >= 3 {
		in.WantsCompleteOutfit = true
	}
	return in, resolutions
}

func (in *Intent) apply(h lexicon.Hit) {
	switch h.Family {
	case lexicon.FamilyItem:
		in.ItemTypes = appendUnique(in.ItemTypes, h.Value)
	case lexicon.FamilyColor:
		in.Colors = appendUnique(in.Colors, h.Value)
	case lexicon.FamilyPrice:
		in.PriceBand = PriceBand(h.Value)
	case lexicon.FamilyOccasion:
		in.Occasion = Occasion(h.Value)
	case lexicon.FamilySeason:
		in.Season = Season(h.Value)
	case lexicon.FamilyQuality:
		in.Quality = Quality(h.Value)
	case lexicon.FamilyOutfit:
		in.WantsCompleteOutfit = true
	}
}

// resolve maps a token with no exact lexicon hit onto a known word:
// clitic prefix stripping, then English stemming, then fuzzy correction.
// Fuzzy correction only applies to a listed near miss of a family, bare or
// behind a clitic, and only against that family's triggers.
func (e *Extractor) resolve(tok string) (string, *Resolution) {
	if e.lex.IsKnownWord(tok) || e.lex.IsStopword(tok) {
		return tok, nil
	}

	misses := []string{tok}
	for _, p := range e.prefixes {
		if !strings.HasPrefix(tok, p) || len(tok) == len(p) {
			continue
		}
		rest := tok[len(p):]
		if c, ok := e.lex.Correct(rest); ok {
			rest = c
		}
		if e.lex.IsKnownWord(rest) {
			return rest, &Resolution{From: tok, To: rest, Kind: ResolvedPrefix}
		}
		misses = append(misses, rest)
	}

	if isASCIIWord(tok) {
		if w, ok := e.lex.Unstem(porter2.Stem(tok)); ok && w != tok {
			return w, &Resolution{From: tok, To: w, Kind: ResolvedStem}
		}
	}

	for _, m := range misses {
		if word, res := e.correct(tok, m); res != nil {
			return word, res
		}
	}
	return tok, nil
}

func (e *Extractor) correct(tok, miss string) (string, *Resolution) {
	fam, ok := e.lex.NearMiss(miss)
	if !ok || !isLetters(miss) || utf8.RuneCountInString(miss) < e.minFuzzyRunes {
		return "", nil
	}
	m, ok := e.matcher.BestMatch(miss, e.lex.FamilyPool(fam))
	if !ok {
		return "", nil
	}
	return m.Term, &Resolution{From: tok, To: m.Term, Kind: ResolvedFuzzy, Similarity: m.Similarity}
}

func appendUnique(s []string, v string) []string {
	for _, x := range s {
		if x == v {
			return s
		}
	}
	return append(s, v)
}

func isLetters(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}

func isASCIIWord(s string) bool {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c < 'a' || c > 'z' {
			return false
		}
	}
	return s != ""
}
