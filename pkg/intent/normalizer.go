package intent

import "github.com/hazyhaar/wardrobe/pkg/lexicon"

// Normalizer folds and tokenizes raw text and rewrites dialect spellings
// through the lexicon's correction table. Lookups are exact.
type Normalizer struct {
	lex *lexicon.Lexicon
}

// NewNormalizer returns a Normalizer backed by lex.
func NewNormalizer(lex *lexicon.Lexicon) *Normalizer {
	return &Normalizer{lex: lex}
}

// Normalize returns the canonical token stream of raw. Tokens absent from
// the correction table pass through unchanged.
func (n *Normalizer) Normalize(raw string) []string {
	tokens := lexicon.Tokenize(raw)
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if canonical, ok := n.lex.Correct(tok); ok {
			tok = canonical
		}
		out = append(out, tok)
	}
	return out
}
