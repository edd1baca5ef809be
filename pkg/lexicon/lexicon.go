// Package lexicon holds the immutable dialect data the engine runs on: the
// correction table, stopwords, clitic prefixes and the keyword families,
// indexed by folded phrase.
package lexicon

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"github.com/surgebase/porter2"
)

//go:embed default.yaml
var defaultManifest []byte

// Hit is one (family, value) pair a phrase triggers.
type Hit struct {
	Family Family
	Value  string
}

// Lexicon is the read-only keyword data used by normalization, fuzzy
// correction, intent extraction and response labels. It is built once and
// never mutated, so one instance can be shared by any number of goroutines.
type Lexicon struct {
	manifest    *Manifest
	corrections map[string]string
	stopwords   map[string]bool
	prefixes    []string
	phrases     map[string][]Hit
	words       map[string]bool
	maxWords    int
	fuzzyPool   []string
	familyPool  map[Family][]string
	nearMiss    map[string]Family
	stems       map[string]string
	values      map[Family][]string
	labels      map[Family]map[string]string
	aliases     map[Family]map[string][]string
	fingerprint uint64
}

// Default returns the embedded Egyptian-Arabic/English lexicon.
func Default() (*Lexicon, error) {
	m, err := ParseManifest(defaultManifest)
	if err != nil {
		return nil, fmt.Errorf("default lexicon: %w", err)
	}
	return New(m)
}

// Load reads a lexicon manifest from path and builds it.
// An empty path loads the embedded default.
func Load(path string) (*Lexicon, error) {
	if path == "" {
		return Default()
	}
	m, err := LoadManifest(path)
	if err != nil {
		return nil, err
	}
	return New(m)
}

// New validates m and builds the lookup tables. Every trigger, correction,
// stopword and prefix is folded so lookups operate on Fold output.
func New(m *Manifest) (*Lexicon, error) {
	lex := &Lexicon{
		manifest:    m,
		corrections: make(map[string]string, len(m.Corrections)),
		stopwords:   make(map[string]bool, len(m.Stopwords)),
		phrases:     make(map[string][]Hit),
		words:       make(map[string]bool),
		maxWords:    1,
		familyPool:  make(map[Family][]string),
		nearMiss:    make(map[string]Family),
		stems:       make(map[string]string),
		values:      make(map[Family][]string),
		labels:      make(map[Family]map[string]string),
		aliases:     make(map[Family]map[string][]string),
	}

	for surface, canonical := range m.Corrections {
		key, err := singleToken(surface)
		if err != nil {
			return nil, fmt.Errorf("correction %q: %w", surface, err)
		}
		val, err := singleToken(canonical)
		if err != nil {
			return nil, fmt.Errorf("correction %q -> %q: %w", surface, canonical, err)
		}
		if key == val {
			continue
		}
		if prev, ok := lex.corrections[key]; ok && prev != val {
			return nil, fmt.Errorf("correction %q: folds onto existing key with target %q", surface, prev)
		}
		lex.corrections[key] = val
	}
	for key, val := range lex.corrections {
		if _, chained := lex.corrections[val]; chained {
			return nil, fmt.Errorf("correction %q -> %q: target is itself a correction key", key, val)
		}
	}

	for _, w := range m.Stopwords {
		for _, tok := range Tokenize(w) {
			lex.stopwords[tok] = true
		}
	}

	for _, p := range m.Prefixes {
		if f := Fold(strings.TrimSpace(p)); f != "" && !contains(lex.prefixes, f) {
			lex.prefixes = append(lex.prefixes, f)
		}
	}
	sort.SliceStable(lex.prefixes, func(i, j int) bool {
		return utf8.RuneCountInString(lex.prefixes[i]) > utf8.RuneCountInString(lex.prefixes[j])
	})

	for name := range m.Families {
		if _, ok := validFamily(name); !ok {
			return nil, fmt.Errorf("unknown keyword family %q", name)
		}
	}

	for _, fam := range Families {
		spec, ok := m.Families[string(fam)]
		if !ok {
			continue
		}
		if err := lex.addFamily(fam, spec); err != nil {
			return nil, fmt.Errorf("family %s: %w", fam, err)
		}
	}

	// Near misses are checked once every trigger word is known.
	for _, fam := range Families {
		spec, ok := m.Families[string(fam)]
		if !ok {
			continue
		}
		if err := lex.addNearMisses(fam, spec); err != nil {
			return nil, fmt.Errorf("family %s: %w", fam, err)
		}
	}

	lex.fingerprint = fingerprint(m)
	return lex, nil
}

func (lex *Lexicon) addFamily(fam Family, spec FamilySpec) error {
	owner := make(map[string]string) // phrase -> value, within this family
	lex.labels[fam] = make(map[string]string, len(spec.Values))
	lex.aliases[fam] = make(map[string][]string, len(spec.Values))

	for _, vs := range spec.Values {
		if vs.Value == "" {
			return fmt.Errorf("value with empty name")
		}
		if !allowedValue(fam, vs.Value) {
			return fmt.Errorf("value %q not in %v", vs.Value, closedValues[fam])
		}
		if contains(lex.values[fam], vs.Value) {
			return fmt.Errorf("duplicate value %q", vs.Value)
		}
		if len(vs.Triggers) == 0 {
			return fmt.Errorf("value %q has no triggers", vs.Value)
		}
		lex.values[fam] = append(lex.values[fam], vs.Value)
		lex.labels[fam][vs.Value] = vs.Label

		for _, trigger := range vs.Triggers {
			words := Tokenize(trigger)
			if len(words) == 0 {
				return fmt.Errorf("value %q: empty trigger %q", vs.Value, trigger)
			}
			for _, w := range words {
				if target, ok := lex.corrections[w]; ok {
					return fmt.Errorf("value %q: trigger word %q is rewritten to %q by the correction table", vs.Value, w, target)
				}
			}
			phrase := strings.Join(words, " ")
			if other, dup := owner[phrase]; dup {
				if other == vs.Value {
					continue
				}
				return fmt.Errorf("trigger %q shared by %q and %q", phrase, other, vs.Value)
			}
			owner[phrase] = vs.Value

			lex.phrases[phrase] = append(lex.phrases[phrase], Hit{Family: fam, Value: vs.Value})
			lex.aliases[fam][vs.Value] = append(lex.aliases[fam][vs.Value], phrase)
			for _, w := range words {
				lex.words[w] = true
				if isASCIILetters(w) {
					if st := porter2.Stem(w); st != "" {
						if _, taken := lex.stems[st]; !taken {
							lex.stems[st] = w
						}
					}
				}
			}
			if len(words) > lex.maxWords {
				lex.maxWords = len(words)
			}
			if spec.Fuzzy && len(words) == 1 && isWord(words[0]) && !contains(lex.familyPool[fam], words[0]) {
				lex.familyPool[fam] = append(lex.familyPool[fam], words[0])
				if !contains(lex.fuzzyPool, words[0]) {
					lex.fuzzyPool = append(lex.fuzzyPool, words[0])
				}
			}
		}
	}
	return nil
}

func (lex *Lexicon) addNearMisses(fam Family, spec FamilySpec) error {
	if len(spec.NearMiss) > 0 && !spec.Fuzzy {
		return fmt.Errorf("near_miss needs fuzzy: true")
	}
	for _, raw := range spec.NearMiss {
		w, err := singleToken(raw)
		if err != nil {
			return fmt.Errorf("near miss %q: %w", raw, err)
		}
		switch {
		case lex.words[w]:
			return fmt.Errorf("near miss %q is already a trigger word", raw)
		case lex.stopwords[w]:
			return fmt.Errorf("near miss %q is a stopword", raw)
		}
		if _, ok := lex.corrections[w]; ok {
			return fmt.Errorf("near miss %q is rewritten by the correction table", raw)
		}
		if other, ok := lex.nearMiss[w]; ok && other != fam {
			return fmt.Errorf("near miss %q also listed under %s", raw, other)
		}
		lex.nearMiss[w] = fam
	}
	return nil
}

func singleToken(s string) (string, error) {
	toks := Tokenize(s)
	if len(toks) != 1 {
		return "", fmt.Errorf("must fold to exactly one token, got %d", len(toks))
	}
	return toks[0], nil
}

// ID returns the manifest id.
func (lex *Lexicon) ID() string { return lex.manifest.ID }

// Version returns the manifest version.
func (lex *Lexicon) Version() string { return lex.manifest.Version }

// Locale returns the manifest locale.
func (lex *Lexicon) Locale() string { return lex.manifest.Locale }

// Fingerprint is a content hash of the manifest, stable across map ordering.
func (lex *Lexicon) Fingerprint() string { return fmt.Sprintf("%016x", lex.fingerprint) }

// Correct returns the canonical form of a folded token, if the correction
// table has one.
func (lex *Lexicon) Correct(token string) (string, bool) {
	c, ok := lex.corrections[token]
	return c, ok
}

// IsStopword reports whether a folded token is a stopword.
func (lex *Lexicon) IsStopword(token string) bool { return lex.stopwords[token] }

// IsKnownWord reports whether a folded token occurs in any trigger phrase.
func (lex *Lexicon) IsKnownWord(token string) bool { return lex.words[token] }

// Prefixes returns the folded clitic prefixes, longest first.
func (lex *Lexicon) Prefixes() []string { return append([]string(nil), lex.prefixes...) }

// Lookup returns the hits of a folded, space-joined phrase.
func (lex *Lexicon) Lookup(phrase string) []Hit { return lex.phrases[phrase] }

// MaxPhraseWords is the word count of the longest trigger phrase.
func (lex *Lexicon) MaxPhraseWords() int { return lex.maxWords }

// FuzzyPool returns the single-word triggers of fuzzy-enabled families in
// lexicon order.
func (lex *Lexicon) FuzzyPool() []string { return append([]string(nil), lex.fuzzyPool...) }

// NearMiss reports the family a folded token is a listed misspelling of.
// Only such tokens are handed to the fuzzy matcher.
func (lex *Lexicon) NearMiss(token string) (Family, bool) {
	f, ok := lex.nearMiss[token]
	return f, ok
}

// FamilyPool returns the single-word triggers of one fuzzy-enabled family.
func (lex *Lexicon) FamilyPool(f Family) []string {
	return append([]string(nil), lex.familyPool[f]...)
}

// Unstem returns the English trigger word whose Porter2 stem is stem, so
// "weddings" (stem "wed") resolves to "wedding".
func (lex *Lexicon) Unstem(stem string) (string, bool) {
	w, ok := lex.stems[stem]
	return w, ok
}

// Values returns the values of a family in priority order.
func (lex *Lexicon) Values(f Family) []string { return append([]string(nil), lex.values[f]...) }

// Label returns the display label of a value, falling back to the value.
func (lex *Lexicon) Label(f Family, value string) string {
	if l := lex.labels[f][value]; l != "" {
		return l
	}
	return value
}

// Aliases returns the folded trigger phrases of a value, the value itself
// first. Used to match catalog tags written in either language.
func (lex *Lexicon) Aliases(f Family, value string) []string {
	out := []string{value}
	for _, a := range lex.aliases[f][value] {
		if a != value {
			out = append(out, a)
		}
	}
	return out
}

// Stats summarizes the loaded tables.
type Stats struct {
	ID          string         `json:"id"`
	Version     string         `json:"version"`
	Locale      string         `json:"locale"`
	Fingerprint string         `json:"fingerprint"`
	Corrections int            `json:"corrections"`
	Stopwords   int            `json:"stopwords"`
	Phrases     int            `json:"phrases"`
	FuzzyPool   int            `json:"fuzzy_pool"`
	NearMisses  int            `json:"near_misses"`
	Values      map[Family]int `json:"values"`
}

// Stats returns table sizes for health and info endpoints.
func (lex *Lexicon) Stats() Stats {
	s := Stats{
		ID:          lex.ID(),
		Version:     lex.Version(),
		Locale:      lex.Locale(),
		Fingerprint: lex.Fingerprint(),
		Corrections: len(lex.corrections),
		Stopwords:   len(lex.stopwords),
		Phrases:     len(lex.phrases),
		FuzzyPool:   len(lex.fuzzyPool),
		NearMisses:  len(lex.nearMiss),
		Values:      make(map[Family]int, len(lex.values)),
	}
	for f, vals := range lex.values {
		s.Values[f] = len(vals)
	}
	return s
}

func fingerprint(m *Manifest) uint64 {
	d := xxhash.New()
	write := func(parts ...string) {
		for _, p := range parts {
			d.WriteString(p)
			d.WriteString("\x00")
		}
	}
	write(m.ID, m.Version, m.Locale)

	keys := make([]string, 0, len(m.Corrections))
	for k := range m.Corrections {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		write("c", k, m.Corrections[k])
	}
	stop := append([]string(nil), m.Stopwords...)
	sort.Strings(stop)
	write(stop...)
	write(m.Prefixes...)
	for _, fam := range Families {
		spec, ok := m.Families[string(fam)]
		if !ok {
			continue
		}
		write("f", string(fam), fmt.Sprint(spec.Fuzzy))
		write(spec.NearMiss...)
		for _, v := range spec.Values {
			write("v", v.Value, v.Label)
			write(v.Triggers...)
		}
	}
	return d.Sum64()
}
