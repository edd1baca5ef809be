package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hazyhaar/wardrobe/pkg/lexicon"
	"github.com/hazyhaar/wardrobe/pkg/scoring"
	_ "modernc.org/sqlite"
)

// DefaultLimit caps the rows returned by one Fetch.
const DefaultLimit = 200

// Store is a products catalog in SQLite. It implements Fetcher.
type Store struct {
	db    *sql.DB
	limit int
	lex   func() *lexicon.Lexicon
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLexicon matches filter values against the aliases of the lexicon lex
// returns, so a product tagged "فستان" or "أحمر" passes item_types=dress or
// colors=red. lex is called on every Fetch and may follow reloads.
func WithLexicon(lex func() *lexicon.Lexicon) StoreOption {
	return func(s *Store) { s.lex = lex }
}

// OpenStore opens (or creates) the SQLite database at path and ensures the
// products table exists. limit <= 0 uses DefaultLimit.
func OpenStore(path string, limit int, opts ...StoreOption) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}

	const ddl = `CREATE TABLE IF NOT EXISTS products (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		category       TEXT NOT NULL DEFAULT '',
		colors         TEXT NOT NULL DEFAULT '[]',
		price          REAL,
		occasion_tags  TEXT NOT NULL DEFAULT '[]',
		season_tags    TEXT NOT NULL DEFAULT '[]',
		quality_rating REAL,
		best_seller    INTEGER NOT NULL DEFAULT 0,
		is_set         INTEGER NOT NULL DEFAULT 0,
		updated_at     INTEGER NOT NULL
	)`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("create products table: %w", err)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	s := &Store{db: db, limit: limit}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert validates and writes products in one transaction. Existing rows
// with the same id are replaced.
func (s *Store) Upsert(ctx context.Context, products []scoring.Candidate) (int, error) {
	for i, p := range products {
		if err := p.Validate(); err != nil {
			return 0, fmt.Errorf("product %d: %w", i, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	const q = `INSERT OR REPLACE INTO products
		(id, name, category, colors, price, occasion_tags, season_tags,
		 quality_rating, best_seller, is_set, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, p := range products {
		_, err := stmt.ExecContext(ctx,
			p.ID, p.Name, strings.ToLower(p.Category),
			jsonList(p.Colors), p.Price,
			jsonList(p.OccasionTags), jsonList(p.SeasonTags),
			p.QualityRating, p.BestSeller, p.IsSet, now,
		)
		if err != nil {
			return 0, fmt.Errorf("upsert %s: %w", p.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(products), nil
}

// Count returns the number of products.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// Fetch pre-filters products on the price window in SQL, then on category
// and colors against their lexicon aliases. Products without a price or
// without colors are kept; scoring treats them as neutral. Products whose
// occasion and season tags match the request, or are empty, come before the
// rest, so the limit never crowds them out; an occasion mismatch sorts below
// a season mismatch. Within each group rows come best sellers first, then by
// rating.
func (s *Store) Fetch(ctx context.Context, params map[string]string) ([]scoring.Candidate, error) {
	var where []string
	var args []any

	if v, ok := params[ParamPriceMin]; ok {
		lo, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s %q: %w", ParamPriceMin, v, err)
		}
		where = append(where, "(price IS NULL OR price >= ?)")
		args = append(args, lo)
	}
	if v, ok := params[ParamPriceMax]; ok {
		hi, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s %q: %w", ParamPriceMax, v, err)
		}
		where = append(where, "(price IS NULL OR price < ?)")
		args = append(args, hi)
	}

	q := `SELECT id, name, category, colors, price, occasion_tags, season_tags,
		quality_rating, best_seller, is_set FROM products`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY best_seller DESC, COALESCE(quality_rating, 0) DESC, id"

	var lex *lexicon.Lexicon
	if s.lex != nil {
		lex = s.lex()
	}
	f := newProductFilter(lex, params)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query products: %w", ErrUnavailable, err)
	}
	defer rows.Close()

	var groups [4][]scoring.Candidate
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		if !f.keep(p) {
			continue
		}
		g := f.rank(p)
		groups[g] = append(groups[g], p)
		if g == 0 && len(groups[0]) == s.limit {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read products: %w", ErrUnavailable, err)
	}

	out := make([]scoring.Candidate, 0, len(groups[0]))
	for _, g := range groups {
		for _, p := range g {
			if len(out) == s.limit {
				return out, nil
			}
			out = append(out, p)
		}
	}
	return out, nil
}

func scanProduct(rows *sql.Rows) (scoring.Candidate, error) {
	var (
		p                         scoring.Candidate
		colors, occasion, seasons string
		price, rating             sql.NullFloat64
		err                       error
	)
	if err := rows.Scan(&p.ID, &p.Name, &p.Category, &colors, &price, &occasion, &seasons,
		&rating, &p.BestSeller, &p.IsSet); err != nil {
		return p, fmt.Errorf("scan product: %w", err)
	}
	if price.Valid {
		p.Price = scoring.Float(price.Float64)
	}
	if rating.Valid {
		p.QualityRating = scoring.Float(rating.Float64)
	}
	if p.Colors, err = parseList(colors); err != nil {
		return p, fmt.Errorf("product %s colors: %w", p.ID, err)
	}
	if p.OccasionTags, err = parseList(occasion); err != nil {
		return p, fmt.Errorf("product %s occasion tags: %w", p.ID, err)
	}
	if p.SeasonTags, err = parseList(seasons); err != nil {
		return p, fmt.Errorf("product %s season tags: %w", p.ID, err)
	}
	return p, nil
}

// productFilter holds the folded aliases of each requested value. A nil set
// means the parameter was absent.
type productFilter struct {
	items    map[string]bool
	sets     bool
	colors   map[string]bool
	occasion map[string]bool
	season   map[string]bool
}

func newProductFilter(lex *lexicon.Lexicon, params map[string]string) productFilter {
	return productFilter{
		items:    aliasSet(lex, lexicon.FamilyItem, params[ParamItemTypes]),
		sets:     params[ParamCompleteOutfit] == "true",
		colors:   aliasSet(lex, lexicon.FamilyColor, params[ParamColors]),
		occasion: aliasSet(lex, lexicon.FamilyOccasion, params[ParamOccasion]),
		season:   aliasSet(lex, lexicon.FamilySeason, params[ParamSeason]),
	}
}

func aliasSet(lex *lexicon.Lexicon, f lexicon.Family, list string) map[string]bool {
	values := splitList(list)
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool)
	for _, v := range values {
		aliases := []string{v}
		if lex != nil {
			aliases = lex.Aliases(f, v)
		}
		for _, a := range aliases {
			set[lexicon.Fold(a)] = true
		}
	}
	return set
}

func (f productFilter) keep(p scoring.Candidate) bool {
	if f.items != nil && !f.items[lexicon.Fold(p.Category)] && !(f.sets && p.IsSet) {
		return false
	}
	if f.colors != nil && len(p.Colors) > 0 && !anyTag(f.colors, p.Colors) {
		return false
	}
	return true
}

// rank is 0 when occasion and season fit, 1 on a season mismatch, 2 on an
// occasion mismatch and 3 on both. Empty tags fit.
func (f productFilter) rank(p scoring.Candidate) int {
	r := 0
	if f.occasion != nil && len(p.OccasionTags) > 0 && !anyTag(f.occasion, p.OccasionTags) {
		r += 2
	}
	if f.season != nil && len(p.SeasonTags) > 0 && !anyTag(f.season, p.SeasonTags) {
		r++
	}
	return r
}

func anyTag(set map[string]bool, tags []string) bool {
	for _, t := range tags {
		if set[lexicon.Fold(t)] {
			return true
		}
	}
	return false
}

func jsonList(s []string) string {
	if len(s) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(s)
	return string(b)
}

func parseList(s string) ([]string, error) {
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}

