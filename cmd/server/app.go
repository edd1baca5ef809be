package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/wardrobe/pkg/catalog"
	"github.com/hazyhaar/wardrobe/pkg/engine"
	"github.com/hazyhaar/wardrobe/pkg/lexicon"
)

// app holds what every subcommand needs once flags are parsed.
type app struct {
	cfgPath  string
	logLevel string
	addr     string

	cfg    config
	logger *slog.Logger
}

func (a *app) loadLexicon() (*lexicon.Lexicon, error) {
	if a.cfg.LexiconFile == "" {
		return lexicon.Default()
	}
	return lexicon.Load(a.cfg.LexiconFile)
}

// newProvider builds the engine provider. Each reload re-reads the lexicon
// file.
func (a *app) newProvider() (*engine.Provider, error) {
	return engine.NewProvider(func() (*engine.Engine, error) {
		lex, err := a.loadLexicon()
		if err != nil {
			return nil, err
		}
		policy := a.cfg.Scoring
		e, err := engine.New(lex, engine.Options{
			FuzzyThreshold: a.cfg.Fuzzy.Threshold,
			MinFuzzyRunes:  a.cfg.Fuzzy.MinRunes,
			Policy:         &policy,
			Logger:         a.logger,
		})
		if err != nil {
			return nil, err
		}
		a.logger.Info("lexicon loaded", "id", lex.ID(), "version", lex.Version(), "fingerprint", lex.Fingerprint())
		return e, nil
	})
}

// catalogConn is an open catalog with its health probe and cleanup.
type catalogConn struct {
	fetcher catalog.Fetcher
	pinger  catalog.Pinger
	closers []func() error
}

func (c *catalogConn) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	return errors.Join(errs...)
}

// openCatalog connects the configured catalog. With neither catalog.db nor
// catalog.url set, the returned conn has a nil fetcher. The store matches
// filters against the aliases of p's current lexicon.
func (a *app) openCatalog(ctx context.Context, p *engine.Provider) (*catalogConn, error) {
	cc := a.cfg.Catalog
	conn := &catalogConn{}

	switch {
	case cc.DB != "":
		store, err := catalog.OpenStore(cc.DB, cc.Limit, catalog.WithLexicon(func() *lexicon.Lexicon {
			return p.Current().Lexicon()
		}))
		if err != nil {
			return nil, err
		}
		conn.fetcher, conn.pinger = store, store
		conn.closers = append(conn.closers, store.Close)
		a.logger.Info("catalog store opened", "path", cc.DB)
	case cc.URL != "":
		client := catalog.NewHTTPClient(cc.URL, cc.Timeout)
		conn.fetcher, conn.pinger = client, client
		a.logger.Info("catalog service", "url", cc.URL)
	default:
		a.logger.Warn("no catalog configured, search disabled")
		return conn, nil
	}

	if cc.Redis.Addr != "" {
		cache, err := catalog.NewRedisCache(ctx, cc.Redis)
		if err != nil {
			conn.Close()
			return nil, fmt.Errorf("catalog cache: %w", err)
		}
		conn.fetcher = catalog.NewCachedFetcher(conn.fetcher, cache, cc.CacheTTL, a.logger)
		conn.closers = append(conn.closers, cache.Close)
		a.logger.Info("catalog cache enabled", "redis", cc.Redis.Addr, "ttl", cc.CacheTTL)
	}
	return conn, nil
}
