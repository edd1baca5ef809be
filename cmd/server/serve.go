package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/wardrobe/pkg/api"
	"github.com/hazyhaar/wardrobe/pkg/catalog"
	"github.com/hazyhaar/wardrobe/pkg/engine"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&a.addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func (a *app) serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	if a.addr != "" {
		a.cfg.Addr = a.addr
	}
	// SIGINT/SIGTERM: graceful shutdown.
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := a.newProvider()
	if err != nil {
		return err
	}

	conn, err := a.openCatalog(ctx, p)
	if err != nil {
		return err
	}
	defer conn.Close()

	var checker *catalog.Checker
	if conn.pinger != nil {
		checker = catalog.NewChecker(conn.pinger, a.logger, a.cfg.Catalog.CheckInterval)
		go checker.Start(ctx)
	}

	// SIGHUP: hot reload the lexicon.
	sighup := make(chan os.Signal, 1)
	signal.Notify(sighup, syscall.SIGHUP)
	defer signal.Stop(sighup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-sighup:
				a.logger.Info("SIGHUP received, reloading lexicon")
				a.reload(p)
			}
		}
	}()

	if a.cfg.WatchLexicon && a.cfg.LexiconFile != "" {
		go func() {
			err := watchFile(ctx, a.cfg.LexiconFile, 500*time.Millisecond, func() {
				a.logger.Info("lexicon file changed, reloading", "path", a.cfg.LexiconFile)
				a.reload(p)
			})
			if err != nil {
				a.logger.Error("lexicon watch stopped", "error", err)
			}
		}()
	}

	srv := &http.Server{
		Addr: a.cfg.Addr,
		Handler: api.NewRouter(p, api.Config{
			Fetcher:        conn.fetcher,
			Checker:        checker,
			Logger:         a.logger,
			RequestTimeout: a.cfg.RequestTimeout,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.logger.Info("wardrobe listening", "addr", a.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (a *app) reload(p *engine.Provider) {
	if err := p.Reload(); err != nil {
		a.logger.Error("reload failed, keeping previous lexicon", "error", err)
	}
}
