// Package app wires the service components together and runs them.
package app

import (
	"context"
	"log"
	"net/http"
	"time"

	"rootsource/config"
	"rootsource/internal/advisor"
	"rootsource/internal/cache"
	"rootsource/internal/geo"
	"rootsource/internal/httpapi"
	"rootsource/internal/llm"
	"rootsource/internal/nasa"
	"rootsource/internal/search"
	"rootsource/internal/store"
	"rootsource/internal/translate"
	"rootsource/internal/watch"
	"rootsource/metrics"
	"rootsource/queue"
)

// App owns the component graph.
type App struct {
	cfg     config.Config
	store   *store.Store
	queue   *queue.Queue
	advisor *advisor.Advisor
	watcher *watch.Watcher
	metrics *metrics.Metrics
	mux     *http.ServeMux
}

// New builds the full graph. All external-facing clients share one cache
// store; the key helpers keep their namespaces apart.
func New(cfg config.Config) (*App, error) {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	shared := cache.New()
	m := metrics.New()
	q := queue.New(cfg.QueueSize, cfg.WorkerCount, time.Duration(cfg.JobTimeoutSec)*time.Second)

	adv := advisor.New(cfg, advisor.Deps{
		Resolver:   geo.NewResolver(cfg.Geo, cfg.Cache, shared, nil),
		Data:       nasa.NewService(cfg.Data, cfg.Cache, shared, nil, nil),
		Translator: translate.New(cfg.Translate, cfg.Cache, shared, nil),
		Generator:  llm.New(cfg.LLM, nil),
		Tools:      search.DefaultTools(nil),
		Answers:    shared,
		Metrics:    m,
	})
	watcher := watch.New(cfg.ConfigPath, cfg.WatchKeywords, adv.SetKeywords)

	mux := http.NewServeMux()
	httpapi.NewRouter(cfg, adv, st, q, m).Register(mux)

	return &App{
		cfg:     cfg,
		store:   st,
		queue:   q,
		advisor: adv,
		watcher: watcher,
		metrics: m,
		mux:     mux,
	}, nil
}

// Run starts the workers, the keyword watcher, and the HTTP server, and
// blocks until the context is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	a.queue.Start(ctx)
	if err := a.watcher.Start(ctx); err != nil {
		return err
	}

	srv := &http.Server{Addr: a.cfg.HTTPPort, Handler: a.mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		a.queue.Stop(shutdownCtx)
		_ = a.store.Close()
	}()

	log.Printf("http listening addr=%s live_data=%v llm_configured=%v",
		a.cfg.HTTPPort, a.cfg.Data.LiveEnabled, a.cfg.LLM.APIKey != "")
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (a *App) Advisor() *advisor.Advisor { return a.advisor }
func (a *App) Store() *store.Store       { return a.store }
func (a *App) Mux() *http.ServeMux       { return a.mux }
