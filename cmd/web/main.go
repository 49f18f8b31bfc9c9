// cmd/web/main.go
//
// Demo-site service – HTTP entry point.
//
// Start-up
// --------
//
//  1. Load configuration (.env → conf/global.yaml → DEMOSITE_ env, vault:
//     references resolved).
//
//  2. Start the rotating JSON logger.
//
//  3. Open MySQL and, when database.migrate is set, apply the embedded
//     goose migrations.
//
//  4. Build stores and services:
//
//     • demo sites  – Store → Cache (evicts in the background) → Service
//     • previews    – SQLStore → Service with demo-site, post and project
//     resolvers; expired tokens swept on an interval
//     • leads       – Store, plus the scraper HTTP client
//
//  5. Router: request ID → request logger → security headers → HTTPS
//     redirect → request info → session actor.  Components registered via
//     blank imports add their routes; /metrics serves Prometheus.
//
//  6. Serve until SIGINT/SIGTERM, then drain and stop background work.
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanizio/demosite/internal/acl"
	"github.com/yanizio/demosite/internal/auth"
	"github.com/yanizio/demosite/internal/component"
	"github.com/yanizio/demosite/internal/config"
	"github.com/yanizio/demosite/internal/content"
	"github.com/yanizio/demosite/internal/database"
	"github.com/yanizio/demosite/internal/demosite"
	"github.com/yanizio/demosite/internal/leads"
	"github.com/yanizio/demosite/internal/logger"
	"github.com/yanizio/demosite/internal/middleware"
	"github.com/yanizio/demosite/internal/preview"
	"github.com/yanizio/demosite/internal/requestinfo"
	"github.com/yanizio/demosite/internal/scraper"
	"github.com/yanizio/demosite/internal/server"
	"github.com/yanizio/demosite/internal/session"

	_ "github.com/yanizio/demosite/components/auth"
	_ "github.com/yanizio/demosite/components/demosite"
	_ "github.com/yanizio/demosite/components/leads"
	_ "github.com/yanizio/demosite/components/preview"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("demosite: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	logOut, err := logger.New(cfg.Paths.Root, cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logOut.Sync() }()

	//
	// ── 1.  Database ────────────────────────────────────────────────────
	//
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	logOut.Infow("database online")

	if cfg.Database.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	//
	// ── 2.  Stores and services ─────────────────────────────────────────
	//
	sites := demosite.NewStore(db)
	cache := demosite.NewCache(sites, demosite.CacheOptions{
		IdleTTL:       cfg.Cache.IdleTTL,
		MaxEntries:    cfg.Cache.MaxEntries,
		EvictInterval: cfg.Cache.EvictInterval,
	})
	go cache.Run(ctx)

	articles := content.NewStore(db)
	previews := preview.NewService(preview.NewSQLStore(db), cfg.Preview.TTL)
	registerResolvers(previews, sites, articles)
	go previews.RunSweeper(ctx, cfg.Preview.SweepInterval)

	geo, err := requestinfo.OpenGeo(cfg.Geo.DBPath)
	if err != nil {
		// Geo hints are optional; run without them.
		logOut.Warnw("geoip disabled", "path", cfg.Geo.DBPath, "err", err)
	}
	defer geo.Close()

	sessions := session.New([]byte(cfg.HTTP.SessionKey), cfg.HTTP.ForceHTTPS)

	//
	// ── 3.  Router ──────────────────────────────────────────────────────
	//
	r := chi.NewRouter()
	r.Use(
		chimw.RequestID,
		middleware.RequestLogger(logOut),
		chimw.Recoverer,
		middleware.Security,
		middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS),
		requestinfo.Enrich(geo),
		sessions.Middleware,
	)
	r.Handle("/metrics", promhttp.Handler())

	if err := component.Mount(r, component.Services{
		Config:    cfg,
		ACL:       acl.NewStore(db.DB),
		Sessions:  sessions,
		Users:     auth.NewUsers(db),
		DemoSites: demosite.NewService(sites, cache),
		Preview:   previews,
		Leads:     leads.NewStore(db),
		Scraper:   scraper.New(cfg.Scraper),
	}); err != nil {
		return err
	}
	for _, c := range component.All() {
		logOut.Debugw("component mounted", "name", c.Name())
	}

	//
	// ── 4.  Serve ───────────────────────────────────────────────────────
	//
	srv := server.New(cfg.HTTP.ListenAddr, r)
	if err := server.Run(ctx, srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logOut.Infow("shutdown complete")
	return nil
}

// registerResolvers lets preview tokens point at persisted demo sites,
// posts and projects.  Each resolver reports a missing row as
// preview.ErrNotFound.
func registerResolvers(p *preview.Service, sites *demosite.Store, articles *content.Store) {
	p.Register(preview.TypeDemoSite, func(ctx context.Context, id string) (any, error) {
		site, err := sites.GetByID(ctx, id)
		if errors.Is(err, demosite.ErrNotFound) {
			return nil, preview.ErrNotFound
		}
		return site, err
	})
	p.Register(preview.TypePost, func(ctx context.Context, id string) (any, error) {
		post, err := articles.GetPost(ctx, id)
		if errors.Is(err, content.ErrNotFound) {
			return nil, preview.ErrNotFound
		}
		return post, err
	})
	p.Register(preview.TypeProject, func(ctx context.Context, id string) (any, error) {
		proj, err := articles.GetProject(ctx, id)
		if errors.Is(err, content.ErrNotFound) {
			return nil, preview.ErrNotFound
		}
		return proj, err
	})
}
