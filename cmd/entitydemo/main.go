// Command entitydemo wires a registry, a session and an archive together, feeds
// them demo entities and shows how an authoritative update reaches every bucket.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/entitycache"
	"github.com/unkn0wn-root/entitycache/archive"
	asynchook "github.com/unkn0wn-root/entitycache/hooks/async"
	"github.com/unkn0wn-root/entitycache/internal/config"
	"github.com/unkn0wn-root/entitycache/internal/demo"
	"github.com/unkn0wn-root/entitycache/metrics"
	"github.com/unkn0wn-root/entitycache/provider"
	"github.com/unkn0wn-root/entitycache/session"
)

func main() {
	path := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		fmt.Fprintln(os.Stderr, "entitydemo:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	log, flush, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer flush()

	promReg := prometheus.NewRegistry()
	hooks := asynchook.New(metrics.New(promReg), 1, 1024)
	defer hooks.Close()

	registry := entitycache.NewRegistry(entitycache.RegistryOptions{Name: cfg.Registry, Logger: log, Hooks: hooks})

	var arch *archive.Archive
	p, err := newProvider(ctx, cfg.Archive)
	if err != nil {
		return err
	}
	if p != nil {
		arch, err = openArchive(ctx, p, cfg.Archive, log)
		if err != nil {
			return err
		}
		defer func() { _ = arch.Close(context.Background()) }()
	}

	s, err := session.New(session.Options{
		ID:          cfg.Session.ID,
		Registry:    registry,
		Archive:     arch,
		RecentLimit: cfg.Session.RecentLimit,
		Logger:      log,
	})
	if err != nil {
		return err
	}
	defer s.Close()

	restored, err := s.Restore(ctx)
	if err != nil {
		log.Warn("restore failed; starting empty", entitycache.Fields{"err": err})
	}

	for _, b := range []*entitycache.Bucket{s.Cache(), s.RecentlyViewed()} {
		name := b.Name()
		cancel := b.Subscribe(func(ev entitycache.Event) {
			log.Info("bucket event", entitycache.Fields{"bucket": name, "added": labels(ev.Added), "removed": labels(ev.Removed)})
		})
		defer cancel()
	}

	if restored == 0 {
		seed := demo.Seed(time.Now().UTC())
		s.Cache().AddAll(seed)
		for _, e := range seed[:3] {
			s.Viewed(e)
		}
	}

	// an authoritative update, as a details screen refresh would deliver it
	registry.AddEntity(&demo.Person{ID: "p-2", GivenName: "Grace", Surname: "Hopper", Alerts: 2, UpdatedAt: time.Now().UTC()})

	if err := s.Save(ctx); err != nil {
		log.Error("save failed", entitycache.Fields{"err": err})
	}

	if cfg.HTTP.Addr == "" {
		return nil
	}
	return serve(ctx, cfg.HTTP.Addr, newRouter(s, promReg), log)
}

// openArchive takes ownership of p: it is closed when the archive cannot be built.
func openArchive(ctx context.Context, p provider.Provider, cfg config.Archive, log entitycache.Logger) (*archive.Archive, error) {
	kinds, err := demo.Kinds(cfg.Codec)
	if err != nil {
		_ = p.Close(ctx)
		return nil, err
	}
	a, err := archive.New(archive.Options{
		Namespace:   cfg.Namespace,
		Provider:    p,
		Kinds:       kinds,
		TTL:         cfg.TTL,
		SaveTimeout: cfg.SaveTimeout,
		Logger:      log,
		AsyncSaves:  cfg.Provider == "redis",
	})
	if err != nil {
		_ = p.Close(ctx)
		return nil, err
	}
	return a, nil
}

func serve(ctx context.Context, addr string, h http.Handler, log entitycache.Logger) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.Info("debug server listening", entitycache.Fields{"addr": addr})

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func labels(es []entitycache.Entity) string {
	parts := make([]string, 0, len(es))
	for _, e := range es {
		parts = append(parts, entitycache.IdentityOf(e).String())
	}
	return strings.Join(parts, ",")
}
