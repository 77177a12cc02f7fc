package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"pflist/internal/api"
	"pflist/internal/catalog"
	"pflist/internal/config"
	"pflist/internal/logger"
	"pflist/internal/pg"
	"pflist/internal/platform"
)

func main() {
	cfg, err := config.Load("pflist.json", os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		os.Exit(2)
	}
	log := logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	// 1. Каталог: объекты (*.dsl), списки, представления и начальные записи (*.yaml)
	cat, err := catalog.Load(cfg.CatalogDir)
	if err != nil {
		return fmt.Errorf("load catalog %s: %w", cfg.CatalogDir, err)
	}
	if issues := cat.Lint(); len(issues) > 0 {
		for _, is := range issues {
			log.Error("catalog issue", "object", is.Object, "list", is.List, "field", is.Field, "code", is.Code, "message", is.Message)
		}
		return fmt.Errorf("catalog %s has %d blocking issues", cfg.CatalogDir, len(issues))
	}
	log.Info("catalog loaded", "dir", cfg.CatalogDir, "objects", len(cat.Objects), "lists", len(cat.Lists), "listViews", len(cat.ListViews))

	opts := api.Options{Lists: cat.Lists, CatalogDir: cfg.CatalogDir, Logger: log}

	// 2. Платформа: удалённая по HTTP или движок в процессе
	if cfg.Platform == config.PlatformHTTP {
		opts.Service = platform.NewClient(cfg.PlatformURL, cfg.Timeout())
		log.Info("remote platform", "url", cfg.PlatformURL, "timeout", cfg.Timeout())
	} else {
		var store platform.RecordStore = platform.NewMemoryStore()
		var migrate func(ctx context.Context, c *catalog.Catalog) error

		if cfg.Platform == config.PlatformPG {
			db, err := pg.Open(ctx, cfg.DBURL)
			if err != nil {
				return fmt.Errorf("open postgres: %w", err)
			}
			defer db.Close()
			store = pg.NewStore(db)
			if cfg.AutoMigrate {
				migrate = func(ctx context.Context, c *catalog.Catalog) error {
					ddl, err := pg.GenerateDDL(c)
					if err != nil {
						return err
					}
					return pg.ApplyDDL(ctx, db, ddl, log)
				}
			}
		}

		engine := platform.NewEngine(cat, store, log)
		apply := func(ctx context.Context, c *catalog.Catalog) error {
			if migrate != nil {
				if err := migrate(ctx, c); err != nil {
					return err
				}
			}
			n, err := platform.Seed(ctx, store, c)
			if err != nil {
				return err
			}
			engine.SetCatalog(c)
			log.Info("records seeded", "inserted", n)
			return nil
		}
		if err := apply(ctx, cat); err != nil {
			return err
		}
		opts.Service = engine
		opts.Engine = engine
		opts.OnReload = apply
		log.Info("in-process platform", "driver", cfg.Platform)
	}

	// 3. HTTP
	srv := api.NewServer(opts)
	httpSrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("pflist listening", "addr", httpSrv.Addr, "version", api.Version)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
