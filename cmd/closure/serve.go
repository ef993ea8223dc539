package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pcdogyu/market-closure/internal/api"
	"github.com/pcdogyu/market-closure/internal/memstore"
	"github.com/pcdogyu/market-closure/internal/monitor"
	"github.com/pcdogyu/market-closure/internal/runtimecfg"
)

func serve(cfgPath string) error {
	cfg := loadConfig(cfgPath)
	defer func() { _ = logger.Sync() }()

	mgr, err := runtimecfg.Load(cfgPath)
	if err != nil {
		return err
	}
	db := openDB(cfg)
	defer db.Close()

	reg, err := newRegistry(cfg, db)
	if err != nil {
		return err
	}
	mgr.OnUpdate(reg.Reload)

	mem := memstore.New()
	mon := monitor.New(mgr, reg, mem, db, logger.Named("monitor"))

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.New(mgr, reg, mem, db, logger.Named("api")).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ignoreCanceled(mon.Run(ctx)) })
	g.Go(func() error { return ignoreCanceled(mon.RunCleanup(ctx)) })
	g.Go(func() error {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr), zap.Int("venues", len(cfg.Venues)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
