// SPDX-License-Identifier: MIT

// renditiond is the transcoding pipeline daemon: it drains the durable job
// queue with a worker pool and serves the operational HTTP surface
// (/healthz, /readyz, /metrics). Record CRUD lives in the surrounding
// application, which talks to the pipeline through the dispatch package.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/videoflix/renditiond/internal/config"
	"github.com/videoflix/renditiond/internal/dispatch"
	"github.com/videoflix/renditiond/internal/execx"
	"github.com/videoflix/renditiond/internal/jobs"
	xlog "github.com/videoflix/renditiond/internal/log"
	"github.com/videoflix/renditiond/internal/queue"
	"github.com/videoflix/renditiond/internal/store"
)

var (
	version   = "v1.0.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		xlog.Configure(xlog.Config{Service: "renditiond", Version: version})
		base := xlog.Base()
		base.Fatal().Err(err).Msg("invalid configuration")
	}

	xlog.Configure(xlog.Config{
		Level:   cfg.LogLevel,
		Service: "renditiond",
		Version: version,
	})
	logger := xlog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.MediaRoot, 0o755); err != nil {
		logger.Fatal().Err(err).Str(xlog.FieldPath, cfg.MediaRoot).Msg("cannot create media root")
	}
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logger.Fatal().Err(err).Str(xlog.FieldPath, dir).Msg("cannot create database dir")
		}
	}

	db, err := store.Open(cfg.DBPath, store.DefaultConfig())
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot open record store")
	}
	defer func() { _ = db.Close() }()
	if err := store.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("record store migration failed")
	}
	records := store.New(db)

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() { _ = client.Close() }()
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := client.Ping(pingCtx).Err(); err != nil {
		cancel()
		logger.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis connection failed")
	}
	cancel()

	q := queue.New(client, "")

	jobCfg := jobs.Config{
		MediaRoot:  cfg.MediaRoot,
		FFmpegBin:  cfg.FFmpegBin,
		FFprobeBin: cfg.FFprobeBin,
	}
	dispatcher := &dispatch.Dispatcher{
		Queue:            q,
		Cleaner:          &jobs.Cleaner{Config: jobCfg},
		TranscodeTimeout: cfg.TranscodeTimeout(),
		ThumbnailTimeout: cfg.ThumbnailTimeout(),
	}
	transcoder := &jobs.Transcoder{
		Store:     records,
		Runner:    execx.Runner{},
		Config:    jobCfg,
		Completed: dispatcher.TranscodeCompleted,
	}
	thumbnailer := &jobs.Thumbnailer{
		Store:  records,
		Runner: execx.Runner{},
		Config: jobCfg,
	}

	pool := &queue.Pool{
		Queue:          q,
		Workers:        cfg.Workers,
		DefaultTimeout: cfg.TranscodeTimeout(),
	}
	pool.Register(queue.KindTranscode, func(ctx context.Context, t queue.Task) error {
		return transcoder.Run(ctx, t.RecordID)
	})
	pool.Register(queue.KindThumbnail, func(ctx context.Context, t queue.Task) error {
		return thumbnailer.Run(ctx, t.RecordID, t.SourcePath)
	})

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           newRouter(db, client, version),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info().
		Str("listen", cfg.Listen).
		Int("workers", cfg.Workers).
		Str(xlog.FieldPath, cfg.MediaRoot).
		Msg("renditiond starting")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return pool.Run(gctx)
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("daemon exited with error")
	}
	logger.Info().Msg("shutdown complete")
}
