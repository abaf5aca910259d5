package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pyropy/cstocs/core/chunkserver"
	"github.com/pyropy/cstocs/lib/logger"
)

func main() {
	cfg, err := chunkserver.GetConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	log, err := logger.NewAtLevel("chunkserver", cfg.Log.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger error:", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatalw("startup", "error", err)
	}
}

func run(cfg *chunkserver.Config, log *zap.SugaredLogger) error {
	store, err := chunkserver.NewChunkStore(cfg.Chunks.Path, cfg.Chunks.CacheSize)
	if err != nil {
		log.Errorw("startup", "error", "failed to open chunk store", "path", cfg.Chunks.Path)
		return err
	}
	defer store.Close()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	l, err := net.Listen("tcp", addr)
	if err != nil {
		log.Errorw("startup", "error", "net listen failed", "address", addr)
		return err
	}

	listenAddr := l.Addr().String()
	server := chunkserver.NewServer(store, log, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Serve(ctx, l)
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Infow("shutdown", "status", "chunkserver stopping", "address", listenAddr)
		return nil
	})

	log.Infow("startup", "status", "chunkserver started", "address", listenAddr, "chunks", cfg.Chunks.Path)
	defer log.Infow("shutdown", "status", "chunkserver stopped", "address", listenAddr)

	return g.Wait()
}
