package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"backoffice.app/internal/audit"
	"backoffice.app/internal/auth"
	"backoffice.app/internal/config"
	"backoffice.app/internal/httpapi"
	"backoffice.app/internal/media"
	"backoffice.app/internal/obs"
	"backoffice.app/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "backoffice-api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := obs.NewLogger(os.Stdout, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := store.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer backend.Close()

	if cfg.MigrateOnStart {
		applied, err := backend.Migrate(ctx)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		for _, name := range applied {
			logger.Info("migration applied", "name", name)
		}
	}

	metrics := obs.NewMetrics()
	hasher, err := auth.NewHasher(cfg.BcryptCost, cfg.HashConcurrency)
	if err != nil {
		return err
	}
	hasher.OnHash(metrics.ObserveHash)

	accounts, err := auth.NewService(backend, hasher,
		auth.WithDefaultRole(cfg.Role()),
		auth.WithLogger(logger),
		auth.WithRecorder(audit.NewLogger(logger)),
		auth.WithObserver(metrics),
	)
	if err != nil {
		return err
	}
	images, err := media.NewService(backend, logger)
	if err != nil {
		return err
	}

	probe := httpapi.ReadyProbe{Store: backend}
	api, err := httpapi.New(accounts, images, probe, metrics, logger, httpapi.Config{
		Production:   cfg.Production(),
		CORSOrigins:  cfg.CORSOrigins,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http listening", "addr", cfg.HTTPAddr, "store", backend.Driver, "version", obs.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})

	var grpcSrv *grpc.Server
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		grpcSrv = grpc.NewServer()
		health := httpapi.NewHealthServer(probe, logger)
		health.Register(grpcSrv)
		g.Go(func() error {
			health.Run(gctx, 5*time.Second)
			return nil
		})
		g.Go(func() error {
			logger.Info("grpc listening", "addr", cfg.GRPCAddr)
			if err := grpcSrv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("grpc: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if grpcSrv != nil {
			grpcSrv.GracefulStop()
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("stopped")
	return nil
}
