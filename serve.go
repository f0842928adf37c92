package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"recipe-api/config"
	"recipe-api/database"
	grpcserver "recipe-api/grpc_server"
	"recipe-api/registry"
	"recipe-api/server"
	"recipe-api/storage"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func runServe(ctx context.Context) error {
	cfg := config.AppConfig
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDB()
	if err != nil {
		return err
	}
	store, err := storage.New(ctx, cfg.Media, cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to set up media storage: %w", err)
	}

	app := server.New(db, store, logger, cfg.Media.MaxUploadBytes)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           app.Container,
		ReadHeaderTimeout: 10 * time.Second,
	}

	grpcServer, healthServer := grpcserver.NewServer(logger, app.Users, app.Recipes)
	grpcListener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC on port %d: %w", cfg.GRPCPort, err)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	eg.Go(func() error {
		logger.Info("gRPC server listening", zap.String("addr", grpcListener.Addr().String()))
		if err := grpcServer.Serve(grpcListener); err != nil {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})

	deregister := selfRegister(cfg)

	eg.Go(func() error {
		<-egCtx.Done()
		logger.Info("Shutting down")
		deregister()
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown failed", zap.Error(err))
		}
		grpcServer.GracefulStop()
		return nil
	})

	if err := eg.Wait(); err != nil {
		logger.Error("Server failed", zap.Error(err))
		return err
	}
	return nil
}

// selfRegister announces both listeners to Consul when enabled. Registration
// problems are logged, never fatal.
func selfRegister(cfg config.Config) func() {
	noop := func() {}
	if !cfg.Consul.Enabled {
		return noop
	}
	reg, err := registry.NewConsulRegistry(cfg.Consul, logger.Sugar())
	if err != nil {
		logger.Warn("Service registration disabled", zap.Error(err))
		return noop
	}
	deregister, err := registry.SelfRegister(reg, cfg.Consul.AdvertiseHost,
		registry.Endpoint{Name: cfg.ServiceName + "-http", Port: cfg.HTTPPort, HTTPPath: server.HealthPath},
		registry.Endpoint{Name: cfg.ServiceName + "-grpc", Port: cfg.GRPCPort},
	)
	if err != nil {
		logger.Warn("Service registration failed", zap.Error(err))
		return noop
	}
	return deregister
}
