package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/ssdl-lang/ssdlc/internal/bootstrap"
	"github.com/ssdl-lang/ssdlc/internal/config"
	"github.com/ssdl-lang/ssdlc/internal/mcp"
	"github.com/ssdl-lang/ssdlc/internal/pkg/logger"
	httptransport "github.com/ssdl-lang/ssdlc/internal/transport/http"
)

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	addr := fs.String("addr", "", "listen address override")
	cfgPath := fs.String("config", "", "YAML config file; env vars still override")
	if err := fs.Parse(args); err != nil {
		fmt.Printf("Serve FAILED: %v\n", err)
		os.Exit(1)
	}

	cfg, err := loadServeConfig(*cfgPath)
	if err != nil {
		fmt.Printf("Serve FAILED: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}

	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Printf("Serve FAILED: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()
	container, err := bootstrap.NewRuntimeContainer(ctx, cfg)
	if err != nil {
		log.Error("bootstrap failed", zap.Error(err))
		os.Exit(1)
	}

	hub := httptransport.NewHub()
	handler := httptransport.NewHandler(container.SvcCompile, hub)
	router := httptransport.NewRouter(handler, hub, container.Keys,
		cfg.HTTP.CORSOrigins, cfg.Auth.RequireAPIKey)

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      otelhttp.NewHandler(router, "ssdlc.http"),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Info("serving",
		zap.String("addr", cfg.HTTP.Addr),
		zap.Bool("api_key_required", cfg.Auth.RequireAPIKey))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown incomplete", zap.Error(err))
	}
	container.Close(shutdownCtx)
}

func loadServeConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}

func runMCP() {
	cfg := loadConfig()

	// Stdout carries the MCP protocol stream; the console format keeps zap
	// on stderr.
	log, err := logger.Init(cfg.LogLevel, logger.FormatConsole)
	if err != nil {
		fmt.Fprintf(os.Stderr, "MCP FAILED: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()
	container, err := bootstrap.NewRuntimeContainer(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "MCP FAILED: %v\n", err)
		os.Exit(1)
	}
	defer container.Close(ctx)

	mcp.Run(container.SvcCompile)
}
