// Package bootstrap assembles the runtime: compiler, adapters, and services
// wired from config. Adapters with empty config stay off; the registry and
// key store fall back to in-memory implementations so a bare process still
// serves.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/ssdl-lang/ssdlc/compiler"
	authstore "github.com/ssdl-lang/ssdlc/internal/adapter/auth/memory"
	authpg "github.com/ssdl-lang/ssdlc/internal/adapter/auth/postgres"
	rediscache "github.com/ssdl-lang/ssdlc/internal/adapter/cache/redis"
	natsevents "github.com/ssdl-lang/ssdlc/internal/adapter/events/nats"
	repomem "github.com/ssdl-lang/ssdlc/internal/adapter/repository/memory"
	pgrepo "github.com/ssdl-lang/ssdlc/internal/adapter/repository/postgres"
	"github.com/ssdl-lang/ssdlc/internal/config"
	"github.com/ssdl-lang/ssdlc/internal/pkg/logger"
	"github.com/ssdl-lang/ssdlc/internal/pkg/telemetry"
	"github.com/ssdl-lang/ssdlc/internal/port"
	"github.com/ssdl-lang/ssdlc/internal/service"
)

type RuntimeContainer struct {
	Config   *config.Config
	Compiler *compiler.Compiler

	Pool  *pgxpool.Pool
	NATS  *natsevents.Client
	Redis *redis.Client

	Registry  port.DescriptorRegistry
	Keys      port.KeyStore
	Publisher port.Publisher
	Cache     port.IRCache

	SvcCompile port.Compile

	tracingShutdown func(context.Context) error
}

func NewRuntimeContainer(ctx context.Context, cfg *config.Config) (*RuntimeContainer, error) {
	c := &RuntimeContainer{Config: cfg}

	lang, err := cfg.Compiler.Language()
	if err != nil {
		return nil, err
	}
	reg, err := cfg.Compiler.Registry()
	if err != nil {
		return nil, err
	}
	c.Compiler = compiler.New(compiler.Config{
		SupportedMajors: cfg.Compiler.SupportedMajors,
		Language:        lang,
		Workers:         cfg.Compiler.Workers,
		Providers:       reg,
	})

	shutdown, err := telemetry.Init(ctx, cfg.OTLP.Endpoint, cfg.OTLP.Insecure, compiler.Version)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	c.tracingShutdown = shutdown

	c.Registry = repomem.NewDescriptorRegistryStub()
	c.Keys = authstore.NewMemoryStore()
	if cfg.Postgres.DSN != "" {
		pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			c.Close(ctx)
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		c.Pool = pool

		registry := pgrepo.NewDescriptorRegistry(pool)
		if err := registry.EnsureSchema(ctx); err != nil {
			c.Close(ctx)
			return nil, fmt.Errorf("descriptor schema: %w", err)
		}
		keys := authpg.NewStore(pool)
		if err := keys.EnsureSchema(ctx); err != nil {
			c.Close(ctx)
			return nil, fmt.Errorf("api key schema: %w", err)
		}
		c.Registry = registry
		c.Keys = keys
	}

	if cfg.NATS.URL != "" {
		nc, err := natsevents.NewClient(cfg.NATS.URL)
		if err != nil {
			c.Close(ctx)
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		c.NATS = nc
		c.Publisher = natsevents.NewPublisher(nc, cfg.NATS.SubjectPrefix)
	}

	svc := service.NewCompileImpl(c.Compiler, c.Registry, c.Publisher)
	c.SvcCompile = svc

	if cfg.Redis.Addr != "" {
		c.Redis = rediscache.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		cache := rediscache.NewCache(c.Redis)
		c.Cache = cache
		c.SvcCompile = service.NewCompileCached(svc, cache, cfg.Redis.TTL)
	}

	return c, nil
}

func (c *RuntimeContainer) Close(ctx context.Context) {
	if c.NATS != nil {
		c.NATS.Close()
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logger.From(ctx).Warn("redis close failed", zap.Error(err))
		}
	}
	if c.Pool != nil {
		c.Pool.Close()
	}
	if c.tracingShutdown != nil {
		if err := c.tracingShutdown(ctx); err != nil {
			logger.From(ctx).Warn("tracing shutdown failed", zap.Error(err))
		}
	}
}
