package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/ssdl-lang/ssdlc/compiler"
	"github.com/ssdl-lang/ssdlc/compiler/diag"
	"github.com/ssdl-lang/ssdlc/compiler/ir"
	"github.com/ssdl-lang/ssdlc/internal/domain"
	"github.com/ssdl-lang/ssdlc/internal/pkg/logger"
	"github.com/ssdl-lang/ssdlc/internal/port"
)

// CompileCached fronts a Compile service with an IR cache keyed by
// descriptor hash. Compilation is idempotent, so a hit answers exactly what
// a fresh run would. Named compiles bypass the cache: they also update the
// registry.
type CompileCached struct {
	base  port.Compile
	cache port.IRCache
	ttl   time.Duration
}

func NewCompileCached(base port.Compile, cache port.IRCache, ttl time.Duration) *CompileCached {
	return &CompileCached{base: base, cache: cache, ttl: ttl}
}

func (c *CompileCached) Compile(ctx context.Context, req port.CompileRequest) (port.CompileResponse, error) {
	if req.Name != "" || c.cache == nil {
		return c.base.Compile(ctx, req)
	}

	hash := compiler.ComputeDescriptorHash([]byte(req.Source))
	if cached, ok, err := c.cache.Get(ctx, hash); err == nil && ok {
		if resp, ok := responseFromCachedIR(hash, cached); ok {
			logger.From(ctx).Debug("ir cache hit", zap.String("descriptor_hash", hash))
			return resp, nil
		}
	} else if err != nil {
		logger.From(ctx).Warn("ir cache get failed", zap.Error(err))
	}

	resp, err := c.base.Compile(ctx, req)
	if err == nil && resp.State == string(compiler.StateEmitted) && len(resp.IR) > 0 {
		if err := c.cache.Set(ctx, hash, resp.IR, c.ttl); err != nil {
			logger.From(ctx).Warn("ir cache set failed", zap.Error(err))
		}
	}
	return resp, err
}

func (c *CompileCached) Validate(ctx context.Context, req port.ValidateRequest) (port.ValidateResponse, error) {
	return c.base.Validate(ctx, req)
}

func (c *CompileCached) GetDescriptor(ctx context.Context, name string) (*domain.DescriptorRecord, error) {
	return c.base.GetDescriptor(ctx, name)
}

func (c *CompileCached) ListDescriptors(ctx context.Context, offset, limit int) ([]domain.DescriptorRecord, error) {
	return c.base.ListDescriptors(ctx, offset, limit)
}

func (c *CompileCached) DeleteDescriptor(ctx context.Context, name string) error {
	return c.base.DeleteDescriptor(ctx, name)
}

// responseFromCachedIR rebuilds a compile response from cached canonical
// bytes. Only emitted documents are cached, and the document carries its
// warnings, so nothing is lost.
func responseFromCachedIR(hash string, cached []byte) (port.CompileResponse, bool) {
	var doc ir.Document
	if err := json.Unmarshal(cached, &doc); err != nil {
		return port.CompileResponse{}, false
	}
	return port.CompileResponse{
		State:          string(compiler.StateEmitted),
		DescriptorHash: hash,
		ContentHash:    doc.ContentHash,
		ExitCode:       0,
		Cached:         true,
		IR:             json.RawMessage(cached),
		Diagnostics:    append(make([]diag.Diagnostic, 0, len(doc.Warnings)), doc.Warnings...),
	}, true
}

var _ port.Compile = (*CompileCached)(nil)
