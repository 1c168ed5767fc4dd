// Package service orchestrates compilation for serve mode: pipeline runs,
// registry bookkeeping, and outcome events. The pipeline stays pure;
// everything operational lives here.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ssdl-lang/ssdlc/compiler"
	"github.com/ssdl-lang/ssdlc/compiler/diag"
	"github.com/ssdl-lang/ssdlc/internal/domain"
	"github.com/ssdl-lang/ssdlc/internal/pkg/logger"
	"github.com/ssdl-lang/ssdlc/internal/pkg/telemetry"
	"github.com/ssdl-lang/ssdlc/internal/port"
)

type CompileImpl struct {
	Compiler  *compiler.Compiler
	Registry  port.DescriptorRegistry
	publisher port.Publisher
}

func NewCompileImpl(comp *compiler.Compiler, registry port.DescriptorRegistry, publisher port.Publisher) *CompileImpl {
	return &CompileImpl{Compiler: comp, Registry: registry, publisher: publisher}
}

func (s *CompileImpl) Compile(ctx context.Context, req port.CompileRequest) (resp port.CompileResponse, err error) {
	if err := req.Validate(); err != nil {
		return resp, err
	}

	ctx, span := telemetry.Tracer().Start(ctx, "compile")
	defer span.End()

	runID := uuid.NewString()
	start := time.Now()

	res, err := s.Compiler.CompileBytes(sourceName(req.Filename), []byte(req.Source))
	if err != nil {
		return resp, err
	}

	span.SetAttributes(
		attribute.String("descriptor.hash", res.DescriptorHash),
		attribute.String("compile.state", string(res.State)),
		attribute.Int("compile.fatals", len(res.Diagnostics.Fatals())),
		attribute.Int("compile.warnings", len(res.Diagnostics.Warnings())),
	)

	resp = compileResponse(res)

	if req.Name != "" {
		if err := s.saveRecord(ctx, req.Name, []byte(req.Source), res); err != nil {
			return resp, err
		}
	}
	s.publishOutcome(ctx, req.Name, res)

	logger.From(ctx).Info("compile finished",
		zap.String("run_id", runID),
		zap.String("descriptor_hash", res.DescriptorHash),
		zap.String("state", string(res.State)),
		zap.String("failed_stage", string(res.FailedStage)),
		zap.Int("fatals", len(res.Diagnostics.Fatals())),
		zap.Int("warnings", len(res.Diagnostics.Warnings())),
		zap.Duration("duration", time.Since(start)),
	)

	return resp, nil
}

func (s *CompileImpl) Validate(ctx context.Context, req port.ValidateRequest) (resp port.ValidateResponse, err error) {
	if err := req.Validate(); err != nil {
		return resp, err
	}

	res, err := s.Compiler.CompileBytes(sourceName(req.Filename), []byte(req.Source))
	if err != nil {
		return resp, err
	}

	resp = port.ValidateResponse{
		State:          string(res.State),
		FailedStage:    string(res.FailedStage),
		DescriptorHash: res.DescriptorHash,
		ExitCode:       res.ExitCode(),
		Diagnostics:    copyDiagnostics(res.Diagnostics),
	}
	return resp, nil
}

func (s *CompileImpl) GetDescriptor(ctx context.Context, name string) (*domain.DescriptorRecord, error) {
	if s.Registry == nil {
		return nil, fmt.Errorf("registry not configured")
	}
	return s.Registry.Find(ctx, name)
}

func (s *CompileImpl) ListDescriptors(ctx context.Context, offset, limit int) ([]domain.DescriptorRecord, error) {
	if s.Registry == nil {
		return nil, fmt.Errorf("registry not configured")
	}
	return s.Registry.List(ctx, offset, limit)
}

func (s *CompileImpl) DeleteDescriptor(ctx context.Context, name string) error {
	if s.Registry == nil {
		return fmt.Errorf("registry not configured")
	}
	return s.Registry.Delete(ctx, name)
}

func (s *CompileImpl) saveRecord(ctx context.Context, name string, source []byte, res *compiler.Result) error {
	if s.Registry == nil {
		return fmt.Errorf("registry not configured")
	}
	diags, err := json.Marshal(res.Diagnostics)
	if err != nil {
		return fmt.Errorf("marshal diagnostics: %w", err)
	}
	return s.Registry.Save(ctx, &domain.DescriptorRecord{
		Name:        name,
		Source:      source,
		Hash:        res.DescriptorHash,
		State:       string(res.State),
		FailedStage: string(res.FailedStage),
		IR:          res.CanonicalIR,
		Diagnostics: diags,
		UpdatedAt:   time.Now().UTC(),
	})
}

func (s *CompileImpl) publishOutcome(ctx context.Context, name string, res *compiler.Result) {
	if s.publisher == nil {
		return
	}
	var err error
	if res.State == compiler.StateEmitted {
		err = s.publisher.PublishDescriptorCompiled(ctx, domain.DescriptorCompiled{
			EventID:        uuid.NewString(),
			Name:           name,
			DescriptorHash: res.DescriptorHash,
			ContentHash:    res.IR.ContentHash,
			SchemaVersion:  res.IR.SchemaVersion,
			Warnings:       len(res.Diagnostics.Warnings()),
		})
	} else {
		err = s.publisher.PublishDescriptorFailed(ctx, domain.DescriptorFailed{
			EventID:        uuid.NewString(),
			Name:           name,
			DescriptorHash: res.DescriptorHash,
			FailedStage:    string(res.FailedStage),
			Fatals:         len(res.Diagnostics.Fatals()),
			Warnings:       len(res.Diagnostics.Warnings()),
		})
	}
	if err != nil {
		logger.From(ctx).Warn("publish outcome failed", zap.Error(err))
	}
}

func compileResponse(res *compiler.Result) port.CompileResponse {
	resp := port.CompileResponse{
		State:          string(res.State),
		FailedStage:    string(res.FailedStage),
		DescriptorHash: res.DescriptorHash,
		ExitCode:       res.ExitCode(),
		Diagnostics:    copyDiagnostics(res.Diagnostics),
	}
	if res.State == compiler.StateEmitted {
		resp.IR = json.RawMessage(res.CanonicalIR)
		resp.ContentHash = res.IR.ContentHash
	}
	return resp
}

func copyDiagnostics(list diag.List) []diag.Diagnostic {
	out := make([]diag.Diagnostic, 0, len(list))
	return append(out, list...)
}

// sourceName defaults anonymous submissions to a YAML name; the parser
// selects syntax by extension.
func sourceName(filename string) string {
	if filename == "" {
		return "descriptor.yaml"
	}
	return filename
}

var _ port.Compile = (*CompileImpl)(nil)
