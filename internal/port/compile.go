package port

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ssdl-lang/ssdlc/compiler/diag"
	"github.com/ssdl-lang/ssdlc/internal/domain"
)

// MaxSourceBytes bounds accepted descriptor sources.
const MaxSourceBytes = 1 << 20

type Compile interface {
	Compile(ctx context.Context, req CompileRequest) (CompileResponse, error)
	Validate(ctx context.Context, req ValidateRequest) (ValidateResponse, error)
	GetDescriptor(ctx context.Context, name string) (*domain.DescriptorRecord, error)
	ListDescriptors(ctx context.Context, offset int, limit int) ([]domain.DescriptorRecord, error)
	DeleteDescriptor(ctx context.Context, name string) error
}

// Request/Response DTOs

type CompileRequest struct {
	// Name registers the descriptor in the registry. Empty compiles
	// anonymously.
	Name string `json:"name,omitempty" validate:"omitempty,max=128"`
	// Source is the descriptor text. Filename selects the decode syntax by
	// extension; empty means YAML.
	Source   string `json:"source" validate:"required"`
	Filename string `json:"filename,omitempty" validate:"omitempty,max=255"`
}

func (d *CompileRequest) Validate() error {
	if d.Source == "" {
		return fmt.Errorf("source is required")
	}
	if len(d.Source) > MaxSourceBytes {
		return fmt.Errorf("source exceeds %d bytes", MaxSourceBytes)
	}
	return nil
}

type CompileResponse struct {
	State          string            `json:"state"`
	FailedStage    string            `json:"failedStage,omitempty"`
	DescriptorHash string            `json:"descriptorHash"`
	ContentHash    string            `json:"contentHash,omitempty"`
	ExitCode       int               `json:"exitCode"`
	Cached         bool              `json:"cached,omitempty"`
	IR             json.RawMessage   `json:"ir,omitempty"`
	Diagnostics    []diag.Diagnostic `json:"diagnostics"`
}

func (d *CompileResponse) Validate() error {
	return nil
}

type ValidateRequest struct {
	Source   string `json:"source" validate:"required"`
	Filename string `json:"filename,omitempty" validate:"omitempty,max=255"`
}

func (d *ValidateRequest) Validate() error {
	if d.Source == "" {
		return fmt.Errorf("source is required")
	}
	if len(d.Source) > MaxSourceBytes {
		return fmt.Errorf("source exceeds %d bytes", MaxSourceBytes)
	}
	return nil
}

type ValidateResponse struct {
	State          string            `json:"state"`
	FailedStage    string            `json:"failedStage,omitempty"`
	DescriptorHash string            `json:"descriptorHash"`
	ExitCode       int               `json:"exitCode"`
	Diagnostics    []diag.Diagnostic `json:"diagnostics"`
}

func (d *ValidateResponse) Validate() error {
	return nil
}
