package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssdl-lang/ssdlc/compiler"
	"github.com/ssdl-lang/ssdlc/compiler/diag"
	cachemem "github.com/ssdl-lang/ssdlc/internal/adapter/cache/memory"
	eventsmem "github.com/ssdl-lang/ssdlc/internal/adapter/events/memory"
	repomem "github.com/ssdl-lang/ssdlc/internal/adapter/repository/memory"
	"github.com/ssdl-lang/ssdlc/internal/domain"
	"github.com/ssdl-lang/ssdlc/internal/port"
)

const sampleYAML = `service:
  name: Air Quality Madrid
  scope: Environment
  version: 1.0.0

data_sources:
  measurements:
    Measurements:
      name: Measurements
      provider: fiware
      type: Sensor
      uri: https://data.iiss.at/dataskop/fiwarenosec
      query:
        type: AirQualityObserved
        select:
          - location
          - Nox
          - O3
          - dateObserved

application:
  type: Web
  layout: SinglePage
  roles:
    - User
    - Admin
  visualizations:
    Air Quality Visualization:
      name: Air Quality Visualization
      type: Map
      source: Measurements
      data:
        - location
        - address
        - NOx
        - O3
      extra:
        area: Madrid
      roles:
        - User

deployment:
  env:
    local:
      name: local
      uri: http://localhost/test
      port: 50055
      type: Docker
      credentials:
        user: admin
      roles:
        - Admin
`

func newTestService() (*CompileImpl, *repomem.DescriptorRegistryStub, *eventsmem.PublisherStub) {
	registry := repomem.NewDescriptorRegistryStub()
	publisher := eventsmem.NewPublisherStub()
	svc := NewCompileImpl(compiler.New(compiler.DefaultConfig()), registry, publisher)
	return svc, registry, publisher
}

func TestCompileRegistersAndPublishes(t *testing.T) {
	ctx := context.Background()
	svc, registry, publisher := newTestService()

	resp, err := svc.Compile(ctx, port.CompileRequest{Name: "airquality", Source: sampleYAML})
	require.NoError(t, err)

	assert.Equal(t, string(compiler.StateEmitted), resp.State)
	assert.Zero(t, resp.ExitCode)
	assert.Empty(t, resp.Diagnostics)
	assert.NotEmpty(t, resp.IR)
	assert.NotEmpty(t, resp.ContentHash)
	assert.Equal(t, compiler.ComputeDescriptorHash([]byte(sampleYAML)), resp.DescriptorHash)

	rec, err := registry.Find(ctx, "airquality")
	require.NoError(t, err)
	assert.Equal(t, string(compiler.StateEmitted), rec.State)
	assert.Equal(t, resp.DescriptorHash, rec.Hash)
	assert.Equal(t, []byte(resp.IR), rec.IR)
	var diags []diag.Diagnostic
	require.NoError(t, json.Unmarshal(rec.Diagnostics, &diags))
	assert.Empty(t, diags)

	require.Len(t, publisher.Compiled, 1)
	assert.Empty(t, publisher.Failed)
	event := publisher.Compiled[0]
	assert.Equal(t, "airquality", event.Name)
	assert.Equal(t, resp.DescriptorHash, event.DescriptorHash)
	assert.Equal(t, resp.ContentHash, event.ContentHash)
	assert.NotEmpty(t, event.EventID)
	assert.Zero(t, event.Warnings)
}

func TestCompileFailurePublishesFailed(t *testing.T) {
	ctx := context.Background()
	svc, registry, publisher := newTestService()

	broken := strings.Replace(sampleYAML, "source: Measurements", "source: Measurements2", 1)
	resp, err := svc.Compile(ctx, port.CompileRequest{Name: "broken", Source: broken})
	require.NoError(t, err)

	assert.Equal(t, string(compiler.StateFailed), resp.State)
	assert.Equal(t, string(compiler.StageResolve), resp.FailedStage)
	assert.Equal(t, 1, resp.ExitCode)
	assert.Empty(t, resp.IR)
	require.Len(t, resp.Diagnostics, 1)
	assert.Equal(t, diag.CodeDanglingReference, resp.Diagnostics[0].Code)

	rec, err := registry.Find(ctx, "broken")
	require.NoError(t, err)
	assert.Equal(t, string(compiler.StateFailed), rec.State)
	assert.Equal(t, string(compiler.StageResolve), rec.FailedStage)
	assert.Empty(t, rec.IR)

	require.Len(t, publisher.Failed, 1)
	assert.Empty(t, publisher.Compiled)
	event := publisher.Failed[0]
	assert.Equal(t, string(compiler.StageResolve), event.FailedStage)
	assert.Equal(t, 1, event.Fatals)
}

func TestCompileAnonymousSkipsRegistry(t *testing.T) {
	ctx := context.Background()
	svc, registry, _ := newTestService()

	_, err := svc.Compile(ctx, port.CompileRequest{Source: sampleYAML})
	require.NoError(t, err)

	items, err := registry.List(ctx, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCompileRejectsEmptySource(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Compile(context.Background(), port.CompileRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source is required")
}

func TestValidate(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	resp, err := svc.Validate(ctx, port.ValidateRequest{Source: sampleYAML})
	require.NoError(t, err)
	assert.Equal(t, string(compiler.StateEmitted), resp.State)
	assert.Zero(t, resp.ExitCode)
	assert.Empty(t, resp.Diagnostics)

	drift := strings.Replace(sampleYAML, "version: 1.0.0", "version: 1.2.0", 1)
	resp, err = svc.Validate(ctx, port.ValidateRequest{Source: drift})
	require.NoError(t, err)
	assert.Equal(t, string(compiler.StateEmitted), resp.State)
	require.Len(t, resp.Diagnostics, 1)
	assert.Equal(t, diag.CodeVersionDrift, resp.Diagnostics[0].Code)
}

func TestDescriptorLookup(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()

	_, err := svc.Compile(ctx, port.CompileRequest{Name: "airquality", Source: sampleYAML})
	require.NoError(t, err)

	rec, err := svc.GetDescriptor(ctx, "airquality")
	require.NoError(t, err)
	assert.Equal(t, "airquality", rec.Name)

	_, err = svc.GetDescriptor(ctx, "missing")
	assert.ErrorIs(t, err, port.ErrDescriptorNotFound)

	items, err := svc.ListDescriptors(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)

	require.NoError(t, svc.DeleteDescriptor(ctx, "airquality"))
	_, err = svc.GetDescriptor(ctx, "airquality")
	assert.ErrorIs(t, err, port.ErrDescriptorNotFound)
}

// countingCompile wraps a Compile service and counts Compile calls.
type countingCompile struct {
	base  port.Compile
	calls int
}

func (c *countingCompile) Compile(ctx context.Context, req port.CompileRequest) (port.CompileResponse, error) {
	c.calls++
	return c.base.Compile(ctx, req)
}

func (c *countingCompile) Validate(ctx context.Context, req port.ValidateRequest) (port.ValidateResponse, error) {
	return c.base.Validate(ctx, req)
}

func (c *countingCompile) GetDescriptor(ctx context.Context, name string) (*domain.DescriptorRecord, error) {
	return c.base.GetDescriptor(ctx, name)
}

func (c *countingCompile) ListDescriptors(ctx context.Context, offset, limit int) ([]domain.DescriptorRecord, error) {
	return c.base.ListDescriptors(ctx, offset, limit)
}

func (c *countingCompile) DeleteDescriptor(ctx context.Context, name string) error {
	return c.base.DeleteDescriptor(ctx, name)
}

func TestCachedCompileHit(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()
	base := &countingCompile{base: svc}
	cache := cachemem.NewCacheStub()
	cached := NewCompileCached(base, cache, time.Hour)

	drift := strings.Replace(sampleYAML, "version: 1.0.0", "version: 1.2.0", 1)

	first, err := cached.Compile(ctx, port.CompileRequest{Source: drift})
	require.NoError(t, err)
	assert.Equal(t, 1, base.calls)
	assert.False(t, first.Cached)
	assert.Equal(t, 1, cache.Len())

	second, err := cached.Compile(ctx, port.CompileRequest{Source: drift})
	require.NoError(t, err)
	assert.Equal(t, 1, base.calls, "hit must not recompile")
	assert.True(t, second.Cached)
	assert.Equal(t, first.IR, second.IR)
	assert.Equal(t, first.DescriptorHash, second.DescriptorHash)
	assert.Equal(t, first.ContentHash, second.ContentHash)

	// The document carries its warnings, so the hit reports them too.
	require.Len(t, second.Diagnostics, 1)
	assert.Equal(t, diag.CodeVersionDrift, second.Diagnostics[0].Code)
}

func TestCachedCompileNamedBypassesCache(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()
	base := &countingCompile{base: svc}
	cache := cachemem.NewCacheStub()
	cached := NewCompileCached(base, cache, time.Hour)

	for i := 0; i < 2; i++ {
		_, err := cached.Compile(ctx, port.CompileRequest{Name: "airquality", Source: sampleYAML})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, base.calls)
	assert.Zero(t, cache.Len())
}

func TestCachedCompileDoesNotCacheFailures(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService()
	cache := cachemem.NewCacheStub()
	cached := NewCompileCached(svc, cache, time.Hour)

	broken := strings.Replace(sampleYAML, "source: Measurements", "source: Measurements2", 1)
	resp, err := cached.Compile(ctx, port.CompileRequest{Source: broken})
	require.NoError(t, err)
	assert.Equal(t, string(compiler.StateFailed), resp.State)
	assert.Zero(t, cache.Len())
}
