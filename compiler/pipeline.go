package compiler

import (
	"crypto/sha256"
	"fmt"
	"os"

	"github.com/ssdl-lang/ssdlc/compiler/descriptor"
	"github.com/ssdl-lang/ssdlc/compiler/diag"
	"github.com/ssdl-lang/ssdlc/compiler/emitter"
	"github.com/ssdl-lang/ssdlc/compiler/ir"
	"github.com/ssdl-lang/ssdlc/compiler/parser"
	"github.com/ssdl-lang/ssdlc/compiler/providers"
	"github.com/ssdl-lang/ssdlc/compiler/resolver"
)

const (
	// Version is the compiler release, echoed into every emitted document.
	Version = "0.3.0"
	// SchemaVersion is the IR schema generation this release emits.
	SchemaVersion = ir.SchemaV1
)

// ComputeDescriptorHash returns the cache key for a descriptor source.
func ComputeDescriptorHash(src []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(src))
}

// Config is the explicit compiler configuration. Everything a stage needs to
// vary per deployment rides here, never in package state, so differently
// configured compilers can run in one process.
type Config struct {
	// SupportedMajors is the set of descriptor major versions the gate
	// accepts.
	SupportedMajors []int
	// Language is the descriptor language version this compiler speaks.
	// Same major but a different minor or patch compiles with a drift
	// warning.
	Language descriptor.Version
	// Workers is the resolver fan-out width. 1 is serial.
	Workers int
	// Providers maps provider tags to query compilation strategies.
	Providers *providers.Registry
	// VisTypes is the registered visualization type vocabulary.
	VisTypes []string
	// WarningSink, when set, receives every diagnostic as it is recorded.
	WarningSink diag.Sink
}

// DefaultConfig is the stock single-major configuration.
func DefaultConfig() Config {
	return Config{
		SupportedMajors: []int{1},
		Language:        descriptor.Version{Major: 1, Minor: 0, Patch: 0},
		Workers:         1,
		Providers:       providers.DefaultRegistry(),
		VisTypes:        append([]string(nil), descriptor.VisTypes...),
	}
}

// State tracks pipeline progress. A run is linear: each stage advances the
// state or parks the run in StateFailed, which is terminal.
type State string

const (
	StateInit           State = "INIT"
	StateParsed         State = "PARSED"
	StateVersionChecked State = "VERSION_CHECKED"
	StateExtracted      State = "EXTRACTED"
	StateResolved       State = "RESOLVED"
	StateCompiled       State = "COMPILED"
	StateEmitted        State = "EMITTED"
	StateFailed         State = "FAILED"
)

// Result is everything one run produced. Diagnostics always carries the full
// aggregated list in declaration order; IR and CanonicalIR are set only when
// the run reached StateEmitted.
type Result struct {
	State          State
	FailedStage    Stage
	DescriptorHash string
	Descriptor     *descriptor.Descriptor
	IR             *ir.Document
	CanonicalIR    []byte
	Diagnostics    diag.List
}

// ExitCode maps the aggregated diagnostics onto the CLI contract: 0 clean,
// 2 malformed input, 1 any other fatal.
func (r *Result) ExitCode() int {
	if r == nil {
		return 1
	}
	if !r.Diagnostics.HasFatal() {
		return 0
	}
	if len(r.Diagnostics.ByCode(diag.CodeParse)) > 0 {
		return 2
	}
	return 1
}

// Compiler runs the six-stage pipeline over one descriptor per call. It is
// safe for concurrent use; all run state lives in the Result.
type Compiler struct {
	cfg Config
}

// New builds a compiler, filling zero config fields from DefaultConfig.
func New(cfg Config) *Compiler {
	if len(cfg.SupportedMajors) == 0 {
		cfg.SupportedMajors = []int{1}
	}
	if (cfg.Language == descriptor.Version{}) {
		cfg.Language = descriptor.Version{Major: 1, Minor: 0, Patch: 0}
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Providers == nil {
		cfg.Providers = providers.DefaultRegistry()
	}
	if len(cfg.VisTypes) == 0 {
		cfg.VisTypes = append([]string(nil), descriptor.VisTypes...)
	}
	return &Compiler{cfg: cfg}
}

// CompileFile reads path and compiles it. The read itself failing is a
// contract fault, not a descriptor diagnostic.
func (c *Compiler) CompileFile(path string) (*Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapContractError(StageParse, ErrCodeSourceRead, "read "+path, err)
	}
	return c.CompileBytes(path, src)
}

// CompileBytes runs the pipeline over one descriptor document. The returned
// error is reserved for contract faults; everything wrong with the
// descriptor itself lands in Result.Diagnostics.
func (c *Compiler) CompileBytes(filename string, src []byte) (*Result, error) {
	res := &Result{State: StateInit, DescriptorHash: ComputeDescriptorHash(src)}
	fail := func(stage Stage) (*Result, error) {
		res.State = StateFailed
		res.FailedStage = stage
		return res, nil
	}

	doc, err := parser.New().Parse(filename, src)
	if err != nil {
		pd := diag.Errorf(diag.CodeParse, "", "%s", err.Error())
		pd.File = filename
		c.record(res, diag.List{pd})
		return fail(StageParse)
	}
	structural := parser.CheckStructure(doc)
	c.record(res, structural)
	parseBroken := structural.HasFatal()
	if !parseBroken {
		res.State = StateParsed
	}

	// A tree survived, so the gate and the extractor run even when the
	// structure checks failed and the report stays exhaustive.
	gateBroken := false
	var compat descriptor.Compat
	if v, ok := descriptor.VersionFromDocument(doc); ok {
		var gate diag.List
		compat, gate = descriptor.CheckVersion(v, c.cfg.SupportedMajors, c.cfg.Language)
		c.record(res, gate)
		gateBroken = gate.HasFatal()
	}
	if !parseBroken && !gateBroken {
		res.State = StateVersionChecked
	}

	ex := descriptor.NewExtractor()
	ex.VisTypes = c.cfg.VisTypes
	desc, exDiags := ex.Extract(doc)
	res.Descriptor = desc
	c.record(res, exDiags)

	// Resolution needs a trustworthy entity set; any fatal so far means
	// there is none.
	switch {
	case parseBroken:
		return fail(StageParse)
	case gateBroken:
		return fail(StageVersion)
	case exDiags.HasFatal():
		return fail(StageExtract)
	}
	res.State = StateExtracted

	rs := resolver.New()
	rs.Workers = c.cfg.Workers
	resolution, resDiags := rs.Resolve(desc)
	c.record(res, resDiags)
	if resDiags.HasFatal() {
		return fail(StageResolve)
	}
	res.State = StateResolved

	plans := make(map[string]*ir.QueryPlan, len(desc.Sources))
	var planDiags diag.List
	for i := range desc.Sources {
		plan, pd := c.cfg.Providers.Compile(&desc.Sources[i])
		planDiags.Merge(pd)
		if plan != nil {
			plans[desc.Sources[i].Name] = plan
		}
	}
	c.record(res, planDiags)
	if planDiags.HasFatal() {
		return fail(StagePlan)
	}
	res.State = StateCompiled

	irDoc := ir.FromParts(desc, resolution, plans, compat, Version, res.Diagnostics.Warnings())
	if err := ir.MigrateToCurrent(irDoc); err != nil {
		res.State, res.FailedStage = StateFailed, StageEmit
		return res, WrapContractError(StageEmit, ErrCodeIRVersionMigration, "migrate ir document", err)
	}
	if err := ir.ValidateABI(irDoc); err != nil {
		res.State, res.FailedStage = StateFailed, StageEmit
		return res, WrapContractError(StageEmit, ErrCodeIRABIValidate, "validate ir abi", err)
	}
	res.IR = irDoc

	canonical, err := emitter.New(Version).Emit(irDoc)
	if err != nil {
		res.State, res.FailedStage = StateFailed, StageEmit
		return res, WrapContractError(StageEmit, ErrCodeEmitterStep, "emit canonical ir", err)
	}
	res.CanonicalIR = canonical
	res.State = StateEmitted
	return res, nil
}

func (c *Compiler) record(res *Result, l diag.List) {
	res.Diagnostics.Merge(l)
	if c.cfg.WarningSink == nil {
		return
	}
	for _, d := range l {
		c.cfg.WarningSink(d)
	}
}
