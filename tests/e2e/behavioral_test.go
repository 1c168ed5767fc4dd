// Package e2e compiles the shipped example descriptors through the full
// pipeline and checks the cross-cutting behavior no single package owns:
// determinism, cross-syntax equivalence, and the exit-code contract.
package e2e

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssdl-lang/ssdlc/compiler"
	"github.com/ssdl-lang/ssdlc/compiler/diag"
)

func compileExample(t *testing.T, name string) *compiler.Result {
	t.Helper()
	path := filepath.Join("..", "..", "examples", name)
	src, err := os.ReadFile(path)
	require.NoError(t, err)

	res, err := compiler.New(compiler.DefaultConfig()).CompileBytes(name, src)
	require.NoError(t, err)
	return res
}

func TestExamplesCompileClean(t *testing.T) {
	for _, name := range []string{
		"airquality.ssdl.yaml",
		"airquality.ssdl.json",
		"airquality.ssdl.cue",
	} {
		t.Run(name, func(t *testing.T) {
			res := compileExample(t, name)
			assert.Equal(t, compiler.StateEmitted, res.State, "diagnostics: %v", res.Diagnostics)
			assert.Equal(t, 0, res.ExitCode())
			assert.Empty(t, res.Diagnostics)
			assert.Contains(t, res.IR.DataSources, "Measurements")
			assert.Contains(t, res.IR.Visualizations, "Air Quality Visualization")
			assert.Contains(t, res.IR.DeploymentEnvs, "local")
		})
	}
}

// The three renditions describe the same system, so they agree on the IR
// content hash while their descriptor hashes differ with the raw bytes.
func TestSyntaxesAgreeOnContent(t *testing.T) {
	yaml := compileExample(t, "airquality.ssdl.yaml")
	json := compileExample(t, "airquality.ssdl.json")
	cue := compileExample(t, "airquality.ssdl.cue")

	require.Equal(t, compiler.StateEmitted, yaml.State)
	require.Equal(t, compiler.StateEmitted, json.State)
	require.Equal(t, compiler.StateEmitted, cue.State)

	assert.Equal(t, yaml.IR.ContentHash, json.IR.ContentHash)
	assert.Equal(t, yaml.IR.ContentHash, cue.IR.ContentHash)
	assert.True(t, bytes.Equal(yaml.CanonicalIR, json.CanonicalIR))
	assert.True(t, bytes.Equal(yaml.CanonicalIR, cue.CanonicalIR))

	assert.NotEqual(t, yaml.DescriptorHash, json.DescriptorHash)
	assert.NotEqual(t, yaml.DescriptorHash, cue.DescriptorHash)
}

func TestRecompileIsByteIdentical(t *testing.T) {
	first := compileExample(t, "airquality.ssdl.yaml")
	second := compileExample(t, "airquality.ssdl.yaml")

	require.Equal(t, compiler.StateEmitted, first.State)
	assert.Equal(t, first.DescriptorHash, second.DescriptorHash)
	assert.Equal(t, first.IR.ContentHash, second.IR.ContentHash)
	assert.True(t, bytes.Equal(first.CanonicalIR, second.CanonicalIR))
}

func TestBrokenDescriptorAggregatesDiagnostics(t *testing.T) {
	path := filepath.Join("..", "..", "examples", "airquality.ssdl.yaml")
	src, err := os.ReadFile(path)
	require.NoError(t, err)

	// Break two independent things at once: a dangling source reference and
	// an undeclared role. One run must report both.
	broken := strings.Replace(string(src), "source: Measurements\n", "source: Ghost\n", 1)
	broken = strings.Replace(broken, "    - User\n    - Admin\n", "    - User\n", 1)

	res, err := compiler.New(compiler.DefaultConfig()).CompileBytes("airquality.ssdl.yaml", []byte(broken))
	require.NoError(t, err)

	assert.Equal(t, compiler.StateFailed, res.State)
	assert.Equal(t, compiler.StageResolve, res.FailedStage)
	assert.Equal(t, 1, res.ExitCode())
	assert.Nil(t, res.IR)
	assert.NotEmpty(t, res.Diagnostics.ByCode(diag.CodeDanglingReference))
	assert.NotEmpty(t, res.Diagnostics.ByCode(diag.CodeUndeclaredRole))
}

func TestMalformedDescriptorExitsTwo(t *testing.T) {
	res, err := compiler.New(compiler.DefaultConfig()).CompileBytes("broken.ssdl.yaml", []byte("service: [unclosed"))
	require.NoError(t, err)

	assert.Equal(t, compiler.StateFailed, res.State)
	assert.Equal(t, compiler.StageParse, res.FailedStage)
	assert.Equal(t, 2, res.ExitCode())
	assert.NotEmpty(t, res.Diagnostics.ByCode(diag.CodeParse))
}
