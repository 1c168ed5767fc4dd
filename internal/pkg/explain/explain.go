// Package explain carries the human-readable register for stable error
// codes. The CLI explain command and the MCP explain tool both read it.
package explain

import (
	"sort"
	"strings"

	"github.com/ssdl-lang/ssdlc/compiler"
	"github.com/ssdl-lang/ssdlc/compiler/diag"
)

type Entry struct {
	Code        string `json:"code"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Example     string `json:"example,omitempty"`
}

var register = map[string]Entry{
	diag.CodeParse: {
		Code:        diag.CodeParse,
		Title:       "Descriptor source is not well-formed",
		Description: "The source is not valid YAML, JSON, or CUE, so no document could be decoded. Nothing past the parse stage runs; fix the syntax error at the reported line first.",
		Example:     "service:\n  name: Air Quality   # a stray tab or unclosed quote above this line breaks the parse",
	},
	diag.CodeVersionUnsupported: {
		Code:        diag.CodeVersionUnsupported,
		Title:       "Descriptor major version unsupported",
		Description: "service.version names a major version this compiler does not accept. Majors gate compilation: a different major means the vocabulary itself may have changed.",
		Example:     "service:\n  version: 1.0.0   # majors other than the supported set are rejected",
	},
	diag.CodeDuplicateKey: {
		Code:        diag.CodeDuplicateKey,
		Title:       "Duplicate key inside one mapping",
		Description: "The same key appears twice in a single mapping. Later entries would silently win, so the duplicate is a fatal instead.",
		Example:     "query:\n  type: AirQualityObserved\n  type: WeatherObserved   # second 'type' collides",
	},
	diag.CodeKeyMismatch: {
		Code:        diag.CodeKeyMismatch,
		Title:       "Mapping key disagrees with the name field",
		Description: "A named block's mapping key and its inner name field must match exactly. The key is the identity references resolve against.",
		Example:     "visualizations:\n  Air Map:\n    name: AirMap   # key 'Air Map' != name 'AirMap'",
	},
	diag.CodeDanglingReference: {
		Code:        diag.CodeDanglingReference,
		Title:       "Visualization references an unknown data source",
		Description: "A visualization's source names a data source that is not declared under data_sources. Declare the source or fix the spelling; matching is exact.",
		Example:     "visualizations:\n  Panel:\n    source: Measurements   # must exist under data_sources",
	},
	diag.CodeUndeclaredRole: {
		Code:        diag.CodeUndeclaredRole,
		Title:       "Role used but not declared",
		Description: "A visualization or deployment environment grants a role that application.roles never declares. The application role list is the single vocabulary.",
		Example:     "application:\n  roles:\n    - User\n    - Admin   # every role used below must appear here",
	},
	diag.CodeUnknownProvider: {
		Code:        diag.CodeUnknownProvider,
		Title:       "Data source provider not registered",
		Description: "The provider tag has no registered query compilation strategy. Registered providers decide how a source's query block is compiled.",
		Example:     "Measurements:\n  provider: fiware   # one of the registered provider tags",
	},
	diag.CodeUnknownVisType: {
		Code:        diag.CodeUnknownVisType,
		Title:       "Visualization type not in the vocabulary",
		Description: "The visualization type is not in the registered type vocabulary, so no renderer exists for it.",
		Example:     "Panel:\n  type: Map   # must be a registered visualization type",
	},
	diag.CodeUnknownAttribute: {
		Code:        diag.CodeUnknownAttribute,
		Title:       "Visualization binds an attribute its source never selects",
		Description: "The data entry is not in the source's select list. The compile still succeeds; the binding just yields no data at runtime, which is usually a typo.",
		Example:     "data:\n  - NOx   # case must match the source's select entry",
	},
	diag.CodeVersionDrift: {
		Code:        diag.CodeVersionDrift,
		Title:       "Descriptor minor/patch differs from the compiler",
		Description: "Same major, different minor or patch. The compile proceeds; the warning records that descriptor and compiler were authored against different revisions.",
	},
	compiler.ErrCodeSourceRead: {
		Code:        compiler.ErrCodeSourceRead,
		Title:       "Descriptor source could not be read",
		Description: "The input file or object could not be read at all. This is an environment fault, not a descriptor fault: check the path, permissions, or object URI.",
	},
	compiler.ErrCodeIRConvert: {
		Code:        compiler.ErrCodeIRConvert,
		Title:       "Stored IR failed to decode",
		Description: "A persisted IR document did not decode back into the schema this release speaks. The record was written by an incompatible build or corrupted in storage; recompile the descriptor.",
	},
	compiler.ErrCodeIRVersionMigration: {
		Code:        compiler.ErrCodeIRVersionMigration,
		Title:       "IR schema migration failed",
		Description: "An IR document from an older schema generation could not be migrated forward. Recompile from the descriptor source.",
	},
	compiler.ErrCodeIRABIValidate: {
		Code:        compiler.ErrCodeIRABIValidate,
		Title:       "Emitted IR violates its own schema",
		Description: "The pipeline produced an IR document that fails ABI validation. This is a compiler defect, not a descriptor problem; report it with the descriptor that triggered it.",
	},
	compiler.ErrCodeEmitterStep: {
		Code:        compiler.ErrCodeEmitterStep,
		Title:       "Canonical emission step failed",
		Description: "Serializing the IR to canonical JSON failed. This is a compiler defect; the IR should always serialize.",
	},
	compiler.ErrCodeEmitterManifest: {
		Code:        compiler.ErrCodeEmitterManifest,
		Title:       "Output manifest could not be written",
		Description: "The compile succeeded but writing the output files or their manifest failed. Check the output directory and permissions.",
	},
}

// Lookup resolves a code case-insensitively.
func Lookup(code string) (Entry, bool) {
	e, ok := register[strings.ToUpper(strings.TrimSpace(code))]
	return e, ok
}

// All returns every registered entry sorted by code.
func All() []Entry {
	out := make([]Entry, 0, len(register))
	for _, e := range register {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
