// Package ir defines the canonical intermediate representation a compiled
// descriptor lowers into. The document is plain data: entities keyed by name,
// query plans, field classifications, and the warnings that survived
// compilation. Everything downstream (emitters, caches, the serve surface)
// consumes this and nothing else.
package ir

import (
	"github.com/ssdl-lang/ssdlc/compiler/descriptor"
	"github.com/ssdl-lang/ssdlc/compiler/diag"
)

// Document is the root of the IR. Maps marshal with sorted keys, so the
// canonical JSON form is stable regardless of declaration order.
type Document struct {
	SchemaVersion   string `json:"schema_version"`
	CompilerVersion string `json:"compiler_version"`
	// ContentHash is the sha256 of the canonical bytes with this field
	// empty. It never participates in its own digest.
	ContentHash string `json:"content_hash,omitempty"`
	// Compatibility records how the descriptor's declared language version
	// related to the compiler: "exact" or "drift".
	Compatibility string `json:"version_compatibility"`

	Service        Service                  `json:"service"`
	DataSources    map[string]DataSource    `json:"data_sources"`
	Application    Application              `json:"application"`
	Visualizations map[string]Visualization `json:"visualizations"`
	DeploymentEnvs map[string]DeploymentEnv `json:"deployment_envs"`

	// Warnings carries the non-fatal diagnostics of the compilation that
	// produced this document. Fatal diagnostics never reach an emitted IR.
	Warnings []diag.Diagnostic `json:"warnings,omitempty"`
}

// Service mirrors the descriptor's service block. Version is the canonical
// dotted triple.
type Service struct {
	Name    string `json:"name"`
	Scope   string `json:"scope"`
	Version string `json:"version"`
}

// Query is the declared source query, spellings preserved verbatim.
type Query struct {
	Type   string   `json:"type"`
	Select []string `json:"select"`
}

// DataSource is one compiled data source with its provider query plan.
type DataSource struct {
	Name     string     `json:"name"`
	Provider string     `json:"provider"`
	Type     string     `json:"type"`
	URI      string     `json:"uri"`
	Query    Query      `json:"query"`
	Plan     *QueryPlan `json:"plan,omitempty"`
}

// QueryPlan is a provider strategy's compiled form of {type, select}. The
// shape is declarative; nothing in the compiler executes it.
type QueryPlan struct {
	Provider   string            `json:"provider"`
	Method     string            `json:"method"`
	Endpoint   string            `json:"endpoint"`
	Params     map[string]string `json:"params,omitempty"`
	EntityType string            `json:"entity_type"`
	Attributes []string          `json:"attributes,omitempty"`
}

// Application carries the app shell declaration. Visualizations live in
// their own top-level map; the IR flattens the descriptor's nesting.
type Application struct {
	Type   string   `json:"type"`
	Layout string   `json:"layout,omitempty"`
	Roles  []string `json:"roles"`
}

// Field classification values.
const (
	ClassProjected = "projected"
	ClassDerived   = "derived"
)

// Version compatibility values.
const (
	CompatExact = "exact"
	CompatDrift = "drift"
)

// Field is one visualization data field with its resolution class.
type Field struct {
	Name string `json:"name"`
	// Class is "projected" when the source query selects the field under
	// exactly this spelling, "derived" otherwise.
	Class string `json:"class"`
}

// Visualization is one compiled visualization.
type Visualization struct {
	Name   string                      `json:"name"`
	Type   string                      `json:"type"`
	Source string                      `json:"source"`
	Data   []Field                     `json:"data"`
	Extra  map[string]descriptor.Value `json:"extra,omitempty"`
	Roles  []string                    `json:"roles,omitempty"`
}

// DeploymentEnv is one compiled deployment environment.
type DeploymentEnv struct {
	Name        string            `json:"name"`
	URI         string            `json:"uri"`
	Port        int               `json:"port"`
	Type        string            `json:"type"`
	Credentials map[string]string `json:"credentials,omitempty"`
	Roles       []string          `json:"roles,omitempty"`
}
