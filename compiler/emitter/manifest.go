package emitter

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ssdl-lang/ssdlc/compiler/ir"
)

// CompileManifest is the compact map of a compiled service: what it reads,
// what it shows, where it runs. The summary output of the CLI and the serve
// surface both render from this.
type CompileManifest struct {
	Service         ir.Service             `json:"service"`
	Compatibility   string                 `json:"version_compatibility"`
	Providers       []string               `json:"providers"`
	DataSources     []SourceSummary        `json:"data_sources"`
	Visualizations  []VisualizationSummary `json:"visualizations"`
	Roles           []string               `json:"roles"`
	Environments    []string               `json:"environments"`
	Warnings        int                    `json:"warnings"`
	ContentHash     string                 `json:"content_hash,omitempty"`
	CompilerVersion string                 `json:"compiler_version"`
}

type SourceSummary struct {
	Name       string `json:"name"`
	Provider   string `json:"provider"`
	EntityType string `json:"entity_type"`
	Selected   int    `json:"selected"`
}

type VisualizationSummary struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Source    string `json:"source"`
	Projected int    `json:"projected"`
	Derived   int    `json:"derived"`
}

// BuildManifest summarizes a finalized document. Collections come out
// sorted by name, matching the document's canonical key order.
func BuildManifest(doc *ir.Document) CompileManifest {
	m := CompileManifest{
		Service:         doc.Service,
		Compatibility:   doc.Compatibility,
		Roles:           append([]string{}, doc.Application.Roles...),
		Warnings:        len(doc.Warnings),
		ContentHash:     doc.ContentHash,
		CompilerVersion: doc.CompilerVersion,
		DataSources:     make([]SourceSummary, 0, len(doc.DataSources)),
		Visualizations:  make([]VisualizationSummary, 0, len(doc.Visualizations)),
		Environments:    make([]string, 0, len(doc.DeploymentEnvs)),
	}

	seen := map[string]bool{}
	for _, name := range sortedKeys(doc.DataSources) {
		src := doc.DataSources[name]
		s := SourceSummary{Name: src.Name, Provider: src.Provider, Selected: len(src.Query.Select)}
		if src.Plan != nil {
			s.EntityType = src.Plan.EntityType
		} else {
			s.EntityType = src.Query.Type
		}
		m.DataSources = append(m.DataSources, s)
		if !seen[src.Provider] {
			seen[src.Provider] = true
			m.Providers = append(m.Providers, src.Provider)
		}
	}
	sort.Strings(m.Providers)

	for _, name := range sortedKeys(doc.Visualizations) {
		vis := doc.Visualizations[name]
		vs := VisualizationSummary{Name: vis.Name, Type: vis.Type, Source: vis.Source}
		for _, f := range vis.Data {
			if f.Class == ir.ClassProjected {
				vs.Projected++
			} else {
				vs.Derived++
			}
		}
		m.Visualizations = append(m.Visualizations, vs)
	}

	for _, name := range sortedKeys(doc.DeploymentEnvs) {
		m.Environments = append(m.Environments, name)
	}

	return m
}

// EmitManifest renders the manifest as indented JSON.
func (e *Emitter) EmitManifest(doc *ir.Document) ([]byte, error) {
	m := BuildManifest(doc)
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	return append(data, '\n'), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
