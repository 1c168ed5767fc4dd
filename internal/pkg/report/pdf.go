// Package report renders compile results as PDF documents.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/ssdl-lang/ssdlc/compiler/ir"
	"github.com/ssdl-lang/ssdlc/compiler/providers"
)

// Generator generates PDF compile reports.
type Generator struct {
	providers *providers.Registry
}

// NewGenerator creates a report generator. A nil registry falls back to the
// built-in providers.
func NewGenerator(reg *providers.Registry) *Generator {
	if reg == nil {
		reg = providers.DefaultRegistry()
	}
	return &Generator{providers: reg}
}

// GenerateCompileReport renders an emitted IR document as a PDF. The layout
// is deterministic: all maps are walked in sorted key order.
func (g *Generator) GenerateCompileReport(descriptorHash string, doc *ir.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("ir document is required")
	}
	m := maroto.New()

	// Header
	m.AddRows(
		row.New(20).Add(
			col.New(12).Add(
				text.New("SSDL COMPILE REPORT", props.Text{
					Align: align.Center,
					Size:  20,
					Style: fontstyle.Bold,
				}),
			),
		),
		row.New(10).Add(
			col.New(12).Add(
				text.New(fmt.Sprintf("%s / %s (v%s)", doc.Service.Name, doc.Service.Scope, doc.Service.Version), props.Text{
					Align: align.Center,
					Size:  12,
				}),
			),
		),
		row.New(8).Add(
			col.New(6).Add(text.New("Descriptor hash:")),
			col.New(6).Add(text.New(shortHash(descriptorHash))),
		),
		row.New(8).Add(
			col.New(6).Add(text.New("IR content hash:")),
			col.New(6).Add(text.New(shortHash(doc.ContentHash))),
		),
		row.New(8).Add(
			col.New(6).Add(text.New("Schema / compiler:")),
			col.New(6).Add(text.New(fmt.Sprintf("%s / %s (%s)", doc.SchemaVersion, doc.CompilerVersion, doc.Compatibility))),
		),
	)

	// Data Sources
	m.AddRows(
		row.New(15).Add(
			col.New(12).Add(
				text.New("DATA SOURCES", props.Text{Style: fontstyle.Bold, Top: 5}),
			),
		),
	)
	for _, name := range sortedKeys(doc.DataSources) {
		src := doc.DataSources[name]
		caps := "-"
		if p, ok := g.providers.Get(src.Provider); ok {
			caps = strings.Join(p.Capabilities().StringSlice(), ", ")
		}
		m.AddRows(
			row.New(10).Add(
				col.New(3).Add(text.New(src.Name, props.Text{Style: fontstyle.Bold})),
				col.New(2).Add(text.New(src.Provider)),
				col.New(3).Add(text.New(src.Query.Type)),
				col.New(4).Add(text.New(caps)),
			),
		)
	}

	// Visualizations
	m.AddRows(
		row.New(15).Add(
			col.New(12).Add(
				text.New("VISUALIZATIONS", props.Text{Style: fontstyle.Bold, Top: 5}),
			),
		),
	)
	for _, name := range sortedKeys(doc.Visualizations) {
		vis := doc.Visualizations[name]
		m.AddRows(
			row.New(10).Add(
				col.New(3).Add(text.New(vis.Name, props.Text{Style: fontstyle.Bold})),
				col.New(2).Add(text.New(vis.Type)),
				col.New(3).Add(text.New(vis.Source)),
				col.New(4).Add(text.New(fieldSummary(vis.Data))),
			),
		)
	}

	// Deployment environments. Credential values never reach the report,
	// only the key names.
	if len(doc.DeploymentEnvs) > 0 {
		m.AddRows(
			row.New(15).Add(
				col.New(12).Add(
					text.New("DEPLOYMENT", props.Text{Style: fontstyle.Bold, Top: 5}),
				),
			),
		)
		for _, name := range sortedKeys(doc.DeploymentEnvs) {
			env := doc.DeploymentEnvs[name]
			m.AddRows(
				row.New(10).Add(
					col.New(3).Add(text.New(env.Name, props.Text{Style: fontstyle.Bold})),
					col.New(2).Add(text.New(env.Type)),
					col.New(3).Add(text.New(fmt.Sprintf("port %d", env.Port))),
					col.New(4).Add(text.New(credentialKeys(env.Credentials))),
				),
			)
		}
	}

	// Warnings
	if len(doc.Warnings) > 0 {
		m.AddRows(
			row.New(15).Add(
				col.New(12).Add(
					text.New("WARNINGS", props.Text{Style: fontstyle.Bold, Top: 5}),
				),
			),
		)
		for _, w := range doc.Warnings {
			m.AddRows(
				row.New(8).Add(
					col.New(3).Add(text.New(w.Code)),
					col.New(9).Add(text.New(w.Message)),
				),
			)
		}
	}

	// QR of the content hash for integrity checks against the registry.
	if doc.ContentHash != "" {
		m.AddRows(
			row.New(40).Add(
				col.New(4).Add(
					code.NewQr(doc.ContentHash, props.Rect{
						Percent: 100,
					}),
				),
				col.New(8).Add(
					text.New("Scan to compare against the registry's IR content hash.", props.Text{
						Top: 15,
					}),
				),
			),
		)
	}

	pdf, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return pdf.GetBytes(), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func shortHash(h string) string {
	if len(h) > 16 {
		return h[:16] + "..."
	}
	return h
}

func fieldSummary(fields []ir.Field) string {
	projected := 0
	for _, f := range fields {
		if f.Class == ir.ClassProjected {
			projected++
		}
	}
	return fmt.Sprintf("%d fields (%d projected, %d derived)", len(fields), projected, len(fields)-projected)
}

func credentialKeys(creds map[string]string) string {
	if len(creds) == 0 {
		return "-"
	}
	return "credentials: " + strings.Join(sortedKeys(creds), ", ")
}
