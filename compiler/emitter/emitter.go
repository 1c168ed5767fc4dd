// Package emitter finalizes compiled documents and writes them out. It is
// the only compiler stage that touches the filesystem; everything upstream
// is pure.
package emitter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ssdl-lang/ssdlc/compiler/ir"
)

type Emitter struct {
	// Version is stamped into documents that do not carry a compiler
	// version yet.
	Version string
	// InputHash is the digest of the descriptor source, recorded in the
	// manifest next to the document's own content hash.
	InputHash string
}

func New(version string) *Emitter {
	return &Emitter{Version: version}
}

// Emit finalizes a document and returns its canonical bytes: migrate to the
// current schema, enforce the ABI, stamp the content hash. Emitting the same
// document twice yields byte-identical output.
func (e *Emitter) Emit(doc *ir.Document) ([]byte, error) {
	if err := ir.MigrateToCurrent(doc); err != nil {
		return nil, fmt.Errorf("ir version migration: %w", err)
	}
	if doc.CompilerVersion == "" {
		doc.CompilerVersion = e.Version
	}
	if err := ir.ValidateABI(doc); err != nil {
		return nil, fmt.Errorf("ir abi: %w", err)
	}

	hash, err := ir.ComputeContentHash(doc)
	if err != nil {
		return nil, err
	}
	doc.ContentHash = hash

	return ir.ToCanonicalJSON(doc)
}

// EmitFile writes the canonical document to path, creating parent
// directories as needed.
func (e *Emitter) EmitFile(doc *ir.Document, path string) error {
	b, err := e.Emit(doc)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, b, 0o644)
}
