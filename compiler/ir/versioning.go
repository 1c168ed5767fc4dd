package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// SchemaV1 is the current canonical IR schema version.
const SchemaV1 = "1"

// MigrateToCurrent upgrades a document in place to the current schema
// version. Empty version is treated as a pre-release v0 document.
func MigrateToCurrent(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("nil document")
	}

	switch strings.TrimSpace(doc.SchemaVersion) {
	case "", "0":
		doc.SchemaVersion = SchemaV1
		normalizeV1Invariants(doc)
		return nil
	case SchemaV1:
		normalizeV1Invariants(doc)
		return nil
	default:
		return fmt.Errorf("unsupported schema_version %q (current=%s)", doc.SchemaVersion, SchemaV1)
	}
}

// normalizeV1Invariants pins the canonical empty forms: collections are
// always objects or arrays, never null.
func normalizeV1Invariants(doc *Document) {
	if doc.DataSources == nil {
		doc.DataSources = map[string]DataSource{}
	}
	if doc.Visualizations == nil {
		doc.Visualizations = map[string]Visualization{}
	}
	if doc.DeploymentEnvs == nil {
		doc.DeploymentEnvs = map[string]DeploymentEnv{}
	}
	if doc.Application.Roles == nil {
		doc.Application.Roles = []string{}
	}
	for k, ds := range doc.DataSources {
		if ds.Query.Select == nil {
			ds.Query.Select = []string{}
			doc.DataSources[k] = ds
		}
	}
	for k, v := range doc.Visualizations {
		if v.Data == nil {
			v.Data = []Field{}
			doc.Visualizations[k] = v
		}
	}
}

// ToCanonicalJSON normalizes the document and returns the stable byte form:
// sorted map keys, two-space indent, trailing newline.
func ToCanonicalJSON(doc *Document) ([]byte, error) {
	if err := MigrateToCurrent(doc); err != nil {
		return nil, err
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// ComputeContentHash digests the canonical bytes with the content_hash field
// empty, so the stored hash never feeds its own digest.
func ComputeContentHash(doc *Document) (string, error) {
	clone := *doc
	clone.ContentHash = ""
	b, err := ToCanonicalJSON(&clone)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
