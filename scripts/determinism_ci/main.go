// Command determinism_ci guards the emit contract in CI: compiling a
// descriptor twice must produce byte-identical canonical IR, and the YAML,
// JSON, and CUE renditions of the same system must agree on the content
// hash. Run from the repository root.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

var descriptors = []string{
	"examples/airquality.ssdl.yaml",
	"examples/airquality.ssdl.json",
	"examples/airquality.ssdl.cue",
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "determinism check failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK: canonical IR is deterministic across runs and syntaxes")
}

func run() error {
	projectRoot, err := os.Getwd()
	if err != nil {
		return err
	}
	tmpDir, err := os.MkdirTemp("", "ssdlc-determinism-ci-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	hashes := make(map[string]string, len(descriptors))
	for i, descriptor := range descriptors {
		first := filepath.Join(tmpDir, fmt.Sprintf("ir-%d-a.json", i))
		second := filepath.Join(tmpDir, fmt.Sprintf("ir-%d-b.json", i))

		if err := compile(projectRoot, descriptor, first); err != nil {
			return err
		}
		if err := compile(projectRoot, descriptor, second); err != nil {
			return err
		}

		a, err := os.ReadFile(first)
		if err != nil {
			return err
		}
		b, err := os.ReadFile(second)
		if err != nil {
			return err
		}
		if !bytes.Equal(a, b) {
			return fmt.Errorf("%s: two runs emitted different IR bytes", descriptor)
		}

		hash, err := contentHash(a)
		if err != nil {
			return fmt.Errorf("%s: %w", descriptor, err)
		}
		hashes[descriptor] = hash
	}

	want := hashes[descriptors[0]]
	for _, descriptor := range descriptors[1:] {
		if hashes[descriptor] != want {
			return fmt.Errorf("content hash diverges across syntaxes: %s=%s, %s=%s",
				descriptors[0], want, descriptor, hashes[descriptor])
		}
	}
	return nil
}

func compile(projectRoot, descriptor, out string) error {
	cmd := exec.Command("go", "run", "./cmd/ssdlc", "compile", "-o", out, descriptor)
	cmd.Dir = projectRoot
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("compile %s: %w", descriptor, err)
	}
	return nil
}

func contentHash(ir []byte) (string, error) {
	var doc struct {
		ContentHash string `json:"content_hash"`
	}
	if err := json.Unmarshal(ir, &doc); err != nil {
		return "", fmt.Errorf("decode IR: %w", err)
	}
	if doc.ContentHash == "" {
		return "", fmt.Errorf("IR carries no content hash")
	}
	return doc.ContentHash, nil
}
