// Package parser turns raw descriptor text into a typed document tree and
// performs structural validation of the descriptor grammar. It accepts YAML
// and JSON through one decoder and CUE through another; both front ends
// produce the same position-carrying tree.
package parser

import (
	"fmt"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// Kind enumerates the node shapes a descriptor tree can hold.
type Kind int

const (
	KindInvalid Kind = iota
	KindNull
	KindBool
	KindInt
	KindFloat
	KindString
	KindMap
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindMap:
		return "map"
	case KindList:
		return "list"
	default:
		return "invalid"
	}
}

// Field is one key/value pair of a map node. Declaration order and duplicate
// keys are preserved so later stages can report them precisely.
type Field struct {
	Key    string
	Line   int
	Column int
	Value  *Node
}

// Node is one element of the parsed tree.
type Node struct {
	Kind   Kind
	Path   string
	Line   int
	Column int

	Str   string
	Int   int64
	Float float64
	Bool  bool

	Fields []Field
	Items  []*Node
}

// Lookup returns the first field with the given key.
func (n *Node) Lookup(key string) (*Node, bool) {
	if n == nil || n.Kind != KindMap {
		return nil, false
	}
	for _, f := range n.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Has reports whether a map node carries the key.
func (n *Node) Has(key string) bool {
	_, ok := n.Lookup(key)
	return ok
}

// StringValue returns the string payload, or "" for non-string nodes.
func (n *Node) StringValue() string {
	if n == nil || n.Kind != KindString {
		return ""
	}
	return n.Str
}

// Document is the parsed descriptor tree.
type Document struct {
	Filename string
	Root     *Node
}

// Parser decodes descriptor files. One Parser may be reused across runs.
type Parser struct {
	ctx *cue.Context
}

func New() *Parser {
	return &Parser{
		ctx: cuecontext.New(),
	}
}

// Parse decodes src into a document tree. CUE input is selected by the .cue
// extension, everything else goes through the YAML decoder (which also
// accepts JSON).
func (p *Parser) Parse(filename string, src []byte) (*Document, error) {
	if strings.EqualFold(filepath.Ext(filename), ".cue") {
		return p.parseCUE(filename, src)
	}
	return parseYAML(filename, src)
}

// FormatCUEError converts a CUE error into human-readable advice with
// source locations.
func FormatCUEError(err error) string {
	if err == nil {
		return ""
	}

	var msg strings.Builder
	for _, e := range cueerrors.Errors(err) {
		msg.WriteString(fmt.Sprintf("%v", e))
		positions := cueerrors.Positions(e)
		for _, pos := range positions {
			msg.WriteString(fmt.Sprintf("\n   at %s", pos.String()))
		}
		msg.WriteString("\n")
	}
	if msg.Len() == 0 {
		return err.Error()
	}
	return strings.TrimRight(msg.String(), "\n")
}

func childPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func indexPath(parent string, i int) string {
	return fmt.Sprintf("%s[%d]", parent, i)
}
