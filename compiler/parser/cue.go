package parser

import (
	"fmt"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
)

// parseCUE decodes a single CUE file into the document tree. The value must
// be fully concrete; descriptors are data, not schemas.
func (p *Parser) parseCUE(filename string, src []byte) (*Document, error) {
	v := p.ctx.CompileBytes(src, cue.Filename(filename))
	if v.Err() != nil {
		return nil, fmt.Errorf("decode %s: %s", filename, FormatCUEError(v.Err()))
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("decode %s: %s", filename, FormatCUEError(err))
	}

	root, err := fromCUEValue(v, "")
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}
	return &Document{Filename: filename, Root: root}, nil
}

func fromCUEValue(v cue.Value, path string) (*Node, error) {
	out := &Node{Path: path}
	if pos := v.Pos(); pos.IsValid() {
		out.Line = pos.Line()
		out.Column = pos.Column()
	}

	switch v.Kind() {
	case cue.StructKind:
		out.Kind = KindMap
		iter, err := v.Fields(cue.All())
		if err != nil {
			return nil, err
		}
		for iter.Next() {
			key := cleanLabel(iter.Selector().String())
			child, err := fromCUEValue(iter.Value(), childPath(path, key))
			if err != nil {
				return nil, err
			}
			line, col := 0, 0
			if pos := iter.Value().Pos(); pos.IsValid() {
				line, col = pos.Line(), pos.Column()
			}
			out.Fields = append(out.Fields, Field{Key: key, Line: line, Column: col, Value: child})
		}
	case cue.ListKind:
		out.Kind = KindList
		iter, err := v.List()
		if err != nil {
			return nil, err
		}
		for i := 0; iter.Next(); i++ {
			child, err := fromCUEValue(iter.Value(), indexPath(path, i))
			if err != nil {
				return nil, err
			}
			out.Items = append(out.Items, child)
		}
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, err
		}
		out.Kind = KindString
		out.Str = s
	case cue.IntKind:
		i, err := v.Int64()
		if err != nil {
			return nil, err
		}
		out.Kind = KindInt
		out.Int = i
	case cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return nil, err
		}
		out.Kind = KindFloat
		out.Float = f
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, err
		}
		out.Kind = KindBool
		out.Bool = b
	case cue.NullKind:
		out.Kind = KindNull
	default:
		return nil, fmt.Errorf("unsupported value kind %s at %s", v.Kind(), path)
	}
	return out, nil
}

// cleanLabel strips CUE label decoration: quotes around string labels and
// optional/required markers.
func cleanLabel(s string) string {
	s = strings.TrimSuffix(s, "?")
	s = strings.TrimSuffix(s, "!")
	s = strings.TrimSpace(s)
	if unquoted, err := strconv.Unquote(s); err == nil {
		return unquoted
	}
	return s
}
