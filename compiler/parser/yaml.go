package parser

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// parseYAML decodes YAML or JSON input into the document tree.
func parseYAML(filename string, src []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(src, &root); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}

	node := &root
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return nil, fmt.Errorf("decode %s: empty document", filename)
		}
		node = node.Content[0]
	}
	if node.Kind == 0 {
		return nil, fmt.Errorf("decode %s: empty document", filename)
	}

	converted, err := fromYAMLNode(node, "")
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}
	return &Document{Filename: filename, Root: converted}, nil
}

func fromYAMLNode(n *yaml.Node, path string) (*Node, error) {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}

	out := &Node{Path: path, Line: n.Line, Column: n.Column}

	switch n.Kind {
	case yaml.MappingNode:
		out.Kind = KindMap
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode := n.Content[i]
			valNode := n.Content[i+1]
			key := keyNode.Value
			child, err := fromYAMLNode(valNode, childPath(path, key))
			if err != nil {
				return nil, err
			}
			out.Fields = append(out.Fields, Field{
				Key:    key,
				Line:   keyNode.Line,
				Column: keyNode.Column,
				Value:  child,
			})
		}
	case yaml.SequenceNode:
		out.Kind = KindList
		for i, item := range n.Content {
			child, err := fromYAMLNode(item, indexPath(path, i))
			if err != nil {
				return nil, err
			}
			out.Items = append(out.Items, child)
		}
	case yaml.ScalarNode:
		if err := fillYAMLScalar(out, n); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported node kind %d at %s", n.Kind, path)
	}
	return out, nil
}

func fillYAMLScalar(out *Node, n *yaml.Node) error {
	switch n.Tag {
	case "!!null":
		out.Kind = KindNull
	case "!!bool":
		b, err := strconv.ParseBool(n.Value)
		if err != nil {
			return fmt.Errorf("invalid bool %q at line %d", n.Value, n.Line)
		}
		out.Kind = KindBool
		out.Bool = b
	case "!!int":
		v, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return fmt.Errorf("invalid integer %q at line %d", n.Value, n.Line)
		}
		out.Kind = KindInt
		out.Int = v
	case "!!float":
		v, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return fmt.Errorf("invalid float %q at line %d", n.Value, n.Line)
		}
		out.Kind = KindFloat
		out.Float = v
	default:
		out.Kind = KindString
		out.Str = n.Value
	}
	return nil
}
