package codec

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/danderson/objmap/universal"
	"gopkg.in/yaml.v3"
)

// YAML is the YAML marshaller. Mappings keep their key order.
type YAML struct{}

func (YAML) Name() string { return "yaml" }

func (YAML) Marshal(v universal.Value) ([]byte, error) {
	n, err := toYAMLNode(v)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(n)
}

func toYAMLNode(v universal.Value) (*yaml.Node, error) {
	switch v := v.(type) {
	case nil, universal.Null:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case universal.Bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(bool(v))}, nil
	case universal.Number:
		if !v.Valid() {
			return nil, fmt.Errorf("number %q has no YAML representation", string(v))
		}
		tag := "!!int"
		if _, err := strconv.ParseInt(string(v), 10, 64); err != nil {
			if _, err := strconv.ParseUint(string(v), 10, 64); err != nil {
				tag = "!!float"
			}
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: string(v)}, nil
	case universal.String:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(v)}, nil
	case universal.List:
		ret := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range v {
			en, err := toYAMLNode(e)
			if err != nil {
				return nil, err
			}
			ret.Content = append(ret.Content, en)
		}
		return ret, nil
	case universal.Map:
		ret := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, e := range v {
			en, err := toYAMLNode(e.Value)
			if err != nil {
				return nil, err
			}
			k := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Key}
			ret.Content = append(ret.Content, k, en)
		}
		return ret, nil
	}
	return nil, fmt.Errorf("unknown universal value %T", v)
}

func (YAML) Unmarshal(data []byte) (universal.Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}
	if doc.Kind == 0 {
		// Empty document.
		return universal.Null{}, nil
	}
	v, err := fromYAMLNode(&doc)
	if err != nil {
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}
	return v, nil
}

func fromYAMLNode(n *yaml.Node) (universal.Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) != 1 {
			return nil, errors.New("document must contain exactly one value")
		}
		return fromYAMLNode(n.Content[0])
	case yaml.AliasNode:
		return fromYAMLNode(n.Alias)
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return universal.Null{}, nil
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return nil, err
			}
			return universal.Bool(b), nil
		case "!!int":
			var i int64
			if err := n.Decode(&i); err != nil {
				var u uint64
				if err := n.Decode(&u); err != nil {
					return nil, err
				}
				return universal.Uint(u), nil
			}
			return universal.Int(i), nil
		case "!!float":
			var f float64
			if err := n.Decode(&f); err != nil {
				return nil, err
			}
			return universal.Float(f), nil
		default:
			return universal.String(n.Value), nil
		}
	case yaml.SequenceNode:
		ret := universal.List{}
		for _, c := range n.Content {
			v, err := fromYAMLNode(c)
			if err != nil {
				return nil, err
			}
			ret = append(ret, v)
		}
		return ret, nil
	case yaml.MappingNode:
		ret := universal.Map{}
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", k.Line)
			}
			val, err := fromYAMLNode(v)
			if err != nil {
				return nil, err
			}
			ret = ret.Set(k.Value, val)
		}
		return ret, nil
	}
	return nil, fmt.Errorf("line %d: unsupported yaml node kind %v", n.Line, n.Kind)
}
