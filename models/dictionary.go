package models

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Member is one key/value pair of an ordered mapping.
type Member struct {
	Key   string
	Value any
}

// Object is a mapping that remembers insertion order. Values are float64,
// string, bool, nil, []any or Object.
type Object []Member

// Get returns the value stored under key.
func (o Object) Get(key string) (any, bool) {
	for _, m := range o {
		if m.Key == key {
			return m.Value, true
		}
	}
	return nil, false
}

// Section and field holding the session identity.
const (
	InfosSection = "Infos"
	IDField      = "ID"
)

// UnknownIdentity names files before the host has supplied an ID.
const UnknownIdentity = "Unknown"

// Dictionary is the host's session summary: section name → fields, where a
// field is a scalar, an array, or a nested Object of subfields.
type Dictionary struct {
	Sections Object
}

// Identity returns Infos.ID as filename-safe text, or "Unknown" when the
// field is missing or blank.
func (d *Dictionary) Identity() string {
	if d == nil {
		return UnknownIdentity
	}
	sec, ok := d.Sections.Get(InfosSection)
	if !ok {
		return UnknownIdentity
	}
	fields, ok := sec.(Object)
	if !ok {
		return UnknownIdentity
	}
	raw, ok := fields.Get(IDField)
	if !ok || raw == nil {
		return UnknownIdentity
	}

	var id string
	if f, isNum := AsFloat(raw); isNum {
		id = FormatNumber(f)
	} else {
		id = strings.TrimSpace(fmt.Sprint(raw))
	}
	if id == "" {
		return UnknownIdentity
	}
	return strings.NewReplacer("/", "-", "\\", "-").Replace(id)
}

// NewDictionary wraps a decoded value. The top level must be a mapping.
func NewDictionary(v any) (*Dictionary, error) {
	obj, ok := v.(Object)
	if !ok {
		return nil, fmt.Errorf("dictionary must be a mapping, got %T", v)
	}
	return &Dictionary{Sections: obj}, nil
}

// DecodeDictionary parses a JSON or YAML document, keeping key order. JSON
// documents are decoded as JSON so every JSON escape is honored.
func DecodeDictionary(data []byte) (*Dictionary, error) {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		v, err := DecodeJSON(trimmed)
		if err != nil {
			return nil, fmt.Errorf("decode dictionary: %w", err)
		}
		return NewDictionary(v)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode dictionary: %w", err)
	}
	v, err := FromNode(&doc)
	if err != nil {
		return nil, err
	}
	return NewDictionary(v)
}

// FromNode converts a YAML document tree into ordered values. Integers become
// float64 so numbers behave like JSON numbers downstream.
func FromNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return FromNode(n.Content[0])
	case yaml.AliasNode:
		return FromNode(n.Alias)
	case yaml.MappingNode:
		obj := make(Object, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			v, err := FromNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			obj = append(obj, Member{Key: k.Value, Value: v})
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := FromNode(c)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.ScalarNode:
		return scalar(n)
	default:
		return nil, fmt.Errorf("line %d: unsupported node kind %d", n.Line, n.Kind)
	}
}

func scalar(n *yaml.Node) (any, error) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return b, nil
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			// Hex and octal ints do not decode into float64 directly.
			i, perr := strconv.ParseInt(n.Value, 0, 64)
			if perr != nil {
				return nil, fmt.Errorf("line %d: %w", n.Line, err)
			}
			return float64(i), nil
		}
		return f, nil
	default:
		return n.Value, nil
	}
}
