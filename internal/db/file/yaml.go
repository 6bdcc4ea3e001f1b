package file

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/mpezzi/json-server/internal/db"
	"github.com/mpezzi/json-server/internal/domain/value"
)

func decodeYAML(data []byte) (db.Snapshot, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return db.Snapshot{}, fmt.Errorf("%w: %w", db.ErrMalformed, err)
	}
	if len(doc.Content) == 0 {
		return db.ParseSnapshot(nil)
	}
	v, err := fromNode(&doc)
	if err != nil {
		return db.Snapshot{}, fmt.Errorf("%w: %w", db.ErrMalformed, err)
	}
	return db.SnapshotFromValue(v)
}

func encodeYAML(snap db.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(toNode(snap.Value())); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// fromNode converts a YAML tree to a value, keeping mapping order.
func fromNode(n *yaml.Node) (value.Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return value.Null(), nil
		}
		return fromNode(n.Content[0])
	case yaml.AliasNode:
		return fromNode(n.Alias)
	case yaml.MappingNode:
		obj := value.NewObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := fromNode(n.Content[i+1])
			if err != nil {
				return value.Value{}, err
			}
			obj.Set(n.Content[i].Value, v)
		}
		return value.ObjectOf(obj), nil
	case yaml.SequenceNode:
		items := make([]value.Value, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := fromNode(c)
			if err != nil {
				return value.Value{}, err
			}
			items = append(items, v)
		}
		return value.Array(items...), nil
	case yaml.ScalarNode:
		return fromScalar(n)
	}
	return value.Value{}, fmt.Errorf("line %d: unsupported yaml node", n.Line)
}

func fromScalar(n *yaml.Node) (value.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return value.Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return value.Value{}, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return value.Bool(b), nil
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return value.Value{}, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return value.Number(f), nil
	default:
		return value.String(n.Value), nil
	}
}

func toNode(v value.Value) *yaml.Node {
	switch v.Kind() {
	case value.KindBool:
		b, _ := v.AsBool()
		return scalar("!!bool", strconv.FormatBool(b))
	case value.KindNumber:
		return number(v)
	case value.KindString:
		s, _ := v.AsString()
		return scalar("!!str", s)
	case value.KindObject:
		obj, _ := v.AsObject()
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		obj.Range(func(k string, fv value.Value) bool {
			n.Content = append(n.Content, scalar("!!str", k), toNode(fv))
			return true
		})
		return n
	case value.KindArray:
		items, _ := v.AsArray()
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, it := range items {
			n.Content = append(n.Content, toNode(it))
		}
		return n
	default:
		return scalar("!!null", "null")
	}
}

func number(v value.Value) *yaml.Node {
	f, _ := v.AsNumber()
	switch {
	case math.IsNaN(f):
		return scalar("!!float", ".nan")
	case math.IsInf(f, 1):
		return scalar("!!float", ".inf")
	case math.IsInf(f, -1):
		return scalar("!!float", "-.inf")
	case f == math.Trunc(f) && math.Abs(f) < 1e21:
		return scalar("!!int", v.Canonical())
	default:
		return scalar("!!float", v.Canonical())
	}
}

func scalar(tag, s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: s}
}
