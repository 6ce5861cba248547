package types

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"
)

type valueKind uint8

const (
	kindUnset valueKind = iota
	kindFlat
	kindByLevel
)

// LevelValue is a point value that is either flat (the same for every level)
// or keyed by level. The zero value is unset.
type LevelValue struct {
	byLevel map[int]float64
	flat    float64
	kind    valueKind
}

// Flat returns a value that resolves to v at every level.
func Flat(v float64) LevelValue {
	return LevelValue{kind: kindFlat, flat: v}
}

// ByLevel returns a value that resolves only for the given levels.
func ByLevel(values map[int]float64) LevelValue {
	m := make(map[int]float64, len(values))
	for level, v := range values {
		m[level] = v
	}
	return LevelValue{kind: kindByLevel, byLevel: m}
}

// IsSet reports whether the value was configured.
func (v LevelValue) IsSet() bool { return v.kind != kindUnset }

// IsFlat reports whether the value ignores level.
func (v LevelValue) IsFlat() bool { return v.kind == kindFlat }

// Resolve returns the value for level. A flat value ignores level; a
// level-keyed value requires an exact key.
func (v LevelValue) Resolve(level int) (float64, bool) {
	switch v.kind {
	case kindFlat:
		return v.flat, true
	case kindByLevel:
		x, ok := v.byLevel[level]
		return x, ok
	default:
		return 0, false
	}
}

// ValueAt is Resolve with unresolved levels contributing 0.
func (v LevelValue) ValueAt(level int) float64 {
	x, _ := v.Resolve(level)
	return x
}

// Values returns every configured number, flat or keyed, in level order.
func (v LevelValue) Values() []float64 {
	switch v.kind {
	case kindFlat:
		return []float64{v.flat}
	case kindByLevel:
		levels := make([]int, 0, len(v.byLevel))
		for level := range v.byLevel {
			levels = append(levels, level)
		}
		sort.Ints(levels)
		out := make([]float64, 0, len(levels))
		for _, level := range levels {
			out = append(out, v.byLevel[level])
		}
		return out
	default:
		return nil
	}
}

// UnmarshalYAML accepts a number or a level -> number mapping.
func (v *LevelValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*v = LevelValue{}
			return nil
		}
		var f float64
		if err := node.Decode(&f); err != nil {
			return InvalidValues("level value %q is not a number", node.Value)
		}
		*v = Flat(f)
		return nil
	case yaml.MappingNode:
		var m map[int]float64
		if err := node.Decode(&m); err != nil {
			return InvalidValues("level-keyed value at line %d: %v", node.Line, err)
		}
		*v = ByLevel(m)
		return nil
	default:
		return InvalidValues("level value at line %d must be a number or a mapping", node.Line)
	}
}

// MarshalYAML mirrors UnmarshalYAML.
func (v LevelValue) MarshalYAML() (any, error) {
	switch v.kind {
	case kindFlat:
		return v.flat, nil
	case kindByLevel:
		return v.byLevel, nil
	default:
		return nil, nil
	}
}

// UnmarshalJSON accepts a number or an object keyed by level.
func (v *LevelValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*v = LevelValue{}
		return nil
	}
	if b[0] == '{' {
		var raw map[string]float64
		if err := json.Unmarshal(b, &raw); err != nil {
			return InvalidValues("level-keyed value: %v", err)
		}
		m := make(map[int]float64, len(raw))
		for key, x := range raw {
			level, err := strconv.Atoi(key)
			if err != nil {
				return InvalidValues("level key %q is not an integer", key)
			}
			m[level] = x
		}
		*v = ByLevel(m)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return InvalidValues("level value %s is not a number", string(b))
	}
	*v = Flat(f)
	return nil
}

// MarshalJSON mirrors UnmarshalJSON.
func (v LevelValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindFlat:
		return json.Marshal(v.flat)
	case kindByLevel:
		raw := make(map[string]float64, len(v.byLevel))
		for level, x := range v.byLevel {
			raw[strconv.Itoa(level)] = x
		}
		return json.Marshal(raw)
	default:
		return []byte("null"), nil
	}
}
