package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindMap
)

// Value is a JSON-representable attribute value. Entity bodies are treated as
// opaque keyed maps of these, so merge and validation never need type casts.
type Value struct {
	Kind ValueKind

	Str  string
	Num  float64
	Bool bool
	List []Value
	Map  map[string]Value
}

func Null() Value                     { return Value{Kind: KindNull} }
func String(s string) Value           { return Value{Kind: KindString, Str: s} }
func Number(n float64) Value          { return Value{Kind: KindNumber, Num: n} }
func Boolean(b bool) Value            { return Value{Kind: KindBool, Bool: b} }
func List(items ...Value) Value       { return Value{Kind: KindList, List: items} }
func MapValue(m map[string]Value) Value { return Value{Kind: KindMap, Map: m} }

func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}

	switch v.Kind {
	case KindNull:
		return true
	case KindString:
		return v.Str == other.Str
	case KindNumber:
		return v.Num == other.Num
	case KindBool:
		return v.Bool == other.Bool
	case KindList:
		if len(v.List) != len(other.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].Equal(other.List[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.Map) != len(other.Map) {
			return false
		}
		for k, val := range v.Map {
			o, ok := other.Map[k]
			if !ok || !val.Equal(o) {
				return false
			}
		}
		return true
	}
	return false
}

func (v Value) Clone() Value {
	switch v.Kind {
	case KindList:
		items := make([]Value, len(v.List))
		for i := range v.List {
			items[i] = v.List[i].Clone()
		}
		return Value{Kind: KindList, List: items}
	case KindMap:
		m := make(map[string]Value, len(v.Map))
		for k, val := range v.Map {
			m[k] = val.Clone()
		}
		return Value{Kind: KindMap, Map: m}
	default:
		return v
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		return json.Marshal(v.Num)
	case KindBool:
		return json.Marshal(v.Bool)
	case KindList:
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	case KindMap:
		if v.Map == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.Map)
	}
	return nil, fmt.Errorf("unknown value kind: %d", v.Kind)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	parsed, err := FromInterface(raw)
	if err != nil {
		return err
	}

	*v = parsed
	return nil
}

// FromInterface converts a decoded JSON value into a Value.
func FromInterface(raw interface{}) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Null(), nil
	case string:
		return String(t), nil
	case float64:
		return Number(t), nil
	case bool:
		return Boolean(t), nil
	case []interface{}:
		items := make([]Value, 0, len(t))
		for _, item := range t {
			v, err := FromInterface(item)
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
		return Value{Kind: KindList, List: items}, nil
	case map[string]interface{}:
		m := make(map[string]Value, len(t))
		for k, item := range t {
			v, err := FromInterface(item)
			if err != nil {
				return Value{}, err
			}
			m[k] = v
		}
		return Value{Kind: KindMap, Map: m}, nil
	default:
		return Value{}, fmt.Errorf("unsupported attribute value type: %T", raw)
	}
}

// Attributes is the opaque body of an entity version.
type Attributes map[string]Value

func (a Attributes) Equal(other Attributes) bool {
	if len(a) != len(other) {
		return false
	}
	for k, v := range a {
		o, ok := other[k]
		if !ok || !v.Equal(o) {
			return false
		}
	}
	return true
}

func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	cloned := make(Attributes, len(a))
	for k, v := range a {
		cloned[k] = v.Clone()
	}
	return cloned
}

// Keys returns the attribute names in sorted order.
func (a Attributes) Keys() []string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Time reads a timestamp attribute. Accepts RFC3339 strings and unix-second
// numbers, the two time encodings clients are known to send.
func (a Attributes) Time(key string) (time.Time, bool) {
	v, ok := a[key]
	if !ok {
		return time.Time{}, false
	}

	switch v.Kind {
	case KindString:
		t, err := time.Parse(time.RFC3339, v.Str)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	case KindNumber:
		sec := int64(v.Num)
		frac := v.Num - float64(sec)
		return time.Unix(sec, int64(frac*float64(time.Second))), true
	default:
		return time.Time{}, false
	}
}
