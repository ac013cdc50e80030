package codeexec

import (
	"encoding/json"
	"math"
	"sort"

	"go.starlark.net/starlark"
)

const maxConvertDepth = 32

// Bindings converts the top-level names of a finished program into values
// encoding/json can marshal. Values with no JSON form use their repr.
func Bindings(globals starlark.StringDict) map[string]any {
	out := make(map[string]any, len(globals))
	for _, name := range globals.Keys() {
		out[name] = toJSON(globals[name], 0)
	}
	return out
}

func toJSON(v starlark.Value, depth int) any {
	if depth > maxConvertDepth {
		return v.String()
	}
	switch v := v.(type) {
	case starlark.NoneType:
		return nil
	case starlark.Bool:
		return bool(v)
	case starlark.Int:
		if n, ok := v.Int64(); ok {
			return n
		}
		return json.Number(v.String())
	case starlark.Float:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return v.String()
		}
		return f
	case starlark.String:
		return v.GoString()
	case *starlark.List:
		items := make([]any, v.Len())
		for i := range items {
			items[i] = toJSON(v.Index(i), depth+1)
		}
		return items
	case starlark.Tuple:
		items := make([]any, len(v))
		for i, e := range v {
			items[i] = toJSON(e, depth+1)
		}
		return items
	case *starlark.Dict:
		m := make(map[string]any, v.Len())
		for _, kv := range v.Items() {
			m[dictKey(kv[0])] = toJSON(kv[1], depth+1)
		}
		return m
	case *starlark.Set:
		items := make([]any, 0, v.Len())
		iter := v.Iterate()
		defer iter.Done()
		var e starlark.Value
		for iter.Next(&e) {
			items = append(items, toJSON(e, depth+1))
		}
		return items
	default:
		return v.String()
	}
}

func dictKey(k starlark.Value) string {
	if s, ok := k.(starlark.String); ok {
		return s.GoString()
	}
	return k.String()
}

// sortedNames is used by logs so binding order is stable.
func sortedNames(m map[string]any) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
