package config

import (
	"fmt"
	"io"
	"sort"

	"github.com/arnodel/golua/lib"
	rt "github.com/arnodel/golua/runtime"
)

// Resource limits for evaluating a Lua config file.
const (
	luaCPULimit    = 10_000_000
	luaMemoryLimit = 50 * 1024 * 1024
)

// EvalLua runs a Lua config chunk and returns the global devinfo table as
// nested maps with the same keys as the YAML form:
//
//	devinfo = {
//	  log = { level = "debug" },
//	  battery = { rules = { { name = "low", when = "level < 20" } } },
//	}
//
// Durations are written as strings ("2s"). A chunk that never assigns
// devinfo yields an empty map.
func EvalLua(name string, content []byte) (map[string]any, error) {
	r := rt.New(io.Discard)
	cleanup := lib.LoadAll(r)
	defer cleanup()

	closure, err := r.CompileAndLoadLuaChunk(name, content, rt.TableValue(r.GlobalEnv()))
	if err != nil {
		return nil, fmt.Errorf("compiling lua: %w", err)
	}

	// Exceeding a hard limit terminates the context; CallContext turns that
	// into an error.
	t := r.MainThread()
	_, err = t.CallContext(rt.RuntimeContextDef{
		HardLimits: rt.RuntimeResources{
			Cpu:    luaCPULimit,
			Memory: luaMemoryLimit,
		},
	}, func() error {
		_, err := rt.Call1(t, rt.FunctionValue(closure))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("running lua: %w", err)
	}

	root := r.GlobalEnv().Get(rt.StringValue("devinfo"))
	if root == rt.NilValue {
		return map[string]any{}, nil
	}
	table, ok := root.TryTable()
	if !ok {
		return nil, fmt.Errorf("devinfo must be a table, got %s", root.TypeName())
	}
	values, err := luaTable(table, "devinfo")
	if err != nil {
		return nil, err
	}
	m, ok := values.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("devinfo must be a table of keys")
	}
	return m, nil
}

// luaTable converts a table with keys 1..n to []any and any other table
// to map[string]any.
func luaTable(t *rt.Table, path string) (any, error) {
	var (
		strKeys = map[string]rt.Value{}
		intKeys = map[int64]rt.Value{}
	)
	for k, v, _ := t.Next(rt.NilValue); k != rt.NilValue; k, v, _ = t.Next(k) {
		if s, ok := k.TryString(); ok {
			strKeys[s] = v
			continue
		}
		if n, ok := k.TryInt(); ok {
			intKeys[n] = v
			continue
		}
		return nil, fmt.Errorf("%s: unsupported key type %s", path, k.TypeName())
	}

	if len(strKeys) > 0 && len(intKeys) > 0 {
		return nil, fmt.Errorf("%s: mixes list and map entries", path)
	}

	if len(intKeys) > 0 {
		list := make([]any, len(intKeys))
		for i := range list {
			v, ok := intKeys[int64(i+1)]
			if !ok {
				return nil, fmt.Errorf("%s: list has a gap at index %d", path, i+1)
			}
			conv, err := luaValue(v, fmt.Sprintf("%s[%d]", path, i+1))
			if err != nil {
				return nil, err
			}
			list[i] = conv
		}
		return list, nil
	}

	keys := make([]string, 0, len(strKeys))
	for k := range strKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	m := make(map[string]any, len(keys))
	for _, k := range keys {
		conv, err := luaValue(strKeys[k], path+"."+k)
		if err != nil {
			return nil, err
		}
		m[k] = conv
	}
	return m, nil
}

func luaValue(v rt.Value, path string) (any, error) {
	if b, ok := v.TryBool(); ok {
		return b, nil
	}
	if n, ok := v.TryInt(); ok {
		return n, nil
	}
	if f, ok := v.TryFloat(); ok {
		return f, nil
	}
	if s, ok := v.TryString(); ok {
		return s, nil
	}
	if t, ok := v.TryTable(); ok {
		return luaTable(t, path)
	}
	return nil, fmt.Errorf("%s: unsupported value type %s", path, v.TypeName())
}
