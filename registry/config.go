package registry

import (
	"github.com/spf13/cast"

	"github.com/channely/datablocks-editor/errs"
	"github.com/channely/datablocks-editor/table"
)

// cfgString/cfgStringSlice/etc. pull typed values out of an
// ExecutionContext.Config map, using cast the way package table uses
// it for cell coercion. cfgString/cfgInt/cfgBool return the default
// when the key is absent and never fail; requireString is the one that
// returns a ValidationError.
func cfgString(cfg map[string]any, key, def string) string {
	v, ok := cfg[key]
	if !ok {
		return def
	}
	return cast.ToString(v)
}

func cfgInt(cfg map[string]any, key string, def int) int {
	v, ok := cfg[key]
	if !ok {
		return def
	}
	return cast.ToInt(v)
}

func cfgBool(cfg map[string]any, key string, def bool) bool {
	v, ok := cfg[key]
	if !ok {
		return def
	}
	return cast.ToBool(v)
}

func cfgStringMap(cfg map[string]any, key string) map[string]string {
	v, ok := cfg[key]
	if !ok {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, val := range m {
		out[k] = cast.ToString(val)
	}
	return out
}

func requireString(cfg map[string]any, key string) (string, error) {
	v, ok := cfg[key]
	if !ok {
		return "", errs.ErrValidation.New("missing required field %q", key)
	}
	s := cast.ToString(v)
	if s == "" {
		return "", errs.ErrValidation.New("field %q must not be empty", key)
	}
	return s, nil
}

// singleUpstream resolves the single-input-port convention // describes: when exactly one upstream table is available it is
// returned directly, regardless of the producing node's id.
func singleUpstream(ctx ExecutionContext) (*table.Table, error) {
	switch len(ctx.Upstream) {
	case 0:
		return nil, errs.ErrValidation.New("node %s has no upstream input", ctx.NodeID)
	case 1:
		for _, t := range ctx.Upstream {
			return t, nil
		}
	}
	return nil, errs.ErrValidation.New("node %s expects a single input but has %d upstream outputs", ctx.NodeID, len(ctx.Upstream))
}
