package codec

import "fmt"

// Config is the decoded {name, configuration} metadata for one codec
// entry. Configuration is the raw JSON object, left to each constructor to
// interpret.
type Config struct {
	Name          string
	Configuration map[string]any
}

// ArrayToArrayConstructor, ArrayToBytesConstructor, and
// BytesToBytesConstructor build a codec of the matching kind from its
// configuration. Registered constructors are the plugin mechanism named in
// §9 "Dynamic dispatch": a registry keyed by codec name is the canonical
// external identifier.
type (
	ArrayToArrayConstructor func(config map[string]any) (ArrayToArrayCodec, error)
	ArrayToBytesConstructor func(config map[string]any) (ArrayToBytesCodec, error)
	BytesToBytesConstructor func(config map[string]any) (BytesToBytesCodec, error)
)

var (
	arrayToArrayRegistry = map[string]ArrayToArrayConstructor{}
	arrayToBytesRegistry = map[string]ArrayToBytesConstructor{}
	bytesToBytesRegistry = map[string]BytesToBytesConstructor{}
)

func RegisterArrayToArray(name string, ctor ArrayToArrayConstructor) { arrayToArrayRegistry[name] = ctor }
func RegisterArrayToBytes(name string, ctor ArrayToBytesConstructor) { arrayToBytesRegistry[name] = ctor }
func RegisterBytesToBytes(name string, ctor BytesToBytesConstructor) { bytesToBytesRegistry[name] = ctor }

// NewArrayToArray constructs a registered array→array codec by name.
func NewArrayToArray(cfg Config) (ArrayToArrayCodec, error) {
	ctor, ok := arrayToArrayRegistry[cfg.Name]
	if !ok {
		return nil, &PluginCreateError{Kind: "codec", Name: cfg.Name}
	}
	return ctor(cfg.Configuration)
}

// NewArrayToBytes constructs a registered array→bytes codec by name.
func NewArrayToBytes(cfg Config) (ArrayToBytesCodec, error) {
	ctor, ok := arrayToBytesRegistry[cfg.Name]
	if !ok {
		return nil, &PluginCreateError{Kind: "codec", Name: cfg.Name}
	}
	return ctor(cfg.Configuration)
}

// NewBytesToBytes constructs a registered bytes→bytes codec by name.
func NewBytesToBytes(cfg Config) (BytesToBytesCodec, error) {
	ctor, ok := bytesToBytesRegistry[cfg.Name]
	if !ok {
		return nil, &PluginCreateError{Kind: "codec", Name: cfg.Name}
	}
	return ctor(cfg.Configuration)
}

func configString(cfg map[string]any, key, def string) string {
	if v, ok := cfg[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

func configInt(cfg map[string]any, key string, def int) int {
	if v, ok := cfg[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return def
}

func configBool(cfg map[string]any, key string, def bool) bool {
	if v, ok := cfg[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

func configUintSlice(cfg map[string]any, key string) ([]uint64, error) {
	v, ok := cfg[key]
	if !ok {
		return nil, fmt.Errorf("codec: missing configuration key %q", key)
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("codec: configuration key %q is not an array", key)
	}
	out := make([]uint64, len(raw))
	for i, r := range raw {
		switch n := r.(type) {
		case float64:
			out[i] = uint64(n)
		case int:
			out[i] = uint64(n)
		case int64:
			out[i] = uint64(n)
		case uint64:
			out[i] = n
		default:
			return nil, fmt.Errorf("codec: configuration key %q[%d] is not a number", key, i)
		}
	}
	return out, nil
}
