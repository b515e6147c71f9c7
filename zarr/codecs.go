package zarr

import (
	"fmt"

	"github.com/nimbusdata/zarrgo/internal/codec"
	"github.com/nimbusdata/zarrgo/internal/codec/sharding"
)

// arrayToArrayNames names the array→array codecs this core registers;
// buildChain uses it, together with the "bytes" and "sharding_indexed"
// names, to route each {name, configuration} entry of zarr.json's "codecs"
// array to the right constructor (every other name goes to the bytes→bytes
// registry), since a
// chain's metadata is a flat list with no kind tag of its own (§3: codecs
// appear in encode order, zero-or-more array→array, exactly one array→bytes,
// zero-or-more bytes→bytes).
var arrayToArrayNames = map[string]bool{"transpose": true, "bitround": true}

// buildChain constructs a CodecChain from a zarr.json "codecs" array.
// sharding_indexed cannot be constructed through the package-level codec
// registry (its configuration embeds nested codec chains, not scalar
// options — see internal/codec/sharding's init), so it is special-cased
// here, the one place that imports both internal/codec and
// internal/codec/sharding and can recurse into buildChain for the inner
// and index sub-chains.
func buildChain(specs []codec.Config) (*codec.CodecChain, error) {
	var aa []codec.ArrayToArrayCodec
	var ab codec.ArrayToBytesCodec
	var bb []codec.BytesToBytesCodec

	for _, spec := range specs {
		switch {
		case spec.Name == "sharding_indexed":
			sc, err := buildShardingCodec(spec.Configuration)
			if err != nil {
				return nil, err
			}
			ab = sc
		case spec.Name == "bytes":
			c, err := codec.NewArrayToBytes(spec)
			if err != nil {
				return nil, err
			}
			ab = c
		case arrayToArrayNames[spec.Name]:
			c, err := codec.NewArrayToArray(spec)
			if err != nil {
				return nil, err
			}
			aa = append(aa, c)
		default:
			c, err := codec.NewBytesToBytes(spec)
			if err != nil {
				return nil, err
			}
			bb = append(bb, c)
		}
	}
	if ab == nil {
		return nil, fmt.Errorf("zarr: codecs array must contain exactly one array→bytes codec")
	}
	return codec.NewChain(aa, ab, bb), nil
}

// buildShardingCodec parses the sharding_indexed configuration: chunk_shape
// (the inner chunk shape), codecs (the inner chain), index_codecs (the
// index chain, which must report a fixed encoded size), and index_location
// ("start" or "end", default "end").
func buildShardingCodec(cfg map[string]any) (codec.ArrayToBytesCodec, error) {
	chunkShape, err := configUintSliceLocal(cfg, "chunk_shape")
	if err != nil {
		return nil, err
	}
	innerSpecs, err := configCodecList(cfg, "codecs")
	if err != nil {
		return nil, err
	}
	innerChain, err := buildChain(innerSpecs)
	if err != nil {
		return nil, fmt.Errorf("zarr: sharding_indexed inner codecs: %w", err)
	}
	indexSpecs, err := configCodecList(cfg, "index_codecs")
	if err != nil {
		return nil, err
	}
	indexChain, err := buildChain(indexSpecs)
	if err != nil {
		return nil, fmt.Errorf("zarr: sharding_indexed index_codecs: %w", err)
	}
	loc := sharding.IndexEnd
	if s, _ := cfg["index_location"].(string); s == "start" {
		loc = sharding.IndexStart
	}
	return sharding.New(chunkShape, innerChain, indexChain, loc), nil
}

func configUintSliceLocal(cfg map[string]any, key string) ([]uint64, error) {
	v, ok := cfg[key]
	if !ok {
		return nil, fmt.Errorf("zarr: sharding_indexed configuration missing %q", key)
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("zarr: sharding_indexed configuration %q is not an array", key)
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
			return nil, fmt.Errorf("zarr: sharding_indexed configuration %q[%d] is not a number", key, i)
		}
	}
	return out, nil
}

// configCodecList parses cfg[key] (a JSON array of {name, configuration}
// objects, as decoded by encoding/json into []any of map[string]any) into
// []codec.Config.
func configCodecList(cfg map[string]any, key string) ([]codec.Config, error) {
	v, ok := cfg[key]
	if !ok {
		return nil, nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("zarr: sharding_indexed configuration %q is not an array", key)
	}
	out := make([]codec.Config, len(raw))
	for i, r := range raw {
		m, ok := r.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("zarr: sharding_indexed configuration %q[%d] is not an object", key, i)
		}
		name, _ := m["name"].(string)
		config, _ := m["configuration"].(map[string]any)
		out[i] = codec.Config{Name: name, Configuration: config}
	}
	return out, nil
}
