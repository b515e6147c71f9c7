package sharding

import (
	"encoding/binary"
	"fmt"

	"github.com/nimbusdata/zarrgo/internal/codec"
	"github.com/nimbusdata/zarrgo/internal/datatype"
)

// IndexEntrySize is the encoded byte size of one (offset, length) record:
// two little-endian uint64s.
const IndexEntrySize = 16

// Sentinel is the (u64::MAX, u64::MAX) record marking an absent inner chunk
// (§4.G).
var Sentinel = IndexEntry{Offset: ^uint64(0), Length: ^uint64(0)}

// IndexEntry locates one inner chunk's encoded bytes within a shard.
type IndexEntry struct {
	Offset uint64
	Length uint64
}

// IsAbsent reports whether e is the sentinel meaning "this inner chunk was
// never written".
func (e IndexEntry) IsAbsent() bool { return e == Sentinel }

// indexRepresentation is the ChunkRepresentation the index codecs operate
// against: a flat (numChunks, 2) array of uint64.
func indexRepresentation(numChunks uint64) codec.ChunkRepresentation {
	return codec.ChunkRepresentation{
		Shape:     []uint64{numChunks, 2},
		DataType:  datatype.Uint64(),
		FillValue: datatype.Zero(datatype.Uint64()),
	}
}

// indexByteSize asks indexChain how large its encoding of numChunks records
// is. The index must have a fixed size — it is read with a single range
// request before anything else about the shard is known (§4.G) — so a
// chain reporting anything other than FixedSize is a configuration error.
func indexByteSize(indexChain *codec.CodecChain, numChunks uint64) (uint64, error) {
	rep := indexRepresentation(numChunks)
	br, err := indexChain.EncodedRepresentation(rep)
	if err != nil {
		return 0, err
	}
	if br.Kind != datatype.FixedSize {
		return 0, fmt.Errorf("sharding: index_codecs must produce a fixed-size encoding, got kind %d", br.Kind)
	}
	return br.Size, nil
}

func encodeIndex(entries []IndexEntry, indexChain *codec.CodecChain, opts codec.Options) ([]byte, error) {
	flat := make([]byte, len(entries)*IndexEntrySize)
	for i, e := range entries {
		binary.LittleEndian.PutUint64(flat[i*IndexEntrySize:], e.Offset)
		binary.LittleEndian.PutUint64(flat[i*IndexEntrySize+8:], e.Length)
	}
	ab, err := datatype.NewFixed(datatype.Uint64(), flat)
	if err != nil {
		return nil, err
	}
	rep := indexRepresentation(uint64(len(entries)))
	return indexChain.Encode(ab, rep, opts)
}

func decodeIndex(buf []byte, numChunks uint64, indexChain *codec.CodecChain, opts codec.Options) ([]IndexEntry, error) {
	rep := indexRepresentation(numChunks)
	ab, err := indexChain.Decode(buf, rep, opts)
	if err != nil {
		return nil, err
	}
	flat, err := ab.IntoFixed()
	if err != nil {
		return nil, err
	}
	if uint64(len(flat)) != numChunks*IndexEntrySize {
		return nil, fmt.Errorf("sharding: decoded index has %d bytes, expected %d", len(flat), numChunks*IndexEntrySize)
	}
	entries := make([]IndexEntry, numChunks)
	for i := range entries {
		entries[i].Offset = binary.LittleEndian.Uint64(flat[i*IndexEntrySize:])
		entries[i].Length = binary.LittleEndian.Uint64(flat[i*IndexEntrySize+8:])
	}
	return entries, nil
}
