// Package zarr implements the Zarr V3 chunked N-dimensional array storage
// format: node paths, zarr.json metadata (array and group, plus legacy V2
// .zarray interop), and the Array/Group façades that bind a store to a
// chunk grid and codec chain for chunk- and array-subset-level read/write.
//
// A typical session opens a store (internal/storage/storeadapter wraps
// gocloud.dev/blob), creates or opens an array at a NodePath, and reads or
// writes through Array's RetrieveChunk/StoreChunk, RetrieveChunkSubset/
// StoreChunkSubset, or RetrieveArraySubset/StoreArraySubset methods. Dataset
// layers a batching cursor over RetrieveArraySubset for the common
// leading-dimension training-loop access pattern.
package zarr
