package zarr

import "fmt"

// InvalidArraySubsetError is raised when a requested subset is the wrong
// dimensionality for the array, or (for reads and writes alike) extends
// past the array's shape (§7 ArrayError::InvalidArraySubset).
type InvalidArraySubsetError struct {
	Subset string
	Shape  []uint64
}

func (e *InvalidArraySubsetError) Error() string {
	return fmt.Sprintf("zarr: array subset %s is invalid for array shape %v", e.Subset, e.Shape)
}

// InvalidChunkGridIndicesError is raised when chunk indices are out of
// bounds for the array's chunk grid (§7 ArrayError::InvalidChunkGridIndicesError).
type InvalidChunkGridIndicesError struct {
	Indices []uint64
	Shape   []uint64
}

func (e *InvalidChunkGridIndicesError) Error() string {
	return fmt.Sprintf("zarr: chunk indices %v are out of bounds for array shape %v", e.Indices, e.Shape)
}

// IncompatibleElementSizeError is raised when a typed convenience API (e.g.
// RetrieveArraySubsetTensor) is used against an array whose element size
// does not match the requested Go type (§7 ArrayError::IncompatibleElementSize).
type IncompatibleElementSizeError struct {
	DataType string
	Wanted   int
	Got      int
}

func (e *IncompatibleElementSizeError) Error() string {
	return fmt.Sprintf("zarr: data type %s has element size %d, incompatible with requested size %d", e.DataType, e.Got, e.Wanted)
}

// NotShardedError is raised when the sharded readable extension (§4.K) is
// used against an array whose array→bytes codec is not sharding_indexed.
type NotShardedError struct {
	Path string
}

func (e *NotShardedError) Error() string {
	return fmt.Sprintf("zarr: array %s is not sharded", e.Path)
}
