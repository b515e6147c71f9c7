package storage

import "errors"

// errNotWritable/errNotErasable/errNotListable are returned by transformer
// wrappers when the wrapped store does not implement the capability being
// invoked through the transformer — concrete stores implement any subset
// of the four capability sets (§4.A), and a transformer must surface that
// rather than panic.
var (
	errNotWritable = errors.New("storage: wrapped store does not implement WritableStore")
	errNotErasable = errors.New("storage: wrapped store does not implement EraseableStore")
	errNotListable = errors.New("storage: wrapped store does not implement ListableStore")
)
