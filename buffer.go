package network

import "github.com/lmshao/network/internal/core"

// Buffer is a contiguous byte container with size <= capacity: the
// library's byte-container contract. Its implementation lives in
// internal/core so transport packages can construct and pass it around
// without importing this package. See internal/core.Buffer for the
// accessor and pooling documentation.
type Buffer = core.Buffer

// NewBuffer allocates a fresh, non-pooled buffer with the given capacity.
func NewBuffer(capacity int) *Buffer { return core.NewBuffer(capacity) }

// PoolAlloc returns a Buffer whose capacity is at least n, drawn from
// the recycling pool when n fits within the pool's fixed block size.
func PoolAlloc(n int) *Buffer { return core.PoolAlloc(n) }
