package core

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// poolBlockSize is the fixed capacity of a pooled Buffer. Requests at or
// below this size are served from the recycling pool; larger requests are
// allocated fresh and never pooled.
const poolBlockSize = 4096

const (
	shardLocalMax = 32   // per-shard local tier cap
	poolGlobalMax = 1024 // mutex-guarded global tier cap
)

// Buffer is a contiguous byte container with size <= capacity. It is the
// library's byte-container contract: fixed-capacity allocation, data/size/
// capacity accessors, Assign/Append/Clear, and pooled allocation via
// PoolAlloc.
type Buffer struct {
	data []byte
	size int
}

// NewBuffer allocates a fresh, non-pooled buffer with the given capacity.
func NewBuffer(capacity int) *Buffer {
	return &Buffer{data: make([]byte, capacity)}
}

// PoolAlloc returns a Buffer whose capacity is at least n. If n is within
// poolBlockSize it is drawn from the recycling pool (a sharded local tier
// first, then the mutex-guarded global tier); otherwise it is freshly
// allocated and will not be recycled on Release.
func PoolAlloc(n int) *Buffer {
	if n > poolBlockSize {
		return &Buffer{data: make([]byte, n)}
	}
	if b := defaultPool.get(); b != nil {
		b.size = 0
		return b
	}
	return &Buffer{data: make([]byte, poolBlockSize)}
}

// Data returns the buffer's valid bytes (length == Size()).
func (b *Buffer) Data() []byte {
	return b.data[:b.size]
}

// Bytes is an alias for Data, provided for callers that read buffer
// contents without committing to the "data" naming.
func (b *Buffer) Bytes() []byte {
	return b.Data()
}

// Size returns the number of valid bytes currently held.
func (b *Buffer) Size() int {
	return b.size
}

// Capacity returns the total storage backing the buffer.
func (b *Buffer) Capacity() int {
	return len(b.data)
}

// Clear resets size to zero without releasing the backing storage.
func (b *Buffer) Clear() {
	b.size = 0
}

// Assign replaces the buffer's contents with p, growing the backing
// storage if p is larger than the current capacity.
func (b *Buffer) Assign(p []byte) {
	if len(p) > cap(b.data) {
		b.data = make([]byte, len(p))
	} else {
		b.data = b.data[:cap(b.data)]
	}
	copy(b.data, p)
	b.size = len(p)
}

// Append adds p to the end of the buffer's valid bytes, growing the
// backing storage if necessary.
func (b *Buffer) Append(p []byte) {
	need := b.size + len(p)
	if need > cap(b.data) {
		grown := make([]byte, need)
		copy(grown, b.data[:b.size])
		b.data = grown
	} else if need > len(b.data) {
		b.data = b.data[:cap(b.data)]
	}
	copy(b.data[b.size:need], p)
	b.size = need
}

// Release returns a pool-block-sized buffer to the recycling pool. A
// buffer allocated above poolBlockSize (via NewBuffer or a large
// PoolAlloc) is simply dropped for the garbage collector to reclaim.
func (b *Buffer) Release() {
	if cap(b.data) != poolBlockSize {
		return
	}
	b.Clear()
	defaultPool.put(b)
}

// bufferPool realizes the two-tier pool of spec.md §4.1: a bounded local
// tier sharded across GOMAXPROCS slots (Go has no portable thread-local
// storage, so sharding by a round-robin index is the idiomatic stand-in
// for the reference's thread_local vector) backed by a single
// mutex-guarded global tier. A shard miss falls through to the global
// tier; a shard that is full on Put spills to the global tier; beyond
// the global cap, buffers are dropped for the GC to reclaim.
type bufferPool struct {
	shards []shard

	globalMu   sync.Mutex
	globalPool []*Buffer

	next atomic.Uint32
}

type shard struct {
	mu  sync.Mutex
	buf []*Buffer
}

var defaultPool = newBufferPool()

func newBufferPool() *bufferPool {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		n = 1
	}
	p := &bufferPool{shards: make([]shard, n)}
	p.globalPool = make([]*Buffer, 0, poolGlobalMax)
	return p
}

func (p *bufferPool) pickShard() *shard {
	idx := p.next.Add(1) % uint32(len(p.shards))
	return &p.shards[idx]
}

func (p *bufferPool) get() *Buffer {
	s := p.pickShard()
	s.mu.Lock()
	if n := len(s.buf); n > 0 {
		b := s.buf[n-1]
		s.buf = s.buf[:n-1]
		s.mu.Unlock()
		return b
	}
	s.mu.Unlock()

	p.globalMu.Lock()
	defer p.globalMu.Unlock()
	if n := len(p.globalPool); n > 0 {
		b := p.globalPool[n-1]
		p.globalPool = p.globalPool[:n-1]
		return b
	}
	return nil
}

func (p *bufferPool) put(b *Buffer) {
	s := p.pickShard()
	s.mu.Lock()
	if len(s.buf) < shardLocalMax {
		s.buf = append(s.buf, b)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	p.globalMu.Lock()
	defer p.globalMu.Unlock()
	if len(p.globalPool) < poolGlobalMax {
		p.globalPool = append(p.globalPool, b)
	}
	// beyond the global cap, drop b for the garbage collector
}
