package bytespool

import "sync"

// Pool classes start at MinPoolSize and double numPools-1 times. Requests
// above the largest class, or below the smallest, are plain allocations.
const (
	numPools    = 6
	sizeMulti   = 2
	MinPoolSize = 512
)

var (
	pool     [numPools]sync.Pool
	poolSize [numPools]int32
)

func init() {
	size := int32(MinPoolSize)
	for i := range numPools {
		n := size
		pool[i].New = func() any {
			b := make([]byte, n)
			return &b
		}
		poolSize[i] = size
		size *= sizeMulti
	}
}

// Alloc returns a slice of exactly size bytes. Its contents are undefined.
func Alloc(size int32) []byte {
	if size >= MinPoolSize {
		for i, ps := range poolSize {
			if size <= ps {
				b := pool[i].Get().(*[]byte)
				return (*b)[:size]
			}
		}
	}
	return make([]byte, size)
}

// Free returns b to the pool class matching its capacity. Slices that did
// not come from Alloc are accepted as long as they fit a class exactly.
func Free(b []byte) {
	c := int32(cap(b))
	for i, ps := range poolSize {
		if c == ps {
			b = b[:c]
			pool[i].Put(&b)
			return
		}
	}
}
