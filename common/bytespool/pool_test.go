package bytespool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlloc(t *testing.T) {
	small := Alloc(32)
	assert.Len(t, small, 32)
	assert.Equal(t, 32, cap(small))

	b := Alloc(MinPoolSize + 1)
	assert.Len(t, b, MinPoolSize+1)
	assert.Equal(t, 2*MinPoolSize, cap(b))
	Free(b)

	huge := Alloc(MinPoolSize << numPools)
	assert.Len(t, huge, MinPoolSize<<numPools)
	Free(huge) // larger than every class, dropped
}

func TestFreeReuse(t *testing.T) {
	b := Alloc(MinPoolSize)
	b[0] = 0xff
	Free(b)
	Free(make([]byte, 3)) // not a pool class

	again := Alloc(MinPoolSize)
	assert.Len(t, again, MinPoolSize)
}
