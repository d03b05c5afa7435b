package set

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitmap(t *testing.T) {
	var s Bitmap

	assert.False(t, s.IsSet(0))
	assert.Equal(t, 0, s.Size())

	for _, i := range []int{3, 0, 64, 200, 3} {
		s.Set(i)
	}

	assert.True(t, s.IsSet(0))
	assert.True(t, s.IsSet(64))
	assert.False(t, s.IsSet(65))
	assert.False(t, s.IsSet(1000))
	assert.Equal(t, 4, s.Size())

	var got []int

	s.Range(func(i int) bool {
		got = append(got, i)
		return i < 64
	})

	assert.Equal(t, []int{0, 3, 64}, got)
}
