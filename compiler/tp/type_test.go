package tp

import (
	"testing"

	"github.com/llir/llvm/ir/types"
	"github.com/stretchr/testify/assert"
)

func TestLL(t *testing.T) {
	assert.Equal(t, types.Double, Number.LL())
	assert.Equal(t, types.I1, Bool.LL())
	assert.Nil(t, String.LL())
	assert.Nil(t, Invalid.LL())

	assert.Equal(t, "Number", Number.String())
	assert.Equal(t, "Invalid", Type(42).String())
}
