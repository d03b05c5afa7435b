package tp

import (
	"github.com/llir/llvm/ir/types"
)

// Type is a semantic type tag of a lowered value.
type Type int

const (
	Invalid Type = iota
	Number
	Bool
	String
)

func (t Type) String() string {
	switch t {
	case Number:
		return "Number"
	case Bool:
		return "Bool"
	case String:
		return "String"
	default:
		return "Invalid"
	}
}

// LL returns the storage type of t in the target module.
// Only Number and Bool have one.
func (t Type) LL() types.Type {
	switch t {
	case Number:
		return types.Double
	case Bool:
		return types.I1
	default:
		return nil
	}
}
