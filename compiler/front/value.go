package front

import (
	"github.com/llir/llvm/ir/value"
	"tlog.app/go/tlog/tlwire"

	"github.com/optiklab/pinky-interpreter/compiler/tp"
)

type (
	// Value is a lowered value tagged with its semantic type.
	// Number and Bool are the only variants.
	Value interface {
		Type() tp.Type
		LL() value.Value

		isValue()
	}

	Number struct {
		X value.Value
	}

	Bool struct {
		X value.Value
	}
)

func typed(t tp.Type, x value.Value) Value {
	switch t {
	case tp.Number:
		return Number{X: x}
	case tp.Bool:
		return Bool{X: x}
	default:
		panic(t)
	}
}

func (v Number) Type() tp.Type { return tp.Number }
func (v Number) LL() value.Value { return v.X }
func (v Number) isValue() {}
func (v Number) TlogAppend(b []byte) []byte { return appendValue(b, v) }

func (v Bool) Type() tp.Type { return tp.Bool }
func (v Bool) LL() value.Value { return v.X }
func (v Bool) isValue() {}
func (v Bool) TlogAppend(b []byte) []byte { return appendValue(b, v) }

func appendValue(b []byte, v Value) []byte {
	var e tlwire.Encoder

	b = e.AppendMap(b, 2)
	b = e.AppendString(b, "type")
	b = e.AppendString(b, v.Type().String())
	b = e.AppendString(b, "ll")
	b = e.AppendString(b, v.LL().Ident())

	return b
}
