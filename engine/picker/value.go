package picker

import (
	"math"
	"strconv"

	"github.com/nathoo/fancypick/types"
)

// Value is a picked number tagged with its kind. Integer kinds keep their
// bits in an unsigned carrier; 32-bit values never carry bits above 31.
type Value struct {
	kind types.Kind
	bits uint64
	f    float64
}

// Int returns a 32-bit integer value; v is truncated to its low 32 bits.
func Int(v int64) Value {
	return Value{kind: types.KindInt, bits: uint64(uint32(v))}
}

// Wide returns a 64-bit integer value.
func Wide(v int64) Value {
	return Value{kind: types.KindInt64, bits: uint64(v)}
}

// WideU returns a 64-bit integer value from unsigned bits.
func WideU(v uint64) Value {
	return Value{kind: types.KindInt64, bits: v}
}

// Float returns a floating-point value.
func Float(v float64) Value {
	return Value{kind: types.KindFloat, f: v}
}

// Kind reports the value's kind.
func (v Value) Kind() types.Kind { return v.kind }

// Uint32 returns the value as a 32-bit unsigned integer.
func (v Value) Uint32() uint32 {
	if v.kind == types.KindFloat {
		return uint32(int64(v.f))
	}
	return uint32(v.bits)
}

// Uint64 returns the value as a 64-bit unsigned integer.
func (v Value) Uint64() uint64 {
	if v.kind == types.KindFloat {
		return uint64(int64(v.f))
	}
	return v.bits
}

// Int64 returns integer values sign-extended from their width.
func (v Value) Int64() int64 {
	switch v.kind {
	case types.KindInt:
		return int64(int32(uint32(v.bits)))
	case types.KindFloat:
		return int64(v.f)
	}
	return int64(v.bits)
}

// Float64 returns the value as a float.
func (v Value) Float64() float64 {
	if v.kind == types.KindFloat {
		return v.f
	}
	return float64(v.bits)
}

func (v Value) String() string {
	switch v.kind {
	case types.KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case types.KindInt, types.KindInt64:
		return strconv.FormatUint(v.bits, 10)
	}
	return "<unset>"
}

// less orders two values of the same kind; integers compare unsigned.
func (v Value) less(o Value) bool {
	if v.kind == types.KindFloat {
		return v.f < o.f
	}
	return v.bits < o.bits
}

// coerce converts v to kind k. Callbacks may return any numeric kind.
func coerce(v Value, k types.Kind) Value {
	if v.kind == k {
		return v
	}
	switch k {
	case types.KindFloat:
		if v.kind == types.KindInt {
			return Float(float64(int32(uint32(v.bits))))
		}
		return Float(float64(int64(v.bits)))
	case types.KindInt:
		if v.kind == types.KindFloat {
			return Int(int64(v.f))
		}
		return Int(int64(v.bits))
	case types.KindInt64:
		if v.kind == types.KindFloat {
			if v.f >= math.MaxInt64 {
				return WideU(uint64(v.f))
			}
			return Wide(int64(v.f))
		}
		return Wide(int64(int32(uint32(v.bits))))
	}
	return v
}

// widthMask returns the carrier mask for an integer kind.
func widthMask(k types.Kind) uint64 {
	if k == types.KindInt {
		return math.MaxUint32
	}
	return math.MaxUint64
}

// signedNegative reports whether an integer value is negative in its width.
func signedNegative(v Value) bool {
	if v.kind == types.KindInt {
		return int32(uint32(v.bits)) < 0
	}
	return int64(v.bits) < 0
}
