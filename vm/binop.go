package vm

import (
	"math"

	"github.com/wudi/hebi/value"
)

// numeric promotion rules, grounded on
// _examples/original_source/src/isolate/binop.rs: int op int stays int
// (except division/remainder by zero, which promotes to float rather
// than erroring); any float operand promotes the whole operation to
// float; pow with a negative int exponent promotes to a float
// reciprocal. Operands that aren't both numeric fall through to the
// receiver's Object operator hook (e.g. String/List.Add), matching the
// original's instance meta-method fallback.

func add(lhs, rhs value.Value) (value.Value, error) {
	if li, ok := lhs.ToInt(); ok {
		if ri, ok := rhs.ToInt(); ok {
			return value.Int(li + ri), nil
		}
		if rf, ok := rhs.ToFloat(); ok {
			return value.Float(float64(li) + rf), nil
		}
	} else if lf, ok := lhs.ToFloat(); ok {
		if ri, ok := rhs.ToInt(); ok {
			return value.Float(lf + float64(ri)), nil
		}
		if rf, ok := rhs.ToFloat(); ok {
			return value.Float(lf + rf), nil
		}
	}
	return objectOp(lhs, rhs, func(o value.Object, rhs value.Value) (value.Value, error) { return o.Add(rhs) }, "+")
}

func sub(lhs, rhs value.Value) (value.Value, error) {
	if li, ok := lhs.ToInt(); ok {
		if ri, ok := rhs.ToInt(); ok {
			return value.Int(li - ri), nil
		}
		if rf, ok := rhs.ToFloat(); ok {
			return value.Float(float64(li) - rf), nil
		}
	} else if lf, ok := lhs.ToFloat(); ok {
		if ri, ok := rhs.ToInt(); ok {
			return value.Float(lf - float64(ri)), nil
		}
		if rf, ok := rhs.ToFloat(); ok {
			return value.Float(lf - rf), nil
		}
	}
	return objectOp(lhs, rhs, func(o value.Object, rhs value.Value) (value.Value, error) { return o.Sub(rhs) }, "-")
}

func mul(lhs, rhs value.Value) (value.Value, error) {
	if li, ok := lhs.ToInt(); ok {
		if ri, ok := rhs.ToInt(); ok {
			return value.Int(li * ri), nil
		}
		if rf, ok := rhs.ToFloat(); ok {
			return value.Float(float64(li) * rf), nil
		}
	} else if lf, ok := lhs.ToFloat(); ok {
		if ri, ok := rhs.ToInt(); ok {
			return value.Float(lf * float64(ri)), nil
		}
		if rf, ok := rhs.ToFloat(); ok {
			return value.Float(lf * rf), nil
		}
	}
	return objectOp(lhs, rhs, func(o value.Object, rhs value.Value) (value.Value, error) { return o.Mul(rhs) }, "*")
}

func div(lhs, rhs value.Value) (value.Value, error) {
	if li, ok := lhs.ToInt(); ok {
		if ri, ok := rhs.ToInt(); ok {
			if ri == 0 {
				return value.Float(float64(li) / float64(ri)), nil
			}
			return value.Int(li / ri), nil
		}
		if rf, ok := rhs.ToFloat(); ok {
			return value.Float(float64(li) / rf), nil
		}
	} else if lf, ok := lhs.ToFloat(); ok {
		if ri, ok := rhs.ToInt(); ok {
			return value.Float(lf / float64(ri)), nil
		}
		if rf, ok := rhs.ToFloat(); ok {
			return value.Float(lf / rf), nil
		}
	}
	return objectOp(lhs, rhs, func(o value.Object, rhs value.Value) (value.Value, error) { return o.Div(rhs) }, "/")
}

func rem(lhs, rhs value.Value) (value.Value, error) {
	if li, ok := lhs.ToInt(); ok {
		if ri, ok := rhs.ToInt(); ok {
			if ri == 0 {
				return value.Float(math.Mod(float64(li), float64(ri))), nil
			}
			return value.Int(li % ri), nil
		}
		if rf, ok := rhs.ToFloat(); ok {
			return value.Float(math.Mod(float64(li), rf)), nil
		}
	} else if lf, ok := lhs.ToFloat(); ok {
		if ri, ok := rhs.ToInt(); ok {
			return value.Float(math.Mod(lf, float64(ri))), nil
		}
		if rf, ok := rhs.ToFloat(); ok {
			return value.Float(math.Mod(lf, rf)), nil
		}
	}
	return objectOp(lhs, rhs, func(o value.Object, rhs value.Value) (value.Value, error) { return o.Rem(rhs) }, "%")
}

func pow(lhs, rhs value.Value) (value.Value, error) {
	if li, ok := lhs.ToInt(); ok {
		if ri, ok := rhs.ToInt(); ok {
			if ri < 0 {
				denom := math.Pow(float64(li), float64(-ri))
				return value.Float(1.0 / denom), nil
			}
			return value.Int(int32(intPow(int64(li), int64(ri)))), nil
		}
		if rf, ok := rhs.ToFloat(); ok {
			return value.Float(math.Pow(float64(li), rf)), nil
		}
	} else if lf, ok := lhs.ToFloat(); ok {
		if ri, ok := rhs.ToInt(); ok {
			return value.Float(math.Pow(lf, float64(ri))), nil
		}
		if rf, ok := rhs.ToFloat(); ok {
			return value.Float(math.Pow(lf, rf)), nil
		}
	}
	return objectOp(lhs, rhs, func(o value.Object, rhs value.Value) (value.Value, error) { return o.Pow(rhs) }, "**")
}

func intPow(base, exp int64) int64 {
	result := int64(1)
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}

// objectOp dispatches a binary operator hook through lhs's Object
// implementation when the operands aren't both numeric. This is the Go
// stand-in for the original's instance meta-method lookup.
func objectOp(lhs, rhs value.Value, hook func(value.Object, value.Value) (value.Value, error), sym string) (value.Value, error) {
	o, ok := lhs.ToObject()
	if !ok {
		return value.Value{}, value.NewError(value.TypeMismatch, "cannot apply `%s` to values of type `%s` and `%s`", sym, lhs.TypeName(), rhs.TypeName())
	}
	return hook(o, rhs)
}

// compare implements CmpGt/CmpGe/CmpLt/CmpLe: numeric operands compare by
// value; object operands defer to Cmp.
func compare(lhs, rhs value.Value) (int, error) {
	if li, ok := lhs.ToInt(); ok {
		if ri, ok := rhs.ToInt(); ok {
			return cmpInt(int64(li), int64(ri)), nil
		}
		if rf, ok := rhs.ToFloat(); ok {
			return cmpFloat(float64(li), rf), nil
		}
	} else if lf, ok := lhs.ToFloat(); ok {
		if ri, ok := rhs.ToInt(); ok {
			return cmpFloat(lf, float64(ri)), nil
		}
		if rf, ok := rhs.ToFloat(); ok {
			return cmpFloat(lf, rf), nil
		}
	}
	o, ok := lhs.ToObject()
	if !ok {
		return 0, value.NewError(value.TypeMismatch, "cannot compare values of type `%s` and `%s`", lhs.TypeName(), rhs.TypeName())
	}
	return o.Cmp(rhs)
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// invert implements unary `-`: numeric negation, or the Invert hook.
func invert(v value.Value) (value.Value, error) {
	if i, ok := v.ToInt(); ok {
		return value.Int(-i), nil
	}
	if f, ok := v.ToFloat(); ok {
		return value.Float(-f), nil
	}
	o, ok := v.ToObject()
	if !ok {
		return value.Value{}, value.NewError(value.TypeMismatch, "cannot negate value of type `%s`", v.TypeName())
	}
	return o.Invert()
}

// cmpType implements the `CmpType` opcode ("is"/instanceof check): for
// object operands it defers to InstanceOf; for primitives it compares
// type names directly (rhs is expected to hold a type-name String).
func cmpType(lhs, rhs value.Value) (bool, error) {
	if o, ok := lhs.ToObject(); ok {
		if _, isClass := rhs.ToObject(); isClass {
			return o.InstanceOf(rhs)
		}
	}
	if s, ok := rhs.ToObject(); ok {
		if str, ok := s.(*value.String); ok {
			return lhs.TypeName() == str.Text(), nil
		}
	}
	return false, value.NewError(value.TypeMismatch, "right-hand side of `is` must be a class or type name")
}
