package vmval

import (
	"github.com/holiman/uint256"
)

// ErrArithmetic is returned by the checked arithmetic helpers below on
// overflow or division by zero: U256/I256 arithmetic is always checked.
type ErrArithmetic struct {
	Op string
}

func (e ErrArithmetic) Error() string { return "arithmetic error: " + e.Op }

// AddU256 computes x+y with unsigned overflow checking.
func AddU256(x, y Value) (Value, error) {
	var z uint256.Int
	_, overflow := z.AddOverflow(x.U256(), y.U256())
	if overflow {
		return Value{}, ErrArithmetic{"AddU256"}
	}
	return NewU256(&z), nil
}

func SubU256(x, y Value) (Value, error) {
	var z uint256.Int
	_, underflow := z.SubOverflow(x.U256(), y.U256())
	if underflow {
		return Value{}, ErrArithmetic{"SubU256"}
	}
	return NewU256(&z), nil
}

func MulU256(x, y Value) (Value, error) {
	var z uint256.Int
	_, overflow := z.MulOverflow(x.U256(), y.U256())
	if overflow {
		return Value{}, ErrArithmetic{"MulU256"}
	}
	return NewU256(&z), nil
}

func DivU256(x, y Value) (Value, error) {
	if y.U256().IsZero() {
		return Value{}, ErrArithmetic{"DivU256"}
	}
	var z uint256.Int
	z.Div(x.U256(), y.U256())
	return NewU256(&z), nil
}

func ModU256(x, y Value) (Value, error) {
	if y.U256().IsZero() {
		return Value{}, ErrArithmetic{"ModU256"}
	}
	var z uint256.Int
	z.Mod(x.U256(), y.U256())
	return NewU256(&z), nil
}

// AddI256 adds two two's-complement I256 values, failing on signed overflow
// (operands share a sign but the result's sign differs from theirs).
func AddI256(x, y Value) (Value, error) {
	var z uint256.Int
	z.Add(x.I256(), y.I256())
	xn, yn, zn := i256Negative(x.I256()), i256Negative(y.I256()), i256Negative(&z)
	if xn == yn && zn != xn {
		return Value{}, ErrArithmetic{"AddI256"}
	}
	return NewI256(&z), nil
}

func SubI256(x, y Value) (Value, error) {
	var z uint256.Int
	z.Sub(x.I256(), y.I256())
	xn, yn, zn := i256Negative(x.I256()), i256Negative(y.I256()), i256Negative(&z)
	if xn != yn && zn != xn {
		return Value{}, ErrArithmetic{"SubI256"}
	}
	return NewI256(&z), nil
}

func MulI256(x, y Value) (Value, error) {
	if x.I256().IsZero() || y.I256().IsZero() {
		return NewI256Zero(), nil
	}
	var z uint256.Int
	z.Mul(x.I256(), y.I256())
	// Overflow check via division back out; the two's-complement product
	// only round-trips when no overflow occurred.
	var back uint256.Int
	back.SDiv(&z, x.I256())
	if !back.Eq(y.I256()) {
		return Value{}, ErrArithmetic{"MulI256"}
	}
	return NewI256(&z), nil
}

func DivI256(x, y Value) (Value, error) {
	if y.I256().IsZero() {
		return Value{}, ErrArithmetic{"DivI256"}
	}
	var z uint256.Int
	z.SDiv(x.I256(), y.I256())
	return NewI256(&z), nil
}

func ModI256(x, y Value) (Value, error) {
	if y.I256().IsZero() {
		return Value{}, ErrArithmetic{"ModI256"}
	}
	var z uint256.Int
	z.SMod(x.I256(), y.I256())
	return NewI256(&z), nil
}
