package codec

import (
	"math/big"
)

// Uint128 is the Go binding of the u128 shape.
type Uint128 struct {
	Lo uint64
	Hi uint64
}

// Int128 is the Go binding of the i128 shape, two's complement across Hi:Lo.
type Int128 struct {
	Lo uint64
	Hi int64
}

// U128 widens v to a Uint128.
func U128(v uint64) Uint128 {
	return Uint128{Lo: v}
}

// I128 sign-extends v to an Int128.
func I128(v int64) Int128 {
	hi := int64(0)
	if v < 0 {
		hi = -1
	}
	return Int128{Lo: uint64(v), Hi: hi}
}

// Big returns v as a big.Int.
func (v Uint128) Big() *big.Int {
	n := new(big.Int).SetUint64(v.Hi)
	n.Lsh(n, 64)
	return n.Or(n, new(big.Int).SetUint64(v.Lo))
}

func (v Uint128) String() string {
	return v.Big().String()
}

// Big returns v as a big.Int.
func (v Int128) Big() *big.Int {
	n := big.NewInt(v.Hi)
	n.Lsh(n, 64)
	return n.Add(n, new(big.Int).SetUint64(v.Lo))
}

func (v Int128) String() string {
	return v.Big().String()
}
