// Package felt implements Felt252, the field element of the Cairo VM.
package felt

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
)

// Bytes is the size of the canonical big-endian encoding.
const Bytes = fp.Bytes

// Felt is an element of the STARK prime field. The zero value is 0.
type Felt struct {
	e fp.Element
}

// Prime returns the field modulus 2^251 + 17*2^192 + 1.
func Prime() *big.Int {
	return fp.Modulus()
}

func FromUint64(v uint64) Felt {
	var f Felt
	f.e.SetUint64(v)
	return f
}

// FromBigInt reduces v modulo the prime; negative values wrap around.
func FromBigInt(v *big.Int) Felt {
	var f Felt
	f.e.SetBigInt(v)
	return f
}

// FromBytes interprets b as a big-endian integer reduced modulo the prime.
func FromBytes(b []byte) Felt {
	var f Felt
	f.e.SetBytes(b)
	return f
}

// Parse accepts a decimal literal or a 0x-prefixed hexadecimal literal.
func Parse(text string) (Felt, error) {
	raw := strings.TrimSpace(text)
	base := 10
	digits := raw
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		base = 16
		digits = raw[2:]
	}
	if digits == "" {
		return Felt{}, fmt.Errorf("invalid felt literal %q", text)
	}
	v, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return Felt{}, fmt.Errorf("invalid felt literal %q", text)
	}
	return FromBigInt(v), nil
}

// MustParse is Parse for package-level constants.
func MustParse(text string) Felt {
	f, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return f
}

// String renders the canonical decimal representation.
func (f Felt) String() string {
	return f.e.Text(10)
}

// Hex renders the canonical value as 0x-prefixed lowercase hex.
func (f Felt) Hex() string {
	return "0x" + f.e.Text(16)
}

// BigInt returns the canonical integer in [0, prime).
func (f Felt) BigInt() *big.Int {
	return f.e.BigInt(new(big.Int))
}

// Bytes32 returns the canonical 32-byte big-endian encoding.
func (f Felt) Bytes32() [Bytes]byte {
	return f.e.Bytes()
}

// MinimalBytes returns the big-endian encoding without leading zero bytes.
// Zero encodes as a single zero byte.
func (f Felt) MinimalBytes() []byte {
	b := f.BigInt().Bytes()
	if len(b) == 0 {
		return []byte{0}
	}
	return b
}

// Uint64 reports the value when it fits in 64 bits.
func (f Felt) Uint64() (uint64, bool) {
	if !f.e.IsUint64() {
		return 0, false
	}
	return f.e.Uint64(), true
}

func (f Felt) IsZero() bool {
	return f.e.IsZero()
}

func (f Felt) Equal(other Felt) bool {
	return f.e.Equal(&other.e)
}

func (f Felt) Add(other Felt) Felt {
	var out Felt
	out.e.Add(&f.e, &other.e)
	return out
}

func (f Felt) Mul(other Felt) Felt {
	var out Felt
	out.e.Mul(&f.e, &other.e)
	return out
}

// Sqrt returns a square root of f, or false when f is not a quadratic residue.
func (f Felt) Sqrt() (Felt, bool) {
	var out Felt
	if out.e.Sqrt(&f.e) == nil {
		return Felt{}, false
	}
	return out, true
}

// Strings renders each element in decimal.
func Strings(values []Felt) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, v.String())
	}
	return out
}
