// Package base58 implements the Bitcoin-alphabet Base58 encoding used to
// render network identities.
//
// The encoding treats its input as a big-endian unsigned integer. Leading
// 0x00 bytes carry no magnitude, so they are preserved explicitly: each one
// maps to a single leading '1' character and back.
package base58

import (
	"fmt"
	"math/big"
)

// Alphabet is the 58-character digit set: 1-9, uppercase without I/O,
// lowercase without l. It contains no path separators, so encoded strings
// are safe to use verbatim as directory components.
const Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// InvalidCharacterError reports a rune outside the Base58 alphabet.
//
// Position is the byte offset of the offending rune in the input string.
type InvalidCharacterError struct {
	Char     rune
	Position int
}

func (e *InvalidCharacterError) Error() string {
	return fmt.Sprintf("base58: invalid character %q at position %d", e.Char, e.Position)
}

var radix = big.NewInt(58)

// digitValue maps a byte to its alphabet index, or -1.
var digitValue = func() [256]int8 {
	var table [256]int8
	for i := range table {
		table[i] = -1
	}
	for i := 0; i < len(Alphabet); i++ {
		table[Alphabet[i]] = int8(i)
	}
	return table
}()

// Encode renders b as Base58 text. Empty input yields the empty string.
func Encode(b []byte) string {
	zeros := 0
	for zeros < len(b) && b[zeros] == 0 {
		zeros++
	}

	// Upper bound on output length: log(256)/log(58) < 1.366 digits per byte.
	size := zeros + (len(b)-zeros)*137/100 + 1
	out := make([]byte, 0, size)

	n := new(big.Int).SetBytes(b[zeros:])
	rem := new(big.Int)
	for n.Sign() > 0 {
		n.QuoRem(n, radix, rem)
		out = append(out, Alphabet[rem.Int64()])
	}
	for i := 0; i < zeros; i++ {
		out = append(out, Alphabet[0])
	}

	// Digits were produced least-significant first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

// Decode parses Base58 text back into bytes. It returns an
// *InvalidCharacterError for any rune outside the alphabet, including
// any non-ASCII rune.
func Decode(s string) ([]byte, error) {
	for i, r := range s {
		if r > 0x7f || digitValue[byte(r)] < 0 {
			return nil, &InvalidCharacterError{Char: r, Position: i}
		}
	}

	zeros := 0
	for zeros < len(s) && s[zeros] == Alphabet[0] {
		zeros++
	}

	n := new(big.Int)
	for i := zeros; i < len(s); i++ {
		n.Mul(n, radix)
		n.Add(n, big.NewInt(int64(digitValue[s[i]])))
	}

	mag := n.Bytes()
	out := make([]byte, zeros+len(mag))
	copy(out[zeros:], mag)
	return out, nil
}
