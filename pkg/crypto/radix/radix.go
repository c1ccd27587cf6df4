// Package radix converts digit strings in bases 2 through 36 to exact
// arbitrary-precision integers and back.
package radix

import (
	"errors"
	"fmt"
	"math"
	"math/big"
)

const (
	MinBase = 2
	MaxBase = 36
)

var (
	ErrInvalidBase   = errors.New("invalid base")
	ErrInvalidDigit  = errors.New("invalid digit")
	ErrNegativeValue = errors.New("negative value")
)

// ValidBase reports whether base is in [MinBase, MaxBase].
func ValidBase(base int) bool {
	return base >= MinBase && base <= MaxBase
}

// Decode returns the integer represented by digits in the given base.
// Letters are case-insensitive. Signs, separators and prefixes are rejected.
func Decode(digits string, base int) (*big.Int, error) {
	if !ValidBase(base) {
		return nil, fmt.Errorf("%w: %d is outside [%d, %d]", ErrInvalidBase, base, MinBase, MaxBase)
	}
	if digits == "" {
		return nil, fmt.Errorf("%w: empty digit string", ErrInvalidDigit)
	}

	// Digits are packed into uint64 words so the big accumulator is
	// multiplied once per word rather than once per digit.
	width, wordBase := wordSize(base)
	acc := new(big.Int)
	d := new(big.Int)
	bigWordBase := new(big.Int).SetUint64(wordBase)

	var word uint64
	n := 0
	for i, ch := range digits {
		v, ok := digitValue(ch)
		if !ok || v >= base {
			return nil, fmt.Errorf("%w: %q at position %d is not a base-%d digit", ErrInvalidDigit, ch, i, base)
		}
		word = word*uint64(base) + uint64(v)
		n++
		if n == width {
			acc.Mul(acc, bigWordBase)
			acc.Add(acc, d.SetUint64(word))
			word, n = 0, 0
		}
	}

	if n > 0 {
		shift := new(big.Int).Exp(big.NewInt(int64(base)), big.NewInt(int64(n)), nil)
		acc.Mul(acc, shift)
		acc.Add(acc, d.SetUint64(word))
	}

	return acc, nil
}

// wordSize returns the largest n with base^n representable in a uint64, and
// base^n itself.
func wordSize(base int) (int, uint64) {
	b := uint64(base)
	pow, n := b, 1
	for pow <= math.MaxUint64/b {
		pow *= b
		n++
	}
	return n, pow
}

// Encode renders v in the given base using lower-case letters.
func Encode(v *big.Int, base int) (string, error) {
	if !ValidBase(base) {
		return "", fmt.Errorf("%w: %d is outside [%d, %d]", ErrInvalidBase, base, MinBase, MaxBase)
	}
	if v.Sign() < 0 {
		return "", fmt.Errorf("%w: %s", ErrNegativeValue, v.String())
	}
	return v.Text(base), nil
}

func digitValue(ch rune) (int, bool) {
	switch {
	case ch >= '0' && ch <= '9':
		return int(ch - '0'), true
	case ch >= 'a' && ch <= 'z':
		return int(ch-'a') + 10, true
	case ch >= 'A' && ch <= 'Z':
		return int(ch-'A') + 10, true
	}
	return 0, false
}
