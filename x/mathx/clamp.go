// Package mathx holds integer helpers for firmware arithmetic.
package mathx

import "golang.org/x/exp/constraints"

// Clamp limits v to [lo, hi]. If lo > hi, the bounds are swapped.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if hi < lo {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RoundDiv returns floor((a + b/2)/b), classic rounding for positives.
// A zero divisor yields zero.
func RoundDiv[T constraints.Unsigned](a, b T) T {
	if b == 0 {
		return 0
	}
	return (a + b/2) / b
}

// NextPow2 returns the smallest power of two >= v (v <= 1 yields 1).
func NextPow2[T constraints.Unsigned](v T) T {
	p := T(1)
	for p < v && p != 0 {
		p <<= 1
	}
	return p
}
