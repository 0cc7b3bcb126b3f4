package safemath

import "errors"

var ErrOverflow = errors.New("number overflow")

type Signed interface {
	~int8 | ~int16 | ~int32 | ~int64
}

// Add returns a+b and whether the sum fits in T.
func Add[T Signed](a, b T) (T, bool) {
	sum := a + b
	// Overflow happened iff both operands share a sign the sum does not.
	if (a >= 0) == (b >= 0) && (sum >= 0) != (a >= 0) {
		return sum, false
	}
	return sum, true
}
