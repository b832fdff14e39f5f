package usecase

import "math/rand/v2"

// MathRandSource draws from the runtime's goroutine-safe generator.
type MathRandSource struct{}

// NewMathRandSource creates a new MathRandSource.
func NewMathRandSource() MathRandSource {
	return MathRandSource{}
}

// Float64 returns a value in [0, 1).
func (MathRandSource) Float64() float64 {
	return rand.Float64()
}
