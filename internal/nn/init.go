package nn

import (
	"math"
	"math/rand"

	"github.com/born-ml/bornprof/internal/tensor"
)

// Xavier (Glorot) initialization for weights.
//
// Initializes weights with values drawn from a uniform distribution:
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out)))
//
// A nil rng draws from the math/rand global source.
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	// Xavier/Glorot bound: sqrt(6 / (fan_in + fan_out))
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))

	next := rand.Float64 //nolint:gosec // Using math/rand for weight initialization (not security-critical)
	if rng != nil {
		next = rng.Float64
	}

	t := tensor.Zeros[float32](shape, backend)
	data := t.Data()
	for i := range data {
		// Random value in [-bound, bound]
		data[i] = float32((next()*2.0 - 1.0) * bound)
	}

	return t
}

// Zeros creates a tensor filled with zeros.
//
// This is commonly used for bias initialization.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Zeros[float32](shape, backend)
}

// Ones creates a tensor filled with ones.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Ones[float32](shape, backend)
}

// Randn creates a tensor with random values from standard normal distribution.
func Randn[B tensor.Backend](shape tensor.Shape, rng *rand.Rand, backend B) *tensor.Tensor[float32, B] {
	return tensor.Randn[float32](shape, rng, backend)
}
