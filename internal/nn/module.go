// Package nn implements the neural network building blocks used by the
// profiling demos.
//
// This package provides:
//   - Module interface: Base interface for all NN components
//   - Parameter: Named parameter tensors
//   - Linear: Fully connected layer
//   - Initializers: Xavier, Zeros, Ones, Randn
//
// Design inspired by PyTorch's nn.Module but adapted for Go generics.
package nn

import (
	"github.com/born-ml/bornprof/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Every NN module must implement:
//   - Forward: Compute output from input
//   - Parameters: Return all parameters
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	//
	// The input tensor should have the appropriate shape for this module.
	// For example, Linear expects [batch_size, in_features].
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all parameters of this module.
	Parameters() []*Parameter[B]
}
