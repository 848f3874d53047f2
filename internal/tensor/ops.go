package tensor

// Add performs element-wise addition with broadcasting.
//
// Example:
//
//	a := tensor.Ones[float32](Shape{3, 1}, backend)
//	b := tensor.Ones[float32](Shape{3, 5}, backend)
//	c := a.Add(b) // Shape: [3, 5] (broadcasted)
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Add(t.raw, other.raw), t.backend)
}

// Sub performs element-wise subtraction with broadcasting.
func (t *Tensor[T, B]) Sub(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Sub(t.raw, other.raw), t.backend)
}

// Mul performs element-wise multiplication with broadcasting.
func (t *Tensor[T, B]) Mul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Mul(t.raw, other.raw), t.backend)
}

// Div performs element-wise division with broadcasting.
func (t *Tensor[T, B]) Div(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Div(t.raw, other.raw), t.backend)
}

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) → (M, N).
//
// Example:
//
//	a := tensor.Randn[float32](Shape{3, 4}, nil, backend)
//	b := tensor.Randn[float32](Shape{4, 5}, nil, backend)
//	c := a.MatMul(b) // Shape: [3, 5]
func (t *Tensor[T, B]) MatMul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.MatMul(t.raw, other.raw), t.backend)
}

// Reshape returns a tensor with the same data but different shape.
// The new shape must have the same number of elements.
func (t *Tensor[T, B]) Reshape(newShape ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Reshape(t.raw, Shape(newShape)), t.backend)
}

// Transpose permutes the tensor's dimensions.
// With no axes it reverses all dimensions.
func (t *Tensor[T, B]) Transpose(axes ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Transpose(t.raw, axes...), t.backend)
}

// T is a shortcut for 2D transpose (swaps rows and columns).
// Panics if the tensor is not 2D.
func (t *Tensor[T, B]) T() *Tensor[T, B] {
	if len(t.Shape()) != 2 {
		panic("T() only works for 2D tensors")
	}
	return t.Transpose(1, 0)
}

// MulScalar multiplies each element by scalar.
func (t *Tensor[T, B]) MulScalar(scalar T) *Tensor[T, B] {
	return New[T, B](t.backend.MulScalar(t.raw, scalar), t.backend)
}

// AddScalar adds scalar to each element.
func (t *Tensor[T, B]) AddScalar(scalar T) *Tensor[T, B] {
	return New[T, B](t.backend.AddScalar(t.raw, scalar), t.backend)
}

// DivScalar divides each element by scalar.
func (t *Tensor[T, B]) DivScalar(scalar T) *Tensor[T, B] {
	return New[T, B](t.backend.DivScalar(t.raw, scalar), t.backend)
}

// Greater returns a boolean tensor that is true where t > other.
// A 0-D other is compared against every element.
func (t *Tensor[T, B]) Greater(other *Tensor[T, B]) *Tensor[bool, B] {
	return New[bool, B](t.backend.Greater(t.raw, other.raw), t.backend)
}

// Gt is a short alias for Greater.
func (t *Tensor[T, B]) Gt(other *Tensor[T, B]) *Tensor[bool, B] {
	return t.Greater(other)
}

// GreaterScalar compares every element against value.
// The scalar is materialised directly on the tensor's device, so no
// transfer is involved.
//
// Example:
//
//	mask := x.GreaterScalar(0.5)
func (t *Tensor[T, B]) GreaterScalar(value T) *Tensor[bool, B] {
	return t.Greater(t.scalarLike(value))
}

// Lower returns a boolean tensor that is true where t < other.
func (t *Tensor[T, B]) Lower(other *Tensor[T, B]) *Tensor[bool, B] {
	return New[bool, B](t.backend.Lower(t.raw, other.raw), t.backend)
}

// Equal returns a boolean tensor that is true where t == other.
func (t *Tensor[T, B]) Equal(other *Tensor[T, B]) *Tensor[bool, B] {
	return New[bool, B](t.backend.Equal(t.raw, other.raw), t.backend)
}

// Sum returns the sum of all elements as a 0-D tensor.
func (t *Tensor[T, B]) Sum() *Tensor[T, B] {
	return New[T, B](t.backend.Sum(t.raw), t.backend)
}

// SumDim sums along dim (negative values count from the end).
func (t *Tensor[T, B]) SumDim(dim int, keepDim bool) *Tensor[T, B] {
	return New[T, B](t.backend.SumDim(t.raw, dim, keepDim), t.backend)
}

// MeanDim averages along dim (negative values count from the end).
func (t *Tensor[T, B]) MeanDim(dim int, keepDim bool) *Tensor[T, B] {
	return New[T, B](t.backend.MeanDim(t.raw, dim, keepDim), t.backend)
}

// Mean averages every element into a 0-D tensor.
func (t *Tensor[T, B]) Mean() *Tensor[T, B] {
	n := t.NumElements()
	flat := t.Reshape(n)
	return flat.MeanDim(0, false)
}

// Nonzero returns the coordinates of non-zero elements, one int64 vector per
// dimension (the "as tuple" form). All vectors have the same length.
//
// Example:
//
//	idx := mask.GreaterScalar(0.5).Nonzero()
//	// idx[0][k], idx[1][k], idx[2][k] is the k-th selected coordinate
func (t *Tensor[T, B]) Nonzero() []*Tensor[int64, B] {
	raws := t.backend.Nonzero(t.raw)
	out := make([]*Tensor[int64, B], len(raws))
	for i, r := range raws {
		out[i] = New[int64, B](r, t.backend)
	}
	return out
}

// Float32 casts the tensor to float32 dtype.
func (t *Tensor[T, B]) Float32() *Tensor[float32, B] {
	return New[float32, B](t.backend.Cast(t.raw, Float32), t.backend)
}

// Float64 casts the tensor to float64 dtype.
func (t *Tensor[T, B]) Float64() *Tensor[float64, B] {
	return New[float64, B](t.backend.Cast(t.raw, Float64), t.backend)
}

// Int64 casts the tensor to int64 dtype.
func (t *Tensor[T, B]) Int64() *Tensor[int64, B] {
	return New[int64, B](t.backend.Cast(t.raw, Int64), t.backend)
}

// scalarLike builds value on the host and uploads it through t's backend when
// t lives on a device.
func (t *Tensor[T, B]) scalarLike(value T) *Tensor[T, B] {
	raw, err := NewRaw(Shape{}, t.DType(), CPU)
	if err != nil {
		panic(err)
	}
	New[T, B](raw, t.backend).Data()[0] = value
	if !t.Device().IsHost() {
		raw = t.backend.ToDevice(raw)
	}
	return New[T, B](raw, t.backend)
}
