package tensor_test

import (
	"math/rand"
	"testing"

	"github.com/born-ml/bornprof/internal/backend/cpu"
	"github.com/born-ml/bornprof/internal/backend/device"
	"github.com/born-ml/bornprof/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShape(t *testing.T) {
	tests := []struct {
		name     string
		shape    tensor.Shape
		elements int
		strides  []int
	}{
		{"scalar", tensor.Shape{}, 1, []int{}},
		{"vector", tensor.Shape{5}, 5, []int{1}},
		{"matrix", tensor.Shape{3, 4}, 12, []int{4, 1}},
		{"cube", tensor.Shape{2, 3, 4}, 24, []int{12, 4, 1}},
		{"empty", tensor.Shape{0}, 0, []int{1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.elements, tt.shape.NumElements())
			assert.Equal(t, tt.strides, tt.shape.ComputeStrides())
			assert.NoError(t, tt.shape.Validate())
		})
	}

	assert.Error(t, tensor.Shape{2, -1}.Validate())
}

func TestShape_Unravel(t *testing.T) {
	s := tensor.Shape{2, 3, 4}
	coords := make([]int64, 3)

	s.Unravel(0, coords)
	assert.Equal(t, []int64{0, 0, 0}, coords)

	s.Unravel(23, coords)
	assert.Equal(t, []int64{1, 2, 3}, coords)

	s.Unravel(13, coords)
	assert.Equal(t, []int64{1, 0, 1}, coords)
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		name      string
		a, b      tensor.Shape
		want      tensor.Shape
		broadcast bool
		wantErr   bool
	}{
		{"same", tensor.Shape{3, 5}, tensor.Shape{3, 5}, tensor.Shape{3, 5}, false, false},
		{"column", tensor.Shape{3, 1}, tensor.Shape{3, 5}, tensor.Shape{3, 5}, true, false},
		{"row", tensor.Shape{1, 5}, tensor.Shape{3, 5}, tensor.Shape{3, 5}, true, false},
		{"scalar", tensor.Shape{2, 3, 4}, tensor.Shape{}, tensor.Shape{2, 3, 4}, true, false},
		{"rank mismatch", tensor.Shape{5}, tensor.Shape{3, 5}, tensor.Shape{3, 5}, true, false},
		{"incompatible", tensor.Shape{3, 4}, tensor.Shape{3, 5}, nil, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, broadcast, err := tensor.BroadcastShapes(tt.a, tt.b)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.broadcast, broadcast)
		})
	}
}

func TestDataTypeOf(t *testing.T) {
	assert.Equal(t, tensor.Float32, tensor.DataTypeOf[float32]())
	assert.Equal(t, tensor.Float64, tensor.DataTypeOf[float64]())
	assert.Equal(t, tensor.Int64, tensor.DataTypeOf[int64]())
	assert.Equal(t, tensor.Bool, tensor.DataTypeOf[bool]())
	assert.Equal(t, 8, tensor.Float64.Size())
	assert.Equal(t, "float32", tensor.Float32.String())
}

func TestDevice(t *testing.T) {
	assert.True(t, tensor.CPU.IsHost())
	assert.False(t, tensor.Accelerator.IsHost())
	assert.Equal(t, "Accelerator", tensor.Accelerator.String())
}

func TestCreation(t *testing.T) {
	b := cpu.New()

	assert.Equal(t, []float32{0, 0, 0}, tensor.Zeros[float32](tensor.Shape{3}, b).Data())
	assert.Equal(t, []int64{1, 1}, tensor.Ones[int64](tensor.Shape{2}, b).Data())
	assert.Equal(t, []bool{true, true}, tensor.Ones[bool](tensor.Shape{2}, b).Data())
	assert.Equal(t, float64(2.5), tensor.Scalar(2.5, b).Item())

	_, err := tensor.FromSlice[float32]([]float32{1, 2, 3}, tensor.Shape{2, 2}, b)
	assert.Error(t, err)
}

func TestRand_Seeded(t *testing.T) {
	b := cpu.New()

	a := tensor.Rand[float64](tensor.Shape{4, 4}, rand.New(rand.NewSource(7)), b)
	c := tensor.Rand[float64](tensor.Shape{4, 4}, rand.New(rand.NewSource(7)), b)
	assert.Equal(t, a.Data(), c.Data())
	for _, v := range a.Data() {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}

	n := tensor.Randn[float32](tensor.Shape{3}, rand.New(rand.NewSource(1)), b)
	assert.Len(t, n.Data(), 3)
}

func TestAtSet(t *testing.T) {
	b := cpu.New()
	x := tensor.Zeros[float32](tensor.Shape{2, 3}, b)

	x.Set(7, 1, 2)
	assert.Equal(t, float32(7), x.At(1, 2))
	assert.Equal(t, float32(7), x.Data()[5])

	assert.Panics(t, func() { x.At(2, 0) })
	assert.Panics(t, func() { x.At(0) })
	assert.Panics(t, func() { x.Item() })
}

func TestClone_SharesBuffer(t *testing.T) {
	b := cpu.New()
	x := tensor.Ones[float32](tensor.Shape{2}, b)
	require.True(t, x.Raw().IsUnique())

	y := x.Clone()
	assert.False(t, x.Raw().IsUnique())
	assert.Equal(t, x.Data(), y.Data())
}

func TestEmptyTensor(t *testing.T) {
	b := cpu.New()
	x := tensor.Zeros[int64](tensor.Shape{0}, b)
	assert.Equal(t, 0, x.NumElements())
	assert.Empty(t, x.Data())
}

func TestTo(t *testing.T) {
	host := cpu.New()
	dev := device.New()

	x, err := tensor.FromSlice[float32]([]float32{1, 2, 3}, tensor.Shape{3}, host)
	require.NoError(t, err)

	t.Run("host to device", func(t *testing.T) {
		d := tensor.To(x, dev)
		assert.Equal(t, tensor.Accelerator, d.Device())
		assert.Equal(t, x.Data(), d.Data())
		assert.NotSame(t, x.Raw(), d.Raw())
	})

	t.Run("device to host", func(t *testing.T) {
		d := tensor.To(x, dev)
		h := tensor.To(d, host)
		assert.Equal(t, tensor.CPU, h.Device())
		assert.Equal(t, []float32{1, 2, 3}, h.Data())
	})

	t.Run("host to host shares", func(t *testing.T) {
		h := tensor.To(x, cpu.New())
		assert.Same(t, x.Raw(), h.Raw())
	})
}

func TestString(t *testing.T) {
	b := cpu.New()
	x := tensor.Zeros[float32](tensor.Shape{2, 3}, b)
	assert.Equal(t, "Tensor[float32][2 3] on CPU", x.String())
}
