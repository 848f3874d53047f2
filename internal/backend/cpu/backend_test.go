package cpu

import (
	"testing"

	"github.com/born-ml/bornprof/internal/parallel"
	"github.com/born-ml/bornprof/internal/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fromSlice[T tensor.DType](t *testing.T, b *CPUBackend, data []T, shape ...int) *tensor.Tensor[T, *CPUBackend] {
	t.Helper()
	x, err := tensor.FromSlice[T](data, tensor.Shape(shape), b)
	require.NoError(t, err)
	return x
}

func TestCPUBackend_Metadata(t *testing.T) {
	b := New()
	assert.Equal(t, "CPU", b.Name())
	assert.Equal(t, tensor.CPU, b.Device())

	acc := NewOn(tensor.Accelerator)
	assert.Equal(t, tensor.Accelerator, acc.Device())
}

func TestBinary_Broadcast(t *testing.T) {
	b := New()

	x := fromSlice(t, b, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	bias := fromSlice(t, b, []float32{10, 20, 30}, 1, 3)

	got := x.Add(bias)
	assert.Equal(t, tensor.Shape{2, 3}, got.Shape())
	assert.Equal(t, []float32{11, 22, 33, 14, 25, 36}, got.Data())

	col := fromSlice(t, b, []float32{2, 3}, 2, 1)
	assert.Equal(t, []float32{2, 4, 6, 12, 15, 18}, x.Mul(col).Data())
	assert.Equal(t, []float32{-1, 0, 1, 1, 2, 3}, x.Sub(col).Data())
}

func TestBinary_DTypes(t *testing.T) {
	b := New()

	a64 := fromSlice(t, b, []float64{6, 8}, 2)
	d64 := fromSlice(t, b, []float64{2, 4}, 2)
	assert.Equal(t, []float64{3, 2}, a64.Div(d64).Data())

	ai := fromSlice(t, b, []int64{7, 9}, 2)
	assert.Equal(t, []int64{14, 18}, ai.Add(ai).Data())
}

func TestBinary_ShapeMismatchPanics(t *testing.T) {
	b := New()
	x := fromSlice(t, b, []float32{1, 2, 3}, 3)
	y := fromSlice(t, b, []float32{1, 2}, 2)
	assert.Panics(t, func() { x.Add(y) })
}

func TestMatMul(t *testing.T) {
	b := New()

	a := fromSlice(t, b, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	w := fromSlice(t, b, []float32{7, 8, 9, 10, 11, 12}, 3, 2)

	got := a.MatMul(w)
	require.Equal(t, tensor.Shape{2, 2}, got.Shape())
	assert.Equal(t, []float32{58, 64, 139, 154}, got.Data())
}

func TestMatMul_ParallelMatchesSequential(t *testing.T) {
	seq := New()
	seq.SetParallel(parallel.Config{Enabled: false})
	par := New()
	par.SetParallel(parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1})

	data := make([]float64, 64*16)
	for i := range data {
		data[i] = float64(i%7) - 3
	}
	w := make([]float64, 16*5)
	for i := range w {
		w[i] = float64(i%5) * 0.5
	}

	want := fromSlice(t, seq, data, 64, 16).MatMul(fromSlice(t, seq, w, 16, 5)).Data()
	got := fromSlice(t, par, data, 64, 16).MatMul(fromSlice(t, par, w, 16, 5)).Data()
	assert.Equal(t, want, got)
}

func TestMatMul_InvalidShapes(t *testing.T) {
	b := New()
	a := fromSlice(t, b, []float32{1, 2, 3, 4}, 2, 2)
	w := fromSlice(t, b, []float32{1, 2, 3}, 3, 1)
	assert.Panics(t, func() { a.MatMul(w) })
}

func TestTranspose(t *testing.T) {
	b := New()

	x := fromSlice(t, b, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	got := x.T()
	assert.Equal(t, tensor.Shape{3, 2}, got.Shape())
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, got.Data())

	cube := fromSlice(t, b, []int32{0, 1, 2, 3, 4, 5, 6, 7}, 2, 2, 2)
	perm := cube.Transpose(2, 0, 1)
	assert.Equal(t, []int32{0, 2, 4, 6, 1, 3, 5, 7}, perm.Data())
}

func TestReshape_SharesBuffer(t *testing.T) {
	b := New()
	x := fromSlice(t, b, []float32{1, 2, 3, 4}, 2, 2)
	flat := x.Reshape(4)

	assert.Equal(t, tensor.Shape{4}, flat.Shape())
	flat.Data()[0] = 42
	assert.Equal(t, float32(42), x.At(0, 0))

	assert.Panics(t, func() { x.Reshape(3) })
}

func TestScalarOps(t *testing.T) {
	b := New()
	x := fromSlice(t, b, []float32{1, 2, 4}, 3)

	assert.Equal(t, []float32{2, 4, 8}, x.MulScalar(2).Data())
	assert.Equal(t, []float32{1.5, 2.5, 4.5}, x.AddScalar(0.5).Data())
	assert.Equal(t, []float32{0.5, 1, 2}, x.DivScalar(2).Data())

	// Raw scalars of another numeric type are converted.
	raw := b.MulScalar(x.Raw(), 3.0)
	assert.Equal(t, []float32{3, 6, 12}, raw.AsFloat32())

	assert.Panics(t, func() { b.AddScalar(x.Raw(), "nope") })
}

func TestComparison(t *testing.T) {
	b := New()
	x := fromSlice(t, b, []float64{0.1, 0.7, 0.5, 0.9}, 2, 2)

	assert.Equal(t, []bool{false, true, false, true}, x.GreaterScalar(0.5).Data())

	th := fromSlice(t, b, []float64{0.5}, 1)
	assert.Equal(t, []bool{true, false, false, false}, x.Lower(th).Data())

	y := fromSlice(t, b, []float64{0.1, 0.0, 0.5, 1.0}, 2, 2)
	assert.Equal(t, []bool{true, false, true, false}, x.Equal(y).Data())

	row := fromSlice(t, b, []float64{0.2, 0.8}, 1, 2)
	assert.Equal(t, []bool{false, false, true, true}, x.Greater(row).Data())
}

func TestReductions(t *testing.T) {
	b := New()
	x := fromSlice(t, b, []float32{1, 2, 3, 4, 5, 6}, 2, 3)

	assert.Equal(t, float32(21), x.Sum().Item())

	rows := x.SumDim(1, false)
	assert.Equal(t, tensor.Shape{2}, rows.Shape())
	assert.Equal(t, []float32{6, 15}, rows.Data())

	cols := x.SumDim(0, true)
	assert.Equal(t, tensor.Shape{1, 3}, cols.Shape())
	assert.Equal(t, []float32{5, 7, 9}, cols.Data())

	assert.Equal(t, []float32{2, 5}, x.MeanDim(-1, false).Data())
	assert.InDelta(t, 3.5, float64(x.Mean().Item()), 1e-6)

	assert.Panics(t, func() { x.SumDim(2, false) })
}

func TestReductions_Int(t *testing.T) {
	b := New()
	x := fromSlice(t, b, []int64{1, 2, 3, 4}, 2, 2)
	assert.Equal(t, int64(10), x.Sum().Item())
	assert.Equal(t, []int64{4, 6}, x.SumDim(0, false).Data())
}

func TestNonzero(t *testing.T) {
	b := New()
	mask := fromSlice(t, b, []bool{
		false, true, false,
		true, false, true,
	}, 2, 3)

	idx := mask.Nonzero()
	require.Len(t, idx, 2)
	assert.Equal(t, []int64{0, 1, 1}, idx[0].Data())
	assert.Equal(t, []int64{1, 0, 2}, idx[1].Data())
	for _, v := range idx {
		assert.Equal(t, tensor.CPU, v.Device())
	}
}

func TestNonzero_Numeric(t *testing.T) {
	b := New()
	x := fromSlice(t, b, []float32{0, 0.5, 0, -2}, 4)
	idx := x.Nonzero()
	require.Len(t, idx, 1)
	assert.Equal(t, []int64{1, 3}, idx[0].Data())
}

func TestNonzero_Empty(t *testing.T) {
	b := New()
	mask := tensor.Zeros[bool](tensor.Shape{3, 4, 5}, b)

	idx := mask.Nonzero()
	require.Len(t, idx, 3)
	for _, v := range idx {
		assert.Equal(t, tensor.Shape{0}, v.Shape())
		assert.Empty(t, v.Data())
	}
}

func TestNonzero_ChunkedMatchesSequential(t *testing.T) {
	seq := New()
	seq.SetParallel(parallel.Config{Enabled: false})
	par := New()
	par.SetParallel(parallel.Config{Enabled: true, NumWorkers: 5, MinChunkSize: 3})

	data := make([]bool, 6*7*8)
	for i := range data {
		data[i] = (i*31)%7 < 3
	}

	want := fromSlice(t, seq, data, 6, 7, 8).Nonzero()
	got := fromSlice(t, par, data, 6, 7, 8).Nonzero()
	require.Len(t, got, 3)
	for d := range want {
		assert.Equal(t, want[d].Data(), got[d].Data(), "dim %d", d)
	}
}

func TestCast(t *testing.T) {
	b := New()
	x := fromSlice(t, b, []float64{1.5, -2.25, 0}, 3)

	f32 := x.Float32()
	assert.Equal(t, tensor.Float32, f32.DType())
	assert.Equal(t, []float32{1.5, -2.25, 0}, f32.Data())

	i64 := x.Int64()
	assert.Equal(t, []int64{1, -2, 0}, i64.Data())

	mask := fromSlice(t, b, []bool{true, false}, 2)
	assert.Equal(t, []float64{1, 0}, mask.Float64().Data())

	same := b.Cast(x.Raw(), tensor.Float64)
	assert.Same(t, x.Raw(), same)
}

func TestTransfers(t *testing.T) {
	host := New()
	acc := NewOn(tensor.Accelerator)

	x := fromSlice(t, host, []float32{1, 2, 3}, 3)
	onAcc := acc.ToDevice(x.Raw())
	assert.Equal(t, tensor.Accelerator, onAcc.Device())
	assert.Equal(t, []float32{1, 2, 3}, onAcc.AsFloat32())

	back := acc.ToHost(onAcc)
	assert.Equal(t, tensor.CPU, back.Device())
	assert.Equal(t, []float32{1, 2, 3}, back.AsFloat32())

	assert.Panics(t, func() { acc.ToDevice(onAcc) })
	assert.Panics(t, func() { host.ToHost(onAcc) })
}
