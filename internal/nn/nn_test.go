package nn_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/born-ml/bornprof/internal/backend/cpu"
	"github.com/born-ml/bornprof/internal/backend/device"
	"github.com/born-ml/bornprof/internal/nn"
	"github.com/born-ml/bornprof/internal/tensor"
)

// Helper to check if values are approximately equal.
//
//nolint:unparam // epsilon is always 1e-5 in tests, but keeping it as parameter for flexibility
func floatEqual(a, b, epsilon float32) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < epsilon
}

// TestParameter tests Parameter creation and methods.
func TestParameter(t *testing.T) {
	backend := cpu.New()

	data, _ := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, backend)
	param := nn.NewParameter("test_param", data)

	if param.Name() != "test_param" {
		t.Errorf("Name() = %s, want test_param", param.Name())
	}
	if param.Tensor() != data {
		t.Error("Tensor() should return the original tensor")
	}
	if param.NumElements() != 3 {
		t.Errorf("NumElements() = %d, want 3", param.NumElements())
	}
}

// TestLinear_Creation tests Linear layer initialization.
func TestLinear_Creation(t *testing.T) {
	backend := cpu.New()

	layer := nn.NewLinear(10, 5, backend)

	// Check dimensions
	if layer.InFeatures() != 10 {
		t.Errorf("InFeatures() = %d, want 10", layer.InFeatures())
	}
	if layer.OutFeatures() != 5 {
		t.Errorf("OutFeatures() = %d, want 5", layer.OutFeatures())
	}

	// Check weight shape: [out_features, in_features]
	weight := layer.Weight().Tensor()
	expectedShape := tensor.Shape{5, 10}
	if !weight.Shape().Equal(expectedShape) {
		t.Errorf("Weight shape = %v, want %v", weight.Shape(), expectedShape)
	}

	// Bias starts at zero
	for i, v := range layer.Bias().Tensor().Data() {
		if v != 0 {
			t.Errorf("Bias[%d] = %f, want 0", i, v)
		}
	}

	if params := layer.Parameters(); len(params) != 2 {
		t.Errorf("Parameters() length = %d, want 2", len(params))
	}
}

// TestLinear_WithoutBias tests the bias-free variant.
func TestLinear_WithoutBias(t *testing.T) {
	backend := cpu.New()

	layer := nn.NewLinear(3, 2, backend, nn.WithoutBias())
	if layer.Bias() != nil {
		t.Error("Bias() should be nil")
	}
	if params := layer.Parameters(); len(params) != 1 {
		t.Errorf("Parameters() length = %d, want 1", len(params))
	}
	if _, ok := layer.StateDict()["bias"]; ok {
		t.Error("StateDict() should not contain bias")
	}
}

// TestLinear_Forward tests Linear layer forward pass.
func TestLinear_Forward(t *testing.T) {
	backend := cpu.New()

	// Create a simple 2x2 linear layer for easy verification
	layer := nn.NewLinear(2, 2, backend)

	// Weight: [[1, 2], [3, 4]] (out=2, in=2)
	copy(layer.Weight().Tensor().Raw().AsFloat32(), []float32{1, 2, 3, 4})

	// Bias: [0.5, 1.0]
	copy(layer.Bias().Tensor().Raw().AsFloat32(), []float32{0.5, 1.0})

	// Input: [[1, 1]] (batch=1, in=2)
	input, _ := tensor.FromSlice([]float32{1, 1}, tensor.Shape{1, 2}, backend)

	output := layer.Forward(input)

	// y = x @ W.T + b = [3, 7] + [0.5, 1.0]
	expected := []float32{3.5, 8.0}
	actual := output.Raw().AsFloat32()

	for i, exp := range expected {
		if !floatEqual(actual[i], exp, 1e-5) {
			t.Errorf("Output[%d] = %f, want %f", i, actual[i], exp)
		}
	}

	expectedShape := tensor.Shape{1, 2}
	if !output.Shape().Equal(expectedShape) {
		t.Errorf("Output shape = %v, want %v", output.Shape(), expectedShape)
	}
}

// TestLinear_ForwardBatch tests Linear with batch input.
func TestLinear_ForwardBatch(t *testing.T) {
	backend := cpu.New()

	layer := nn.NewLinear(3, 2, backend)

	// Input: batch_size=4, in_features=3
	input := tensor.Randn[float32](tensor.Shape{4, 3}, nil, backend)

	output := layer.Forward(input)

	expectedShape := tensor.Shape{4, 2}
	if !output.Shape().Equal(expectedShape) {
		t.Errorf("Output shape = %v, want %v", output.Shape(), expectedShape)
	}
}

// TestLinear_ForwardBadInput tests shape validation.
func TestLinear_ForwardBadInput(t *testing.T) {
	backend := cpu.New()
	layer := nn.NewLinear(3, 2, backend)

	defer func() {
		if recover() == nil {
			t.Error("Forward with wrong feature count should panic")
		}
	}()
	layer.Forward(tensor.Zeros[float32](tensor.Shape{4, 5}, backend))
}

// TestLinear_SeededOnDevice tests that seeded layers agree across backends.
func TestLinear_SeededOnDevice(t *testing.T) {
	host := nn.NewLinearSeeded(6, 3, 42, cpu.New())
	dev := device.New()
	onDevice := nn.NewLinearSeeded(6, 3, 42, dev)

	hw := host.Weight().Tensor().Data()
	dw := onDevice.Weight().Tensor().Data()
	for i := range hw {
		if hw[i] != dw[i] {
			t.Fatalf("weight[%d] differs: %f vs %f", i, hw[i], dw[i])
		}
	}
	if onDevice.Weight().Tensor().Device() != tensor.Accelerator {
		t.Errorf("device weight on %s", onDevice.Weight().Tensor().Device())
	}

	x := tensor.Rand[float32](tensor.Shape{4, 6}, rand.New(rand.NewSource(3)), cpu.New())
	want := host.Forward(x).Data()
	got := onDevice.Forward(tensor.To(x, dev)).Data()
	for i := range want {
		if !floatEqual(want[i], got[i], 1e-5) {
			t.Errorf("output[%d] = %f, want %f", i, got[i], want[i])
		}
	}
}

// TestLinear_StateDict tests save/load round trip through a second layer.
func TestLinear_StateDict(t *testing.T) {
	backend := cpu.New()
	src := nn.NewLinearSeeded(4, 2, 1, backend)
	dst := nn.NewLinearSeeded(4, 2, 2, backend)

	if err := dst.LoadStateDict(src.StateDict()); err != nil {
		t.Fatalf("LoadStateDict: %v", err)
	}
	sw, dw := src.Weight().Tensor().Data(), dst.Weight().Tensor().Data()
	for i := range sw {
		if sw[i] != dw[i] {
			t.Fatalf("weight[%d] = %f, want %f", i, dw[i], sw[i])
		}
	}

	bad := nn.NewLinear(3, 2, backend)
	if err := dst.LoadStateDict(bad.StateDict()); err == nil {
		t.Error("LoadStateDict with mismatched shape should fail")
	}
	if err := dst.LoadStateDict(map[string]*tensor.RawTensor{}); err == nil {
		t.Error("LoadStateDict without weight should fail")
	}
}

// TestInitialization tests Xavier initialization bounds.
func TestInitialization(t *testing.T) {
	backend := cpu.New()

	// Xavier initialization for fanIn=100, fanOut=50
	w := nn.Xavier(100, 50, tensor.Shape{50, 100}, nil, backend)

	// Expected bound: sqrt(6 / (100 + 50)) ≈ 0.2
	expectedBound := math.Sqrt(6.0 / 150.0)

	for i, val := range w.Raw().AsFloat32() {
		if math.Abs(float64(val)) > expectedBound {
			t.Errorf("Xavier init value[%d] = %f exceeds bound %f", i, val, expectedBound)
		}
	}

	if got := nn.Ones(tensor.Shape{2}, backend).Data(); got[0] != 1 || got[1] != 1 {
		t.Errorf("Ones() = %v", got)
	}
	if got := nn.Randn(tensor.Shape{5}, rand.New(rand.NewSource(9)), backend); got.NumElements() != 5 {
		t.Errorf("Randn() elements = %d", got.NumElements())
	}
}
