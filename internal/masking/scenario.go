package masking

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/born-ml/bornprof/internal/tensor"
)

// ErrInvalidScenario is returned by Scenario.Validate.
var ErrInvalidScenario = errors.New("masking: invalid scenario")

// Scenario sizes the demo inputs.
type Scenario struct {
	Batch       int
	InFeatures  int
	OutFeatures int
	MaskShape   tensor.Shape
	// Seed drives the input, mask and weight draws.
	Seed int64
}

// DefaultScenario is a batch of 128 rows of 500 features projected to 10
// outputs, against a 500x500x500 mask.
func DefaultScenario() Scenario {
	return Scenario{
		Batch:       128,
		InFeatures:  500,
		OutFeatures: 10,
		MaskShape:   tensor.Shape{500, 500, 500},
		Seed:        1,
	}
}

// Validate rejects non-positive sizes.
func (s Scenario) Validate() error {
	switch {
	case s.Batch <= 0:
		return fmt.Errorf("%w: batch must be positive, got %d", ErrInvalidScenario, s.Batch)
	case s.InFeatures <= 0:
		return fmt.Errorf("%w: in_features must be positive, got %d", ErrInvalidScenario, s.InFeatures)
	case s.OutFeatures <= 0:
		return fmt.Errorf("%w: out_features must be positive, got %d", ErrInvalidScenario, s.OutFeatures)
	case len(s.MaskShape) == 0:
		return fmt.Errorf("%w: mask shape is empty", ErrInvalidScenario)
	}
	for _, d := range s.MaskShape {
		if d <= 0 {
			return fmt.Errorf("%w: mask dimensions must be positive, got %v", ErrInvalidScenario, s.MaskShape)
		}
	}
	return nil
}

// Inputs are the tensors one Forward call consumes, resident on B.
type Inputs[M tensor.Float, B tensor.Backend] struct {
	Input *tensor.Tensor[float32, B]
	Mask  *tensor.Tensor[M, B]
}

// BuildInputs draws the input batch from N(0,1) and the mask from U[0,1)
// on the host and moves both to dst. The same seed yields the same mask
// values for every M, up to the precision of M.
func BuildInputs[M tensor.Float, H, B tensor.Backend](s Scenario, host H, dst B) Inputs[M, B] {
	//nolint:gosec // reproducible demo data, not security-critical
	rng := rand.New(rand.NewSource(s.Seed))
	input := tensor.Randn[float32](tensor.Shape{s.Batch, s.InFeatures}, rng, host)

	//nolint:gosec // reproducible demo data, not security-critical
	maskRng := rand.New(rand.NewSource(s.Seed + 1))
	mask := tensor.Rand[M](s.MaskShape.Clone(), maskRng, host)

	return Inputs[M, B]{
		Input: tensor.To(input, dst),
		Mask:  tensor.To(mask, dst),
	}
}
