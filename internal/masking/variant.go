package masking

import (
	"errors"
	"fmt"
	"strings"

	"github.com/born-ml/bornprof/internal/tensor"
)

// ErrUnknownVariant is returned by ParseVariants for names it does not know.
var ErrUnknownVariant = errors.New("masking: unknown variant")

// Strategy selects how mask indices are computed.
type Strategy int

// Index strategies.
const (
	// HostCopy copies the mask to the host, searches it there and copies
	// the index matrix back to the device.
	HostCopy Strategy = iota
	// DeviceResident compares and indexes on the mask's own device.
	DeviceResident
)

// String returns "host-copy" or "device-resident".
func (s Strategy) String() string {
	if s == DeviceResident {
		return "device-resident"
	}
	return "host-copy"
}

// Variant is one revision of the module: a strategy and the mask precision.
type Variant struct {
	Name      string
	Strategy  Strategy
	MaskDType tensor.DataType
}

// The three revisions, in the order they are demonstrated.
var (
	V1 = Variant{Name: "v1-host-float64", Strategy: HostCopy, MaskDType: tensor.Float64}
	V2 = Variant{Name: "v2-host-float32", Strategy: HostCopy, MaskDType: tensor.Float32}
	V3 = Variant{Name: "v3-device", Strategy: DeviceResident, MaskDType: tensor.Float32}
)

// Variants returns V1, V2 and V3.
func Variants() []Variant {
	return []Variant{V1, V2, V3}
}

// ParseVariants resolves a comma separated list of variant names. Each
// entry may be the full name or its short prefix ("v1"); "all" selects
// every variant.
func ParseVariants(list string) ([]Variant, error) {
	var out []Variant
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(strings.ToLower(name))
		if name == "" {
			continue
		}
		if name == "all" {
			return Variants(), nil
		}
		v, ok := lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownVariant, name)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty list", ErrUnknownVariant)
	}
	return out, nil
}

func lookup(name string) (Variant, bool) {
	for _, v := range Variants() {
		if v.Name == name || strings.HasPrefix(v.Name, name+"-") {
			return v, true
		}
	}
	return Variant{}, false
}
