package tensor

// To moves t onto dst's device and rebinds it to dst.
//
// Device-resident data is first copied to the host through the source
// backend (ToHost) and then into the destination device (ToDevice). Moving
// between two host backends shares the buffer without copying.
//
// Example:
//
//	hostMask := tensor.To(deviceMask, cpuBackend)   // device → host copy
//	idx := tensor.To(hostIdx, acceleratorBackend)   // host → device copy
func To[T DType, S, D Backend](t *Tensor[T, S], dst D) *Tensor[T, D] {
	raw := t.raw
	if !raw.Device().IsHost() {
		raw = t.backend.ToHost(raw)
	}
	if !dst.Device().IsHost() {
		raw = dst.ToDevice(raw)
	}
	return New[T, D](raw, dst)
}
