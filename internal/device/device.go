// Package device decides which compute device the model is bound to.
package device

// Device is the compute device a model is bound to.
type Device string

const (
	// Accelerator is a GPU-class device.
	Accelerator Device = "accelerator"

	// HostCPU is the general-purpose host processor.
	HostCPU Device = "cpu"
)

// String returns the device name.
func (d Device) String() string {
	return string(d)
}

// WorkerName returns the device name understood by the model runtime.
func (d Device) WorkerName() string {
	if d == Accelerator {
		return "cuda"
	}

	return "cpu"
}

// Preference is the configured device choice.
type Preference string

const (
	// PreferenceAuto probes the host.
	PreferenceAuto Preference = "auto"

	// PreferenceAccelerator asks for an accelerator, degrading to HostCPU when none is usable.
	PreferenceAccelerator Preference = "accelerator"

	// PreferenceCPU forces HostCPU.
	PreferenceCPU Preference = "cpu"
)

// ParsePreference parses a configured preference; unknown values mean auto.
func ParsePreference(s string) Preference {
	switch Preference(s) {
	case PreferenceAccelerator, "cuda", "gpu":
		return PreferenceAccelerator
	case PreferenceCPU:
		return PreferenceCPU
	default:
		return PreferenceAuto
	}
}
