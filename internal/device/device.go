// Package device resolves a caller's device preference to a concrete compute
// backend. Resolution is deterministic and always succeeds: "auto" on a host
// with no accelerator yields CPU, never an error.
package device

import (
	"os"
	"os/exec"
	"runtime"

	"github.com/rs/zerolog"
)

// Choice is the closed set of compute backends a model can be loaded onto.
type Choice string

const (
	CPU   Choice = "cpu"
	CUDA  Choice = "cuda"
	Metal Choice = "metal"
)

// Preference is the caller-facing device request.
type Preference string

const (
	PrefAuto Preference = "auto"
	PrefCPU  Preference = "cpu"
	PrefGPU  Preference = "gpu"
)

// ParsePreference maps a request string to a Preference, defaulting to auto.
func ParsePreference(s string) Preference {
	switch s {
	case "cpu":
		return PrefCPU
	case "gpu":
		return PrefGPU
	default:
		return PrefAuto
	}
}

// Selector probes accelerator availability. Probe funcs are injectable so
// tests can simulate hosts with and without accelerators.
type Selector struct {
	CUDAAvailable  func() bool
	MetalAvailable func() bool
	Log            zerolog.Logger
}

// NewSelector returns a Selector using the default host probes.
func NewSelector(log zerolog.Logger) *Selector {
	return &Selector{
		CUDAAvailable:  cudaAvailable,
		MetalAvailable: metalAvailable,
		Log:            log,
	}
}

// Resolve maps a preference to a concrete Choice. Probe order for auto/gpu is
// CUDA, then Metal, then CPU. An explicit gpu request on a CPU-only host
// degrades to CPU with a notice; it is not an error.
func (s *Selector) Resolve(pref Preference) Choice {
	if pref == PrefCPU {
		return CPU
	}
	if s.CUDAAvailable() {
		return CUDA
	}
	if s.MetalAvailable() {
		return Metal
	}
	if pref == PrefGPU {
		s.Log.Warn().Str("preference", string(pref)).Msg("no accelerator available, falling back to cpu")
	}
	return CPU
}

func cudaAvailable() bool {
	if _, err := os.Stat("/dev/nvidia0"); err == nil {
		return true
	}
	if _, err := exec.LookPath("nvidia-smi"); err == nil {
		return true
	}
	return false
}

func metalAvailable() bool {
	return runtime.GOOS == "darwin" && runtime.GOARCH == "arm64"
}
