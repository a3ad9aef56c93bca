package sumthreshold

import (
	"golang.org/x/sys/cpu"
)

// Feature is a CPU capability a tier depends on.
type Feature int

const (
	FeatureNone Feature = iota
	// FeatureVector is 128-bit SIMD: SSE2 on amd64, ASIMD on arm64.
	FeatureVector
	// FeatureWideVector is 256-bit SIMD: AVX2.
	FeatureWideVector
)

func (f Feature) String() string {
	switch f {
	case FeatureNone:
		return "none"
	case FeatureVector:
		return "vector"
	case FeatureWideVector:
		return "wide-vector"
	default:
		return "unknown"
	}
}

// CapabilityProbe answers whether the running CPU supports a feature.
type CapabilityProbe interface {
	Supports(f Feature) bool
}

// CPUProbe queries the host CPU.
type CPUProbe struct{}

func (CPUProbe) Supports(f Feature) bool {
	switch f {
	case FeatureNone:
		return true
	case FeatureVector:
		return cpu.X86.HasSSE2 || cpu.ARM64.HasASIMD
	case FeatureWideVector:
		return cpu.X86.HasAVX2
	default:
		return false
	}
}

// StaticProbe reports a fixed feature set. Tests use it to force a tier.
type StaticProbe struct {
	Vector     bool
	WideVector bool
}

func (p StaticProbe) Supports(f Feature) bool {
	switch f {
	case FeatureNone:
		return true
	case FeatureVector:
		return p.Vector
	case FeatureWideVector:
		return p.WideVector
	default:
		return false
	}
}
