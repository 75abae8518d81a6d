//go:build arm64

package cpu

import (
	"runtime"
)

// detectFeaturesImpl performs feature detection on arm64.
// Advanced SIMD (NEON) is part of the ARMv8 baseline.
func detectFeaturesImpl() Features {
	return Features{
		HasNEON:      true,
		Architecture: runtime.GOARCH,
	}
}
