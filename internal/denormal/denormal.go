// Package denormal flushes denormal floats to zero for the duration of an
// audio processing call. Denormal operands put the FPU on a microcode
// assist path that is orders of magnitude slower than the normal path, and
// reverb tails decay straight into the denormal range.
//
// The flush mode lives in per-thread FPU state (MXCSR on amd64, FPCR on
// arm64), so Disable pins the calling goroutine to its OS thread until the
// matching Restore. On other architectures both calls are no-ops.
package denormal

import "runtime"

// State is the saved FPU control state returned by Disable.
type State struct {
	bits   uint64
	active bool
}

// Disable turns on flush-to-zero handling for the calling thread and
// returns the state to pass to Restore. The goroutine stays locked to its
// OS thread until Restore runs.
func Disable() State {
	if !flushSupported() {
		return State{}
	}

	runtime.LockOSThread()
	old := readControl()
	writeControl(old | flushBits)
	return State{bits: old, active: true}
}

// Restore reinstates the control state saved by Disable and releases the
// OS thread. Calling Restore on a zero State is a no-op.
func (s State) Restore() {
	if !s.active {
		return
	}

	writeControl(s.bits)
	runtime.UnlockOSThread()
}
