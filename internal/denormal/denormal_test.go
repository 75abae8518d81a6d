package denormal

import (
	"runtime"
	"testing"
)

func TestDisableRestoreRoundTrip(t *testing.T) {
	if !flushSupported() {
		t.Skip("no FPU control state on this architecture")
	}

	// Keep every control-register read on one OS thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	before := readControl()

	s := Disable()
	during := readControl()
	if during&flushBits != flushBits {
		t.Errorf("flush bits not set: control = %#x", during)
	}

	s.Restore()
	after := readControl()
	if after != before {
		t.Errorf("control state not restored: before %#x, after %#x", before, after)
	}
}

func TestRestoreZeroStateIsNoop(t *testing.T) {
	var s State
	s.Restore()
}

func TestDisableIsReentrantPerState(t *testing.T) {
	if !flushSupported() {
		t.Skip("no FPU control state on this architecture")
	}

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	outer := Disable()
	inner := Disable()
	inner.Restore()

	if readControl()&flushBits != flushBits {
		t.Error("inner Restore cleared flush bits held by outer guard")
	}
	outer.Restore()
}
