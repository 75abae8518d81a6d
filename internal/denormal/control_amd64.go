//go:build amd64 && !purego

package denormal

// MXCSR bit 15 is flush-to-zero (results), bit 6 is denormals-are-zero
// (operands). Both are present on every CPU that meets the amd64 baseline.
const flushBits = 1<<15 | 1<<6

func flushSupported() bool { return true }

func readControl() uint64 { return uint64(readMXCSR()) }

func writeControl(v uint64) { writeMXCSR(uint32(v)) }

func readMXCSR() uint32

func writeMXCSR(v uint32)
