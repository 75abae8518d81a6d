// Package conv implements real-time FIR convolution with impulse responses
// of arbitrary length.
//
// Four engine layers build on each other:
//
//   - TimeDomainT: direct convolution against a reversed impulse, for short
//     impulses and zero-latency head sections.
//   - PartitionedT: uniformly-partitioned overlap-save FFT convolution with
//     one partition size.
//   - MonoT: a non-uniform composition of the two, trading latency against
//     cost; the largest partition is resizable behind a lock-free swap so
//     impulses can be replaced while audio runs.
//   - NToMonoT and MultichannelT: fan-in and matrix/parallel channel
//     routing on top of MonoT.
//
// Two threads interact with a convolver: a control thread calling Set,
// Resize and Reset, and an audio thread calling Process. Process never
// blocks and never allocates; when the control thread holds the swap lock,
// Process emits silence for that block. All engines are generic over the
// impulse computation type T and the audio I/O type IO (float32/float64),
// converted at the buffer boundaries.
package conv
