package fft

import (
	algofft "github.com/MeKo-Christian/algo-fft"
)

// RFFT performs an in-place real transform of 2^log2n points held in the
// packed split layout: x carries 2^(log2n-1) bins, the caller having
// unzipped the real input with Unzip or UnzipZero. On return x holds twice
// the half-spectrum with the DC bin in Re[0] and the Nyquist bin in Im[0].
func RFFT[T algofft.Float](setup *Setup[T], x Split[T], log2n int) {
	if log2n < 1 || log2n > setup.maxLog2 {
		return
	}

	m := 1 << (log2n - 1)
	transform(setup, x.Re[:m], x.Im[:m], log2n-1, false)

	// Conjugate-pair combine: rebuild the length-N spectrum from the
	// half-size transform of the even/odd interleave. Everything is
	// scaled by two, Nyquist lands in Im[0].
	re0, im0 := x.Re[0], x.Im[0]
	x.Re[0] = 2 * (re0 + im0)
	x.Im[0] = 2 * (re0 - im0)

	if m < 2 {
		return
	}

	tw := setup.tables[log2n]
	for k := 1; k < m/2; k++ {
		kr := m - k

		sr := x.Re[k] + x.Re[kr]
		si := x.Im[k] - x.Im[kr]
		dr := x.Re[k] - x.Re[kr]
		di := x.Im[k] + x.Im[kr]

		wr, wi := tw.re[k], tw.im[k]
		ur := wr*dr - wi*di
		ui := wr*di + wi*dr

		x.Re[k], x.Im[k] = sr+ui, si-ur
		x.Re[kr], x.Im[kr] = sr-ui, -si-ur
	}

	// k = m/2 pairs with itself; its twiddle is exactly -i.
	x.Re[m/2] *= 2
	x.Im[m/2] *= -2
}

// RIFFT performs the in-place inverse real transform on a packed spectrum
// as produced by RFFT. The result is the unzipped time sequence scaled by
// 2N; the caller zips it out with Zip (or uses RIFFTTo) and owns the
// normalization.
func RIFFT[T algofft.Float](setup *Setup[T], x Split[T], log2n int) {
	if log2n < 1 || log2n > setup.maxLog2 {
		return
	}

	m := 1 << (log2n - 1)

	re0, im0 := x.Re[0], x.Im[0]
	x.Re[0] = re0 + im0
	x.Im[0] = re0 - im0

	if m >= 2 {
		tw := setup.tables[log2n]
		for k := 1; k < m/2; k++ {
			kr := m - k

			ar := x.Re[k] + x.Re[kr]
			ai := x.Im[k] - x.Im[kr]
			br := x.Re[k] - x.Re[kr]
			bi := x.Im[k] + x.Im[kr]

			// d = conj(W^k) * (i * b)
			tr, ti := -bi, br
			wr, wi := tw.re[k], tw.im[k]
			dr := wr*tr + wi*ti
			di := wr*ti - wi*tr

			x.Re[k], x.Im[k] = ar+dr, ai+di
			x.Re[kr], x.Im[kr] = ar-dr, -(ai - di)
		}

		x.Re[m/2] *= 2
		x.Im[m/2] *= -2
	}

	transform(setup, x.Re[:m], x.Im[:m], log2n-1, true)
}

// RFFTFrom unzips src (zero-padded to 2^log2n points) into dst and runs
// the real transform. The out-of-place entry point used when loading
// partition spectra and transforming input blocks.
func RFFTFrom[T algofft.Float](setup *Setup[T], dst Split[T], src []T, log2n int) {
	UnzipZero(src, dst, len(src), log2n)
	RFFT(setup, dst, log2n)
}

// RIFFTTo runs the inverse real transform on x and zips the time sequence
// into dst, which must hold 2^log2n samples.
func RIFFTTo[T algofft.Float](setup *Setup[T], x Split[T], dst []T, log2n int) {
	RIFFT(setup, x, log2n)
	Zip(x, dst, log2n)
}

// Unzip deinterleaves 2^log2n real samples into the packed split layout:
// even samples to Re, odd samples to Im.
func Unzip[T algofft.Float](input []T, x Split[T], log2n int) {
	m := 1 << (log2n - 1)
	for j := 0; j < m; j++ {
		x.Re[j] = input[2*j]
		x.Im[j] = input[2*j+1]
	}
}

// UnzipZero deinterleaves up to inLength samples and zero-pads the
// remainder of the 2^log2n-point layout.
func UnzipZero[T algofft.Float](input []T, x Split[T], inLength, log2n int) {
	m := 1 << (log2n - 1)
	n := m << 1

	if inLength > n {
		inLength = n
	}
	if inLength > len(input) {
		inLength = len(input)
	}

	full := inLength >> 1
	for j := 0; j < full; j++ {
		x.Re[j] = input[2*j]
		x.Im[j] = input[2*j+1]
	}

	pos := full
	if inLength&1 != 0 {
		x.Re[pos] = input[inLength-1]
		x.Im[pos] = 0
		pos++
	}

	clear(x.Re[pos:m])
	clear(x.Im[pos:m])
}

// Zip interleaves the packed split layout back into 2^log2n real samples.
func Zip[T algofft.Float](x Split[T], output []T, log2n int) {
	m := 1 << (log2n - 1)
	for j := 0; j < m; j++ {
		output[2*j] = x.Re[j]
		output[2*j+1] = x.Im[j]
	}
}
