// Package rf holds the pure RF arithmetic used by the sweep pipeline:
// reflection coefficient, standing wave ratio, return loss, and the
// time-domain transform of a return-loss series. All functions are
// stateless and usable standalone.
package rf

import (
	"math"
	"math/cmplx"
)

// DefaultZ0 is the conventional 50Ω real reference impedance.
const DefaultZ0 = complex(50, 0)

// singularityClamp keeps rho away from the values that make SWR or return
// loss blow up.
const singularityClamp = 1e-3

// ReflectionCoefficient returns rho = |(z - z0) / (z + z0)|, the normalized
// mismatch of impedance z against reference z0.
func ReflectionCoefficient(z, z0 complex128) float64 {
	return cmplx.Abs((z - z0) / (z + z0))
}

// Clamp applies the full-reflection guard: any rho within 1e-3 of 1 is
// pinned to 1e-3 so SWR never divides by a value that rounds to zero.
func Clamp(rho float64) float64 {
	if math.Abs(rho-1) < singularityClamp {
		return singularityClamp
	}
	return rho
}

// SWR converts a reflection coefficient to a standing wave ratio,
// (1 + rho) / (1 - rho), clamping rho per the singularity rule first.
func SWR(rho float64) float64 {
	rho = Clamp(rho)
	return (1 + rho) / (1 - rho)
}

// ReturnLossDB converts a reflection coefficient to return loss in dB,
// 20·log10(rho). Besides the full-reflection clamp it also floors rho at
// 1e-3 so a perfect match reports -60 dB instead of -Inf.
func ReturnLossDB(rho float64) float64 {
	rho = Clamp(rho)
	if rho < singularityClamp {
		rho = singularityClamp
	}
	return 20 * math.Log10(rho)
}

// TimeDomain computes the reflectometry series for a sweep: the real part
// of the inverse discrete Fourier transform of the return-loss values,
// paired with a delay axis of 1/f for each sweep frequency. freqsHz and
// returnLossDB must be the same length.
//
// The delay axis deliberately reuses the sweep's frequency points instead
// of a uniform grid derived from their spacing; that is the instrument's
// established convention. By convention callers discard the first output
// sample (the DC term); that is not enforced here.
//
// Sweeps are small (tens to hundreds of points), so a direct O(n²) inverse
// transform is used; it matches the textbook IDFT for arbitrary lengths.
func TimeDomain(freqsHz, returnLossDB []float64) (delays, amplitudes []float64) {
	n := len(returnLossDB)
	delays = make([]float64, n)
	amplitudes = make([]float64, n)
	if n == 0 {
		return delays, amplitudes
	}

	for k := 0; k < n; k++ {
		var sum complex128
		for j := 0; j < n; j++ {
			angle := 2 * math.Pi * float64(k) * float64(j) / float64(n)
			sum += complex(returnLossDB[j], 0) * cmplx.Exp(complex(0, angle))
		}
		amplitudes[k] = real(sum) / float64(n)
	}
	for i := range delays {
		delays[i] = 1 / freqsHz[i]
	}
	return delays, amplitudes
}
