package analyzer

import (
	"fmt"
	"math"

	"github.com/rfbench/aa30gw/rf"
)

// SweepRequest describes a multi-point frequency sweep. It is immutable
// once a sweep starts.
type SweepRequest struct {
	StartHz uint64
	EndHz   uint64
	Points  int
}

// Validate enforces the request invariants: a positive point count and a
// non-inverted frequency range.
func (r SweepRequest) Validate() error {
	if r.Points <= 0 {
		return fmt.Errorf("%w: point count must be positive, got %d", ErrInvalidRequest, r.Points)
	}
	if r.EndHz < r.StartHz {
		return fmt.Errorf("%w: end frequency %d below start %d", ErrInvalidRequest, r.EndHz, r.StartHz)
	}
	return nil
}

func (r SweepRequest) centerHz() uint64 { return r.StartHz + (r.EndHz-r.StartHz)/2 }
func (r SweepRequest) spanHz() uint64   { return r.EndHz - r.StartHz }

// SamplePoint is one raw device reading: frequency plus the measured
// complex impedance split into resistance and reactance.
type SamplePoint struct {
	FrequencyHz   float64
	ResistanceOhm float64
	ReactanceOhm  float64
}

// Valid reports whether the device produced a usable reading at this index.
// Invalid points keep their position in the sweep with NaN markers rather
// than being dropped.
func (p SamplePoint) Valid() bool {
	return !math.IsNaN(p.FrequencyHz)
}

func invalidSample() SamplePoint {
	nan := math.NaN()
	return SamplePoint{FrequencyHz: nan, ResistanceOhm: nan, ReactanceOhm: nan}
}

// DerivedPoint holds the standard RF metrics computed from a SamplePoint
// against the session's reference impedance.
type DerivedPoint struct {
	ReflectionCoeff float64
	SWR             float64
	ReturnLossDB    float64
}

// MeasuredPoint pairs a raw sample with its derived metrics.
type MeasuredPoint struct {
	Sample  SamplePoint
	Derived DerivedPoint
}

// TimeDomainPoint is one sample of the reflectometry series computed after
// a sweep completes.
type TimeDomainPoint struct {
	DelaySeconds float64
	Amplitude    float64
}

// Progress is an incremental sweep snapshot, emitted after every acquired
// point so callers can redraw live. Points holds a copy of everything
// measured so far, indices 0 through Index.
type Progress struct {
	Index  int
	Points []MeasuredPoint
}

// SweepResult is the complete outcome of one sweep.
type SweepResult struct {
	Request    SweepRequest
	Points     []MeasuredPoint
	TimeDomain []TimeDomainPoint
	// Complete reports whether the full requested count arrived, as opposed
	// to an early device-side OK or a cancellation.
	Complete bool
}

func derive(p SamplePoint, z0 complex128) DerivedPoint {
	z := complex(p.ResistanceOhm, p.ReactanceOhm)
	rho := rf.Clamp(rf.ReflectionCoefficient(z, z0))
	return DerivedPoint{
		ReflectionCoeff: rho,
		SWR:             rf.SWR(rho),
		ReturnLossDB:    rf.ReturnLossDB(rho),
	}
}

// timeDomain derives the reflectometry series from the accumulated
// return-loss values. The delay axis is 1/f per sweep point rather than a
// uniform time grid; this matches the instrument's established convention
// and is preserved as-is.
func timeDomain(points []MeasuredPoint) []TimeDomainPoint {
	freqs := make([]float64, len(points))
	rtl := make([]float64, len(points))
	for i, p := range points {
		freqs[i] = p.Sample.FrequencyHz
		rtl[i] = p.Derived.ReturnLossDB
	}
	delays, amplitudes := rf.TimeDomain(freqs, rtl)
	series := make([]TimeDomainPoint, len(delays))
	for i := range delays {
		series[i] = TimeDomainPoint{DelaySeconds: delays[i], Amplitude: amplitudes[i]}
	}
	return series
}
