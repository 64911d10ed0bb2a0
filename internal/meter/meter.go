// Package meter measures the level of interleaved stereo blocks.
package meter

import (
	"fmt"
	"math"

	"github.com/chriskillpack/chanmix/stereo"
	"github.com/cwbudde/algo-vecmath"
)

const fullScale = 32768.0

// Levels of one block, as a fraction of full scale.
type Levels struct {
	PeakL, PeakR float64
	RMSL, RMSR   float64
}

func (l Levels) String() string {
	return fmt.Sprintf("peak %6.1f/%6.1f dBFS  rms %6.1f/%6.1f dBFS",
		DBFS(l.PeakL), DBFS(l.PeakR), DBFS(l.RMSL), DBFS(l.RMSR))
}

// Max returns the louder of each level.
func (l Levels) Max(o Levels) Levels {
	return Levels{
		PeakL: max(l.PeakL, o.PeakL),
		PeakR: max(l.PeakR, o.PeakR),
		RMSL:  max(l.RMSL, o.RMSL),
		RMSR:  max(l.RMSR, o.RMSR),
	}
}

// DBFS converts a level to decibels relative to full scale. Silence is
// -Inf.
func DBFS(level float64) float64 {
	if level <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(level)
}

// Meter measures blocks, reusing its buffers between calls. A Meter is not
// safe for concurrent use.
type Meter struct {
	left, right []float64
}

// Measure returns the levels of an interleaved stereo block.
func Measure(block []int16) Levels {
	var m Meter
	return m.Measure(block)
}

// Measure returns the levels of an interleaved stereo block.
func (m *Meter) Measure(block []int16) Levels {
	buf := stereo.Buffer(block)
	n := buf.Frames()
	if n == 0 {
		return Levels{}
	}

	m.left = grow(m.left, n)
	m.right = grow(m.right, n)
	for i := 0; i < n; i++ {
		l, r := buf.Frame(i)
		m.left[i], m.right[i] = float64(l)/fullScale, float64(r)/fullScale
	}

	return Levels{
		PeakL: vecmath.MaxAbs(m.left),
		PeakR: vecmath.MaxAbs(m.right),
		RMSL:  rms(m.left),
		RMSR:  rms(m.right),
	}
}

func rms(x []float64) float64 {
	return math.Sqrt(vecmath.DotProduct(x, x) / float64(len(x)))
}

func grow(s []float64, n int) []float64 {
	if cap(s) < n {
		return make([]float64, n)
	}
	return s[:n]
}
