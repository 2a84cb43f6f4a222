package heuristic

import (
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	confidenceBase       = 0.2
	magnitudeWeight      = 0.4
	consistencyWeight    = 0.35
	magnitudeSaturation  = 0.5 // a 50% move earns full magnitude credit
	neutralConsistency   = 0.5
	minConfidence        = 0.05
	maxConfidence        = 0.95
	confidenceRoundScale = 100
)

// confidence scores a relative change. recent and prior are the daily series
// behind the aggregates; baseline is the prior aggregate used when the prior
// series is missing. Without daily data the consistency term is neutral.
func (g *Generator) confidence(change float64, recent, prior []float64, baseline float64) float64 {
	magnitude := math.Min(math.Abs(change)/magnitudeSaturation, 1)
	consistency := g.consistency(change, recent, prior, baseline)
	return clampConfidence(confidenceBase + magnitudeWeight*magnitude + consistencyWeight*consistency)
}

func (g *Generator) consistency(change float64, recent, prior []float64, baseline float64) float64 {
	separation := neutralConsistency
	if p, ok := welchPValue(recent, prior); ok {
		separation = 1 - p
	}

	share := neutralConsistency
	if len(prior) > 0 {
		if m, err := stats.Mean(prior); err == nil {
			baseline = m
		}
	}
	if s, ok := directionShare(recent, baseline, change, g.cfg.FlatTolerance); ok {
		share = s
	}
	return 0.5*separation + 0.5*share
}

// welchPValue is the two-sided p-value of Welch's t-test. Both series need at
// least two points.
func welchPValue(a, b []float64) (float64, bool) {
	if len(a) < 2 || len(b) < 2 {
		return 0, false
	}
	ma, err := stats.Mean(a)
	if err != nil {
		return 0, false
	}
	mb, err := stats.Mean(b)
	if err != nil {
		return 0, false
	}
	va, err := stats.SampleVariance(a)
	if err != nil {
		return 0, false
	}
	vb, err := stats.SampleVariance(b)
	if err != nil {
		return 0, false
	}

	na, nb := float64(len(a)), float64(len(b))
	sea, seb := va/na, vb/nb
	se2 := sea + seb
	if se2 == 0 {
		if ma == mb {
			return 1, true
		}
		return 0, true
	}

	t := (ma - mb) / math.Sqrt(se2)
	df := se2 * se2 / (sea*sea/(na-1) + seb*seb/(nb-1))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * (1 - dist.CDF(math.Abs(t)))
	return math.Max(0, math.Min(1, p)), true
}

// directionShare is the fraction of recent days that moved away from baseline
// in the direction of change by more than tol.
func directionShare(recent []float64, baseline, change, tol float64) (float64, bool) {
	if len(recent) == 0 || baseline == 0 || change == 0 {
		return 0, false
	}
	moved := 0
	for _, v := range recent {
		d := (v - baseline) / baseline
		if (change < 0 && d <= -tol) || (change > 0 && d >= tol) {
			moved++
		}
	}
	return float64(moved) / float64(len(recent)), true
}

func clampConfidence(c float64) float64 {
	c = math.Max(minConfidence, math.Min(maxConfidence, c))
	return math.Round(c*confidenceRoundScale) / confidenceRoundScale
}
