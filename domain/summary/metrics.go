package summary

import (
	"fmt"
	"math"
)

// MetricNames lists every metric in a stable order.
var MetricNames = []string{
	MetricSpend, MetricImpressions, MetricClicks, MetricRevenue,
	MetricROAS, MetricCTR, MetricCPC, MetricCPM,
}

func (m *Metrics) field(name string) **float64 {
	switch name {
	case MetricSpend:
		return &m.Spend
	case MetricImpressions:
		return &m.Impressions
	case MetricClicks:
		return &m.Clicks
	case MetricRevenue:
		return &m.Revenue
	case MetricROAS:
		return &m.ROAS
	case MetricCTR:
		return &m.CTR
	case MetricCPC:
		return &m.CPC
	case MetricCPM:
		return &m.CPM
	}
	return nil
}

// Get returns the value of a metric and whether it was reported.
func (m Metrics) Get(name string) (float64, bool) {
	f := m.field(name)
	if f == nil || *f == nil {
		return 0, false
	}
	return **f, true
}

// Set assigns a metric value. Unknown names return an error.
func (m *Metrics) Set(name string, v float64) error {
	f := m.field(name)
	if f == nil {
		return fmt.Errorf("unknown metric %q", name)
	}
	*f = &v
	return nil
}

// Equal reports whether both metric sets report the same values.
func (m Metrics) Equal(other Metrics) bool {
	for _, name := range MetricNames {
		a, aok := m.Get(name)
		b, bok := other.Get(name)
		if aok != bok || a != b {
			return false
		}
	}
	return true
}

// RelativeChange returns (recent-prior)/prior for a metric. The second return
// value is false when either side is missing or prior is zero.
func RelativeChange(recent, prior Metrics, name string) (float64, bool) {
	r, rok := recent.Get(name)
	p, pok := prior.Get(name)
	if !rok || !pok || p == 0 {
		return 0, false
	}
	return (r - p) / p, true
}

// Direction classifies a relative change against a tolerance.
type Direction int

const (
	Unknown Direction = iota
	Down
	Flat
	Up
)

func (d Direction) String() string {
	switch d {
	case Down:
		return "down"
	case Flat:
		return "flat"
	case Up:
		return "up"
	}
	return "unknown"
}

// Classify maps a relative change to a direction. Changes within flatTol are
// flat; changes at or beyond moveTol are up or down; anything between is Unknown
// so that weak moves never back a claim.
func Classify(change float64, ok bool, flatTol, moveTol float64) Direction {
	if !ok {
		return Unknown
	}
	switch {
	case math.Abs(change) <= flatTol:
		return Flat
	case change <= -moveTol:
		return Down
	case change >= moveTol:
		return Up
	}
	return Unknown
}

func validateMetrics(scope string, m Metrics, required []string) []error {
	var errs []error
	for _, name := range required {
		if _, ok := m.Get(name); !ok {
			errs = append(errs, newMissingMetric(scope, name))
		}
	}
	for _, name := range MetricNames {
		v, ok := m.Get(name)
		if !ok {
			continue
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			errs = append(errs, newInvalidMetric(scope, name, v))
		}
	}
	return errs
}
