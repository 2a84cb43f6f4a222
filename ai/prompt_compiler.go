package ai

import (
	"fmt"
	"strings"

	"adinsight/domain/summary"
)

// CompileSummaryDirectiveFragments converts a PerformanceSummary into a set of
// high-salience prompt fragments that anchor the LLM to the numbers it was
// given. minChange is the smallest relative move worth a claim.
func CompileSummaryDirectiveFragments(s *summary.PerformanceSummary, minChange float64) []string {
	var out []string
	if s == nil || s.Windows.Recent == nil {
		return out
	}

	// Window availability gating
	if !s.Comparable() {
		out = append(out, "CAUTION: Only one time window is available; do not make comparative claims such as increases or decreases.")
	} else {
		recent, prior := s.Windows.Recent.Metrics, s.Windows.Prior.Metrics
		for _, name := range []string{summary.MetricROAS, summary.MetricCTR, summary.MetricCPC, summary.MetricCPM, summary.MetricSpend} {
			delta, ok := summary.RelativeChange(recent, prior, name)
			if !ok {
				continue
			}
			if abs(delta) >= minChange {
				out = append(out, fmt.Sprintf("PRIORITY: %s moved %+.1f%% between the prior and recent windows.", strings.ToUpper(name), delta*100))
			}
		}
		if recent.Equal(prior) {
			out = append(out, "EVIDENCE: Aggregate metrics are identical across windows; an empty array is the expected answer unless breakdowns differ.")
		}
	}

	// Decomposition hints
	if len(s.Campaigns) > 0 {
		out = append(out, fmt.Sprintf("INTERPRETATION: %d campaign breakdowns are present; distinguish account-wide shifts from campaign-specific ones.", len(s.Campaigns)))
	}
	if len(s.Creatives) > 0 {
		out = append(out, fmt.Sprintf("INTERPRETATION: %d creative breakdowns are present; consider fatigue, message mismatch and format underperformance.", len(s.Creatives)))
	}

	// Trend consistency
	if n := len(s.Windows.Recent.Daily); n > 0 {
		out = append(out, fmt.Sprintf("EVIDENCE: %d daily points are available for the recent window; weigh sustained trends above single-day changes.", n))
	}

	// Deduplicate while preserving order
	seen := make(map[string]struct{}, len(out))
	dedup := out[:0]
	for _, f := range out {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		dedup = append(dedup, f)
	}
	return dedup
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
