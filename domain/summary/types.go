// Package summary defines the pre-aggregated performance summary produced by
// the Data Agent. Nothing in this package reads raw impression or click records.
package summary

import (
	"strings"

	"adinsight/domain/core"
)

// Metric names used in summaries and error messages.
const (
	MetricSpend       = "spend"
	MetricImpressions = "impressions"
	MetricClicks      = "clicks"
	MetricRevenue     = "revenue"
	MetricROAS        = "roas"
	MetricCTR         = "ctr"
	MetricCPC         = "cpc"
	MetricCPM         = "cpm"
)

// RequiredMetrics must be present on every window aggregate.
var RequiredMetrics = []string{MetricROAS, MetricCTR, MetricSpend}

// Window names.
const (
	WindowRecent = "recent"
	WindowPrior  = "prior"
)

// Metrics holds aggregate metric values. Nil means the Data Agent did not
// report the metric.
type Metrics struct {
	Spend       *float64 `json:"spend,omitempty" yaml:"spend,omitempty"`
	Impressions *float64 `json:"impressions,omitempty" yaml:"impressions,omitempty"`
	Clicks      *float64 `json:"clicks,omitempty" yaml:"clicks,omitempty"`
	Revenue     *float64 `json:"revenue,omitempty" yaml:"revenue,omitempty"`
	ROAS        *float64 `json:"roas,omitempty" yaml:"roas,omitempty"`
	CTR         *float64 `json:"ctr,omitempty" yaml:"ctr,omitempty"`
	CPC         *float64 `json:"cpc,omitempty" yaml:"cpc,omitempty"`
	CPM         *float64 `json:"cpm,omitempty" yaml:"cpm,omitempty"`
}

// DailyPoint is one day of pre-aggregated totals inside a window.
type DailyPoint struct {
	Date    string  `json:"date" yaml:"date"`
	Metrics Metrics `json:"metrics" yaml:"metrics"`
}

// Window is an aggregate over a contiguous time range.
type Window struct {
	Label   string       `json:"label,omitempty" yaml:"label,omitempty"`
	Start   string       `json:"start,omitempty" yaml:"start,omitempty"`
	End     string       `json:"end,omitempty" yaml:"end,omitempty"`
	Metrics Metrics      `json:"metrics" yaml:"metrics"`
	Daily   []DailyPoint `json:"daily,omitempty" yaml:"daily,omitempty"`
}

// Windows groups the comparable windows. Prior may be absent.
type Windows struct {
	Recent *Window `json:"recent,omitempty" yaml:"recent,omitempty"`
	Prior  *Window `json:"prior,omitempty" yaml:"prior,omitempty"`
}

// CampaignBreakdown is the per-campaign aggregate for each window.
type CampaignBreakdown struct {
	CampaignID   string   `json:"campaign_id,omitempty" yaml:"campaign_id,omitempty"`
	CampaignName string   `json:"campaign_name" yaml:"campaign_name"`
	Recent       Metrics  `json:"recent" yaml:"recent"`
	Prior        *Metrics `json:"prior,omitempty" yaml:"prior,omitempty"`
}

// Name returns the display name, falling back to the campaign ID.
func (c CampaignBreakdown) Name() string {
	if strings.TrimSpace(c.CampaignName) != "" {
		return c.CampaignName
	}
	return c.CampaignID
}

// CreativeBreakdown is the aggregate for one creative type/message combination.
type CreativeBreakdown struct {
	CreativeType    string   `json:"creative_type,omitempty" yaml:"creative_type,omitempty"`
	CreativeMessage string   `json:"creative_message,omitempty" yaml:"creative_message,omitempty"`
	Recent          Metrics  `json:"recent" yaml:"recent"`
	Prior           *Metrics `json:"prior,omitempty" yaml:"prior,omitempty"`
}

// PerformanceSummary is one snapshot handed over by the Data Agent.
type PerformanceSummary struct {
	SummaryID core.SummaryID      `json:"summary_id,omitempty" yaml:"summary_id,omitempty"`
	Windows   Windows             `json:"windows" yaml:"windows"`
	Campaigns []CampaignBreakdown `json:"campaigns,omitempty" yaml:"campaigns,omitempty"`
	Creatives []CreativeBreakdown `json:"creatives,omitempty" yaml:"creatives,omitempty"`
}

// Comparable reports whether a recent-vs-prior comparison is possible.
func (s *PerformanceSummary) Comparable() bool {
	return s != nil && s.Windows.Recent != nil && s.Windows.Prior != nil
}

// HasBreakdowns reports whether any campaign or creative breakdown is present.
func (s *PerformanceSummary) HasBreakdowns() bool {
	return s != nil && (len(s.Campaigns) > 0 || len(s.Creatives) > 0)
}

// F returns a pointer to v. Handy for building summaries in code.
func F(v float64) *float64 { return &v }

// Series returns the reported daily values of a metric in date order as given.
// Days that did not report the metric are skipped.
func (w *Window) Series(name string) []float64 {
	if w == nil {
		return nil
	}
	out := make([]float64, 0, len(w.Daily))
	for _, d := range w.Daily {
		if v, ok := d.Metrics.Get(name); ok {
			out = append(out, v)
		}
	}
	return out
}
