package summary

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"adinsight/domain/core"
)

func window(roas, ctr, spend float64) *Window {
	return &Window{Metrics: Metrics{ROAS: F(roas), CTR: F(ctr), Spend: F(spend)}}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		summary    *PerformanceSummary
		wantErr    bool
		wantSubstr []string
	}{
		{
			name:    "two windows",
			summary: &PerformanceSummary{Windows: Windows{Recent: window(1.2, 0.02, 100), Prior: window(2.1, 0.02, 100)}},
		},
		{
			name:    "single window is valid input",
			summary: &PerformanceSummary{Windows: Windows{Recent: window(1.2, 0.02, 100)}},
		},
		{
			name:       "missing recent window",
			summary:    &PerformanceSummary{Windows: Windows{Prior: window(2.1, 0.02, 100)}},
			wantErr:    true,
			wantSubstr: []string{"windows.recent"},
		},
		{
			name: "missing required metrics are all reported",
			summary: &PerformanceSummary{Windows: Windows{
				Recent: &Window{Metrics: Metrics{Spend: F(100)}},
				Prior:  window(2.1, 0.02, 100),
			}},
			wantErr:    true,
			wantSubstr: []string{"windows.recent.metrics.roas", "windows.recent.metrics.ctr"},
		},
		{
			name: "negative metric",
			summary: &PerformanceSummary{Windows: Windows{
				Recent: window(-1, 0.02, 100),
			}},
			wantErr:    true,
			wantSubstr: []string{"roas=-1"},
		},
		{
			name: "NaN metric",
			summary: &PerformanceSummary{Windows: Windows{
				Recent: window(math.NaN(), 0.02, 100),
			}},
			wantErr: true,
		},
		{
			name: "campaign without name",
			summary: &PerformanceSummary{
				Windows:   Windows{Recent: window(1, 0.02, 100)},
				Campaigns: []CampaignBreakdown{{Recent: Metrics{ROAS: F(1)}}},
			},
			wantErr:    true,
			wantSubstr: []string{"campaigns[0]"},
		},
		{
			name: "creative without attributes",
			summary: &PerformanceSummary{
				Windows:   Windows{Recent: window(1, 0.02, 100)},
				Creatives: []CreativeBreakdown{{Recent: Metrics{CTR: F(0.01)}}},
			},
			wantErr:    true,
			wantSubstr: []string{"creatives[0]"},
		},
		{
			name: "daily point without date",
			summary: &PerformanceSummary{Windows: Windows{Recent: &Window{
				Metrics: Metrics{ROAS: F(1), CTR: F(0.02), Spend: F(10)},
				Daily:   []DailyPoint{{Metrics: Metrics{ROAS: F(1)}}},
			}}},
			wantErr:    true,
			wantSubstr: []string{"daily[0].date"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.summary.Validate()
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !errors.Is(err, core.ErrInputContract) {
				t.Errorf("Expected input contract error, got %v", err)
			}
			for _, s := range tt.wantSubstr {
				if !strings.Contains(err.Error(), s) {
					t.Errorf("Expected error to mention %q, got %v", s, err)
				}
			}
		})
	}
}

func TestNilSummaryIsInputViolation(t *testing.T) {
	var s *PerformanceSummary
	if err := s.Validate(); !core.IsInputContractError(err) {
		t.Errorf("Expected input contract error, got %v", err)
	}
	if s.Comparable() {
		t.Error("Nil summary must not be comparable")
	}
}

func TestRelativeChangeAndClassify(t *testing.T) {
	recent := Metrics{ROAS: F(1.2), CTR: F(0.02)}
	prior := Metrics{ROAS: F(2.1), CTR: F(0.02), CPC: F(0)}

	change, ok := RelativeChange(recent, prior, MetricROAS)
	if !ok {
		t.Fatal("Expected ROAS change to be computable")
	}
	if math.Abs(change-(-0.428571)) > 1e-4 {
		t.Errorf("Expected -0.4286, got %f", change)
	}
	if d := Classify(change, ok, 0.05, 0.15); d != Down {
		t.Errorf("Expected down, got %s", d)
	}

	change, ok = RelativeChange(recent, prior, MetricCTR)
	if d := Classify(change, ok, 0.05, 0.15); d != Flat {
		t.Errorf("Expected flat CTR, got %s", d)
	}

	if _, ok := RelativeChange(recent, prior, MetricCPC); ok {
		t.Error("Expected CPC change to be unavailable (recent missing, prior zero)")
	}
	if d := Classify(0.10, true, 0.05, 0.15); d != Unknown {
		t.Errorf("Expected weak move to be unknown, got %s", d)
	}
}

func TestSummaryJSONFieldNames(t *testing.T) {
	raw := `{
		"summary_id": "fb-ads-2025-01",
		"windows": {
			"recent": {"label": "last_7d", "metrics": {"roas": 1.2, "ctr": 0.021, "spend": 700},
				"daily": [{"date": "2025-01-08", "metrics": {"roas": 1.1}}]},
			"prior": {"label": "prior_7d", "metrics": {"roas": 2.1, "ctr": 0.021, "spend": 700}}
		},
		"campaigns": [{"campaign_name": "Men Comfort Instagram", "recent": {"roas": 1.0}, "prior": {"roas": 2.0}}],
		"creatives": [{"creative_type": "video", "creative_message": "comfort", "recent": {"ctr": 0.01}}]
	}`

	var s PerformanceSummary
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if err := s.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !s.Comparable() || !s.HasBreakdowns() {
		t.Error("Expected comparable summary with breakdowns")
	}
	if got := s.Windows.Recent.Series(MetricROAS); len(got) != 1 || got[0] != 1.1 {
		t.Errorf("Unexpected daily series: %v", got)
	}
	if s.Creatives[0].Prior != nil {
		t.Error("Expected missing prior creative metrics to stay nil")
	}
}

func TestMetricsSetGetEqual(t *testing.T) {
	var m Metrics
	if err := m.Set(MetricCPM, 12.5); err != nil {
		t.Fatal(err)
	}
	if err := m.Set("frequency", 2); err == nil {
		t.Error("Expected unknown metric error")
	}
	if v, ok := m.Get(MetricCPM); !ok || v != 12.5 {
		t.Errorf("Expected cpm=12.5, got %v %v", v, ok)
	}
	other := Metrics{CPM: F(12.5)}
	if !m.Equal(other) {
		t.Error("Expected metrics to be equal")
	}
	other.Spend = F(1)
	if m.Equal(other) {
		t.Error("Expected metrics to differ")
	}
}
