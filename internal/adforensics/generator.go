// Package adforensics builds synthetic performance summaries with planted
// scenarios. Output is deterministic for a given seed.
package adforensics

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"adinsight/domain/core"
	"adinsight/domain/summary"
)

// Planted scenarios
const (
	ScenarioROASDrop     = "roas_drop"
	ScenarioVideoFatigue = "video_fatigue"
	ScenarioCampaignDrop = "campaign_drop"
	ScenarioFlat         = "flat"
	ScenarioSingleWindow = "single_window"
)

// scenario describes the recent-window effect of a planted cause. Factors
// multiply the prior-window value; 1 means unchanged.
type scenario struct {
	roas         float64
	campaignROAS []float64 // per campaign, overrides roas when set
	creativeCTR  map[string]float64
	singleWindow bool
}

var scenarios = map[string]scenario{
	ScenarioROASDrop:     {roas: 0.55},
	ScenarioVideoFatigue: {roas: 1, creativeCTR: map[string]float64{"video": 0.6}},
	ScenarioCampaignDrop: {roas: 1, campaignROAS: []float64{1, 1, 1, 0.4}},
	ScenarioFlat:         {roas: 1},
	ScenarioSingleWindow: {roas: 1, singleWindow: true},
}

// Scenarios returns the supported scenario names in sorted order
func Scenarios() []string {
	out := make([]string, 0, len(scenarios))
	for name := range scenarios {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

var campaigns = []struct {
	id, name string
	share    float64
}{
	{"cmp_001", "Facebook Prospecting", 0.35},
	{"cmp_002", "Google Search Brand", 0.30},
	{"cmp_003", "Instagram Retargeting", 0.20},
	{"cmp_004", "TikTok Spark Ads", 0.15},
}

var (
	creativeTypes    = []string{"video", "static", "carousel"}
	creativeMessages = []string{"Limited time offer", "Free shipping"}
)

// Config controls summary generation
type Config struct {
	Scenario  string
	Days      int // days per window
	Seed      int64
	StartDate time.Time
	Noise     float64 // relative daily noise, e.g. 0.02
	BaseSpend float64 // daily spend
	BaseCTR   float64
	BaseROAS  float64
	BaseCPM   float64
	WithDaily bool
	SummaryID core.SummaryID
}

func DefaultConfig() Config {
	return Config{
		Scenario:  ScenarioROASDrop,
		Days:      7,
		Seed:      42,
		StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Noise:     0.02,
		BaseSpend: 1000,
		BaseCTR:   0.021,
		BaseROAS:  2.1,
		BaseCPM:   12,
		WithDaily: true,
	}
}

func (c Config) validate() error {
	if _, ok := scenarios[c.Scenario]; !ok {
		return fmt.Errorf("unknown scenario %q (want one of %v)", c.Scenario, Scenarios())
	}
	if c.Days <= 0 {
		return fmt.Errorf("days must be > 0")
	}
	if c.Noise < 0 || c.Noise >= 0.5 {
		return fmt.Errorf("noise must be in [0, 0.5)")
	}
	if c.BaseSpend <= 0 || c.BaseCTR <= 0 || c.BaseROAS <= 0 || c.BaseCPM <= 0 {
		return fmt.Errorf("base metrics must be > 0")
	}
	return nil
}

// totals are the additive quantities of a window
type totals struct {
	spend, impressions, clicks, revenue float64
}

func (t totals) metrics() summary.Metrics {
	m := summary.Metrics{
		Spend:       summary.F(round(t.spend, 2)),
		Impressions: summary.F(math.Round(t.impressions)),
		Clicks:      summary.F(math.Round(t.clicks)),
		Revenue:     summary.F(round(t.revenue, 2)),
	}
	if t.spend > 0 {
		m.ROAS = summary.F(round(t.revenue/t.spend, 4))
	}
	if t.impressions > 0 {
		m.CTR = summary.F(round(t.clicks/t.impressions, 4))
		m.CPM = summary.F(round(t.spend/t.impressions*1000, 4))
	}
	if t.clicks > 0 {
		m.CPC = summary.F(round(t.spend/t.clicks, 4))
	}
	return m
}

func (t totals) add(o totals) totals {
	return totals{t.spend + o.spend, t.impressions + o.impressions, t.clicks + o.clicks, t.revenue + o.revenue}
}

// Generate builds one summary for cfg.Scenario
func Generate(cfg Config) (*summary.PerformanceSummary, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	sc := scenarios[cfg.Scenario]
	rng := rand.New(rand.NewSource(cfg.Seed))

	campaignFactors := make([]float64, len(campaigns))
	accountROAS := 0.0
	for i, c := range campaigns {
		campaignFactors[i] = sc.roas
		if sc.campaignROAS != nil {
			campaignFactors[i] = sc.campaignROAS[i]
		}
		accountROAS += c.share * campaignFactors[i]
	}
	creativeFactor := func(creativeType string) float64 {
		if f, ok := sc.creativeCTR[creativeType]; ok {
			return f
		}
		return 1
	}
	accountCTR := 0.0
	for _, ct := range creativeTypes {
		accountCTR += creativeFactor(ct) / float64(len(creativeTypes))
	}

	id := cfg.SummaryID
	if id == "" {
		id = core.SummaryID(fmt.Sprintf("synthetic_%s_%d", cfg.Scenario, cfg.Seed))
	}
	s := &summary.PerformanceSummary{SummaryID: id}

	recentStart := cfg.StartDate
	if !sc.singleWindow {
		recentStart = cfg.StartDate.AddDate(0, 0, cfg.Days)
	}

	var priorTotals totals
	if !sc.singleWindow {
		var w *summary.Window
		w, priorTotals = buildWindow(rng, cfg, "prior", cfg.StartDate, 1, 1)
		s.Windows.Prior = w
	}
	recent, recentTotals := buildWindow(rng, cfg, "recent", recentStart, accountROAS, accountCTR)
	s.Windows.Recent = recent

	for i, c := range campaigns {
		b := summary.CampaignBreakdown{
			CampaignID:   c.id,
			CampaignName: c.name,
			Recent:       campaignTotals(recentTotals, c.share, campaignFactors[i]/accountROAS).metrics(),
		}
		if !sc.singleWindow {
			m := campaignTotals(priorTotals, c.share, 1).metrics()
			b.Prior = &m
		}
		s.Campaigns = append(s.Campaigns, b)
	}

	share := 1 / float64(len(creativeTypes)*len(creativeMessages))
	for _, ct := range creativeTypes {
		for _, msg := range creativeMessages {
			b := summary.CreativeBreakdown{
				CreativeType:    ct,
				CreativeMessage: msg,
				Recent:          creativeTotals(recentTotals, share, creativeFactor(ct)/accountCTR).metrics(),
			}
			if !sc.singleWindow {
				m := creativeTotals(priorTotals, share, 1).metrics()
				b.Prior = &m
			}
			s.Creatives = append(s.Creatives, b)
		}
	}

	return s, nil
}

func buildWindow(rng *rand.Rand, cfg Config, label string, start time.Time, roasFactor, ctrFactor float64) (*summary.Window, totals) {
	w := &summary.Window{
		Label: fmt.Sprintf("%s_%dd", label, cfg.Days),
		Start: start.Format("2006-01-02"),
		End:   start.AddDate(0, 0, cfg.Days-1).Format("2006-01-02"),
	}

	var sum totals
	for d := 0; d < cfg.Days; d++ {
		date := start.AddDate(0, 0, d)
		spend := cfg.BaseSpend * noise(rng, cfg.Noise)
		if wd := date.Weekday(); wd == time.Saturday || wd == time.Sunday {
			spend *= 1.1
		}
		impressions := spend / cfg.BaseCPM * 1000 * noise(rng, cfg.Noise)
		clicks := impressions * cfg.BaseCTR * ctrFactor * noise(rng, cfg.Noise)
		revenue := spend * cfg.BaseROAS * roasFactor * noise(rng, cfg.Noise)

		day := totals{spend, impressions, clicks, revenue}
		sum = sum.add(day)
		if cfg.WithDaily {
			w.Daily = append(w.Daily, summary.DailyPoint{Date: date.Format("2006-01-02"), Metrics: day.metrics()})
		}
	}
	w.Metrics = sum.metrics()
	return w, sum
}

// campaignTotals takes share of the window and scales its revenue by the
// campaign's ROAS relative to the account
func campaignTotals(t totals, share, roasRatio float64) totals {
	return totals{
		spend:       t.spend * share,
		impressions: t.impressions * share,
		clicks:      t.clicks * share,
		revenue:     t.revenue * share * roasRatio,
	}
}

// creativeTotals takes share of the window and scales its clicks by the
// creative's CTR relative to the account
func creativeTotals(t totals, share, ctrRatio float64) totals {
	return totals{
		spend:       t.spend * share,
		impressions: t.impressions * share,
		clicks:      t.clicks * share * ctrRatio,
		revenue:     t.revenue * share,
	}
}

func noise(rng *rand.Rand, scale float64) float64 {
	return math.Max(0, 1+rng.NormFloat64()*scale)
}

func round(x float64, decimals int) float64 {
	p := math.Pow10(decimals)
	return math.Round(x*p) / p
}
