package heuristic

import (
	"fmt"
	"sort"
	"strings"

	"adinsight/domain/signals"
	"adinsight/domain/summary"
)

// platformTokens are campaign-name tokens that identify a delivery platform.
var platformTokens = []string{"facebook", "instagram", "tiktok", "google", "youtube"}

// change is one metric compared across windows.
type change struct {
	recent, prior float64
	delta         float64
	ok            bool
	dir           summary.Direction
}

// group is a creative attribute value with its CTR compared across windows.
type group struct {
	name string
	ctr  change
}

type analysis struct {
	account map[string]change

	// Creative groups whose CTR fell while every other group stayed flat.
	typeDrops    []group
	messageDrops []group
}

func (g *Generator) compare(recent, prior summary.Metrics, name string) change {
	c := change{}
	c.recent, _ = recent.Get(name)
	c.prior, _ = prior.Get(name)
	c.delta, c.ok = summary.RelativeChange(recent, prior, name)
	c.dir = summary.Classify(c.delta, c.ok, g.cfg.FlatTolerance, g.cfg.MinRelativeChange)
	return c
}

func (g *Generator) analyze(s *summary.PerformanceSummary) analysis {
	a := analysis{account: make(map[string]change, len(summary.MetricNames))}
	for _, name := range summary.MetricNames {
		a.account[name] = g.compare(s.Windows.Recent.Metrics, s.Windows.Prior.Metrics, name)
	}
	a.typeDrops = g.isolatedDrops(s.Creatives, func(c summary.CreativeBreakdown) string { return c.CreativeType })
	a.messageDrops = g.isolatedDrops(s.Creatives, func(c summary.CreativeBreakdown) string { return c.CreativeMessage })
	return a
}

// isolatedDrops groups creatives by key and returns the groups whose CTR fell
// by at least MinRelativeChange while every remaining group stayed flat. At
// least one flat group is needed for the drop to count as isolated.
func (g *Generator) isolatedDrops(creatives []summary.CreativeBreakdown, key func(summary.CreativeBreakdown) string) []group {
	byKey := make(map[string][]summary.CreativeBreakdown)
	var order []string
	for _, c := range creatives {
		k := strings.TrimSpace(key(c))
		if k == "" || c.Prior == nil {
			continue
		}
		if _, seen := byKey[k]; !seen {
			order = append(order, k)
		}
		byKey[k] = append(byKey[k], c)
	}

	var drops []group
	flat := 0
	for _, k := range order {
		recent, prior := groupCTR(byKey[k])
		c := g.compare(recent, prior, summary.MetricCTR)
		switch c.dir {
		case summary.Down:
			drops = append(drops, group{name: k, ctr: c})
		case summary.Flat:
			flat++
		default:
			return nil
		}
	}
	if flat == 0 {
		return nil
	}
	return drops
}

// groupCTR returns click-weighted CTR per window when every member reports
// clicks and impressions, and the mean reported CTR otherwise.
func groupCTR(members []summary.CreativeBreakdown) (recent, prior summary.Metrics) {
	recent.CTR = pooledCTR(members, func(c summary.CreativeBreakdown) summary.Metrics { return c.Recent })
	prior.CTR = pooledCTR(members, func(c summary.CreativeBreakdown) summary.Metrics { return *c.Prior })
	return recent, prior
}

func pooledCTR(members []summary.CreativeBreakdown, pick func(summary.CreativeBreakdown) summary.Metrics) *float64 {
	var clicks, impressions, ctrSum float64
	weighted := true
	n := 0
	for _, c := range members {
		m := pick(c)
		cl, clOK := m.Get(summary.MetricClicks)
		im, imOK := m.Get(summary.MetricImpressions)
		if clOK && imOK {
			clicks += cl
			impressions += im
		} else {
			weighted = false
		}
		if v, ok := m.Get(summary.MetricCTR); ok {
			ctrSum += v
			n++
		}
	}
	if weighted && impressions > 0 {
		return summary.F(clicks / impressions)
	}
	if n == 0 {
		return nil
	}
	return summary.F(ctrSum / float64(n))
}

func (g *Generator) windowRules(b *builder, s *summary.PerformanceSummary, a analysis) {
	recent, prior := s.Windows.Recent, s.Windows.Prior
	roas, ctr, cpc := a.account[summary.MetricROAS], a.account[summary.MetricCTR], a.account[summary.MetricCPC]
	spend, cpm := a.account[summary.MetricSpend], a.account[summary.MetricCPM]
	revenue, clicks := a.account[summary.MetricRevenue], a.account[summary.MetricClicks]
	impressions := a.account[summary.MetricImpressions]

	if roas.dir == summary.Down {
		claim, driver := roasDriver(spend, ctr, cpc)
		sigs := []signals.Signal{signals.ROASDown}
		sigs = append(sigs, driver...)
		sigs = append(sigs, coMoving(spend, ctr, cpc, revenue)...)

		reasoning := fmt.Sprintf("ROAS fell from %.2f in the prior window to %.2f in the recent window (%s), a gap of %.2f. %s, %s and %s.",
			roas.prior, roas.recent, pct(roas.delta), roas.prior-roas.recent,
			capitalize(describe("spend", spend)), describe("CTR", ctr), describe("CPC", cpc))
		if dropped, compared := g.campaignROASDrops(s); compared > 0 && 2*len(dropped) >= compared {
			reasoning += fmt.Sprintf(" The decline appears in %d of %d campaigns, so it is broad-based rather than localized.", len(dropped), compared)
		}
		b.add("h_roas_drop", claim, reasoning,
			g.confidence(roas.delta, recent.Series(summary.MetricROAS), prior.Series(summary.MetricROAS), roas.prior),
			sigs...)
	}

	if ctr.dir == summary.Down && len(a.typeDrops) == 0 {
		reasoning := fmt.Sprintf("Account CTR fell from %s to %s (%s) and no single creative type accounts for the decline.",
			pctValue(ctr.prior), pctValue(ctr.recent), pct(ctr.delta))
		sigs := []signals.Signal{signals.CTRDown}
		if cpc.dir == summary.Up {
			sigs = append(sigs, signals.CPCUp)
		}
		b.add("h_ctr_drop",
			"Audience interest in the current ads weakened across creatives, which lowered click-through rate account-wide.",
			reasoning,
			g.confidence(ctr.delta, recent.Series(summary.MetricCTR), prior.Series(summary.MetricCTR), ctr.prior),
			sigs...)
	}

	if cpm.dir == summary.Up && (impressions.dir == summary.Flat || impressions.dir == summary.Down) {
		reasoning := fmt.Sprintf("CPM rose from %.2f to %.2f (%s) while impressions changed by only %s.",
			cpm.prior, cpm.recent, pct(cpm.delta), pct(impressions.delta))
		b.add("h_audience_saturation",
			"Audience saturation is raising delivery cost, since reaching the same people again costs more without adding impressions.",
			reasoning,
			g.confidence(cpm.delta, recent.Series(summary.MetricCPM), prior.Series(summary.MetricCPM), cpm.prior),
			signals.CPMUp, signals.ImpressionsFlat)
	}

	if cpc.dir == summary.Up && ctr.dir == summary.Flat {
		reasoning := fmt.Sprintf("CPC rose from %.2f to %.2f (%s) while CTR stayed within %s of its prior value.",
			cpc.prior, cpc.recent, pct(cpc.delta), pctValue(g.cfg.FlatTolerance))
		b.add("h_cpc_rise",
			"Rising auction competition is increasing the cost of each click without any change in ad engagement.",
			reasoning,
			g.confidence(cpc.delta, recent.Series(summary.MetricCPC), prior.Series(summary.MetricCPC), cpc.prior),
			signals.CPCUp, signals.CTRFlat)
	}

	if revenue.dir == summary.Down && clicks.dir == summary.Flat {
		reasoning := fmt.Sprintf("Revenue fell from %.2f to %.2f (%s) while clicks changed by only %s.",
			revenue.prior, revenue.recent, pct(revenue.delta), pct(clicks.delta))
		sigs := []signals.Signal{signals.RevenueDropWithoutClickDrop}
		if days := zeroRevenueDays(recent); days > 0 {
			reasoning += fmt.Sprintf(" %d recent day(s) report spend with zero revenue.", days)
			sigs = append(sigs, signals.SuddenZeroValues)
		}
		b.add("h_tracking_issue",
			"A conversion tracking or attribution gap is suppressing reported revenue while traffic is unchanged.",
			reasoning,
			g.confidence(revenue.delta, recent.Series(summary.MetricRevenue), prior.Series(summary.MetricRevenue), revenue.prior),
			sigs...)
	}
}

// roasDriver picks the dominant co-moving explanation for a ROAS decline.
func roasDriver(spend, ctr, cpc change) (string, []signals.Signal) {
	switch {
	case spend.dir == summary.Up:
		return "ROAS declined because increased spend was scaled into lower-return inventory.",
			[]signals.Signal{signals.SpendUp, signals.RevenueDownOrSpendUp}
	case ctr.dir == summary.Down:
		return "ROAS declined because weaker ad engagement reduced the share of impressions that turn into clicks.",
			[]signals.Signal{signals.CTRDown}
	case cpc.dir == summary.Up:
		return "ROAS declined because rising traffic costs made each click more expensive.",
			[]signals.Signal{signals.CPCUp}
	}
	return "ROAS declined because post-click conversion efficiency fell while traffic held steady.", nil
}

func coMoving(spend, ctr, cpc, revenue change) []signals.Signal {
	var out []signals.Signal
	switch spend.dir {
	case summary.Up:
		out = append(out, signals.SpendUp)
	case summary.Flat:
		out = append(out, signals.SpendFlat)
	}
	switch ctr.dir {
	case summary.Down:
		out = append(out, signals.CTRDown)
	case summary.Flat:
		out = append(out, signals.CTRFlat)
	}
	if cpc.dir == summary.Up {
		out = append(out, signals.CPCUp)
	}
	if revenue.dir == summary.Down {
		out = append(out, signals.RevenueDown)
	}
	return out
}

type campaignDrop struct {
	campaign summary.CampaignBreakdown
	roas     change
	ctr      change
}

// campaignROASDrops returns campaigns whose ROAS fell and how many campaigns
// could be compared at all.
func (g *Generator) campaignROASDrops(s *summary.PerformanceSummary) ([]campaignDrop, int) {
	var drops []campaignDrop
	compared := 0
	for _, c := range s.Campaigns {
		if c.Prior == nil {
			continue
		}
		roas := g.compare(c.Recent, *c.Prior, summary.MetricROAS)
		if !roas.ok {
			continue
		}
		compared++
		if roas.dir == summary.Down {
			drops = append(drops, campaignDrop{campaign: c, roas: roas, ctr: g.compare(c.Recent, *c.Prior, summary.MetricCTR)})
		}
	}
	return drops, compared
}

func (g *Generator) campaignRules(b *builder, s *summary.PerformanceSummary, a analysis) {
	drops, compared := g.campaignROASDrops(s)
	if len(drops) == 0 || 2*len(drops) >= compared {
		return
	}

	accountDown := a.account[summary.MetricROAS].dir == summary.Down
	for _, d := range drops {
		name := label(d.campaign.Name())
		reasoning := fmt.Sprintf("Campaign %q ROAS fell from %.2f to %.2f (%s) while %d of %d compared campaigns held up.",
			name, d.roas.prior, d.roas.recent, pct(d.roas.delta), compared-len(drops), compared)
		sigs := []signals.Signal{signals.CampaignROASDown}
		if accountDown {
			sigs = append(sigs, signals.ROASDown)
		}
		b.add("h_campaign_"+slug(d.campaign.Name()),
			fmt.Sprintf("A campaign-specific change such as targeting or offer setup in %q is driving its ROAS decline rather than an account-wide shift.", name),
			reasoning,
			g.confidence(d.roas.delta, nil, nil, d.roas.prior),
			sigs...)
	}

	if len(drops) < 2 {
		return
	}
	token, ok := sharedPlatform(drops, s.Campaigns)
	if !ok {
		return
	}
	var sum float64
	ctrDown := true
	for _, d := range drops {
		sum += d.roas.delta
		ctrDown = ctrDown && d.ctr.dir == summary.Down
	}
	mean := sum / float64(len(drops))
	sigs := []signals.Signal{signals.PlatformROASChange}
	if ctrDown {
		sigs = append(sigs, signals.PlatformCTRChange)
	}
	b.add("h_platform_"+token,
		fmt.Sprintf("Delivery conditions on %s are depressing returns for the campaigns that run there.", capitalize(token)),
		fmt.Sprintf("All %d campaigns with a localized ROAS decline run on %s, with an average ROAS change of %s.",
			len(drops), capitalize(token), pct(mean)),
		g.confidence(mean, nil, nil, 0),
		sigs...)
}

// sharedPlatform returns the platform token present in every dropped campaign
// name but not in every campaign overall.
func sharedPlatform(drops []campaignDrop, all []summary.CampaignBreakdown) (string, bool) {
	for _, token := range platformTokens {
		inDrops := true
		for _, d := range drops {
			if !hasToken(d.campaign.Name(), token) {
				inDrops = false
				break
			}
		}
		if !inDrops {
			continue
		}
		for _, c := range all {
			if !hasToken(c.Name(), token) {
				return token, true
			}
		}
	}
	return "", false
}

func hasToken(name, token string) bool {
	for _, part := range strings.Split(slug(name), "_") {
		if part == token {
			return true
		}
	}
	return false
}

func (g *Generator) creativeRules(b *builder, a analysis) {
	accountCTRDown := a.account[summary.MetricCTR].dir == summary.Down

	for _, d := range a.typeDrops {
		name := label(d.name)
		sigs := []signals.Signal{signals.CreativeCTRDown}
		if accountCTRDown {
			sigs = append(sigs, signals.CTRDown)
		}
		b.add("h_creative_"+slug(d.name),
			fmt.Sprintf("Creative fatigue in %q ads is driving the CTR decline for that format.", name),
			fmt.Sprintf("CTR for creative type %q fell from %s to %s (%s) while other creative types stayed within %s.",
				name, pctValue(d.ctr.prior), pctValue(d.ctr.recent), pct(d.ctr.delta), pctValue(g.cfg.FlatTolerance)),
			g.confidence(d.ctr.delta, nil, nil, d.ctr.prior),
			sigs...)
	}

	for _, d := range a.messageDrops {
		name := label(d.name)
		b.add("h_message_"+slug(d.name),
			fmt.Sprintf("The %q message no longer matches what the audience responds to, which lowers CTR for creatives that carry it.", name),
			fmt.Sprintf("CTR for creative message %q fell from %s to %s (%s) while other messages stayed within %s.",
				name, pctValue(d.ctr.prior), pctValue(d.ctr.recent), pct(d.ctr.delta), pctValue(g.cfg.FlatTolerance)),
			g.confidence(d.ctr.delta, nil, nil, d.ctr.prior),
			signals.CreativeMessageCTRDown)
	}
}

// lowCTRRule is the only rule that needs no prior window.
func (g *Generator) lowCTRRule(b *builder, s *summary.PerformanceSummary) {
	floor := g.cfg.LowCTRThreshold
	if floor <= 0 {
		return
	}
	type low struct {
		campaign summary.CampaignBreakdown
		ctr      float64
	}
	var lows []low
	for _, c := range s.Campaigns {
		if v, ok := c.Recent.Get(summary.MetricCTR); ok && v < floor {
			lows = append(lows, low{c, v})
		}
	}
	sort.SliceStable(lows, func(i, j int) bool { return lows[i].ctr < lows[j].ctr })

	for _, l := range lows {
		name := label(l.campaign.Name())
		shortfall := (l.ctr - floor) / floor
		b.add("h_low_ctr_"+slug(l.campaign.Name()),
			fmt.Sprintf("Creative or targeting in %q is failing to attract clicks, keeping CTR below the %s floor.", name, pctValue(floor)),
			fmt.Sprintf("Campaign %q has a recent CTR of %s against a floor of %s (%s).", name, pctValue(l.ctr), pctValue(floor), pct(shortfall)),
			g.confidence(shortfall, nil, nil, 0),
			signals.LowCTR, signals.LowClicks)
	}
}

func zeroRevenueDays(w *summary.Window) int {
	n := 0
	for _, d := range w.Daily {
		spend, sok := d.Metrics.Get(summary.MetricSpend)
		rev, rok := d.Metrics.Get(summary.MetricRevenue)
		if sok && rok && spend > 0 && rev == 0 {
			n++
		}
	}
	return n
}

func pct(delta float64) string { return fmt.Sprintf("%+.1f%%", delta*100) }

func pctValue(v float64) string { return fmt.Sprintf("%.2f%%", v*100) }

func describe(metric string, c change) string {
	if !c.ok {
		return metric + " was not reported in both windows"
	}
	switch c.dir {
	case summary.Up:
		return fmt.Sprintf("%s rose (%s)", metric, pct(c.delta))
	case summary.Down:
		return fmt.Sprintf("%s fell (%s)", metric, pct(c.delta))
	case summary.Flat:
		return fmt.Sprintf("%s was flat (%s)", metric, pct(c.delta))
	}
	return fmt.Sprintf("%s moved slightly (%s)", metric, pct(c.delta))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
