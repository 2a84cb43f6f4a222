package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"adinsight/internal/adforensics"
)

func main() {
	out := flag.String("out", "ad_performance_summary.json", "output file path (.json, .yaml or .xlsx)")
	scenario := flag.String("scenario", adforensics.ScenarioROASDrop, fmt.Sprintf("planted scenario: %v, or all", adforensics.Scenarios()))
	days := flag.Int("days", 7, "days per window")
	seed := flag.Int64("seed", 42, "RNG seed (deterministic)")
	start := flag.String("start", "2025-01-01", "start date of the first window (YYYY-MM-DD)")
	noise := flag.Float64("noise", 0.02, "relative daily noise")
	noDaily := flag.Bool("no-daily", false, "omit daily series")
	flag.Parse()

	if *days <= 0 {
		fmt.Fprintln(os.Stderr, "days must be > 0")
		os.Exit(2)
	}

	startDate, err := time.ParseInLocation("2006-01-02", *start, time.UTC)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid -start (expected YYYY-MM-DD):", err)
		os.Exit(2)
	}

	// "all" writes one file per scenario next to -out
	targets := map[string]string{*scenario: *out}
	if *scenario == "all" {
		targets = make(map[string]string)
		ext := filepath.Ext(*out)
		base := (*out)[:len(*out)-len(ext)]
		for _, name := range adforensics.Scenarios() {
			targets[name] = fmt.Sprintf("%s_%s%s", base, name, ext)
		}
	}

	for name, path := range targets {
		cfg := adforensics.DefaultConfig()
		cfg.Scenario = name
		cfg.Days = *days
		cfg.Seed = *seed
		cfg.StartDate = startDate
		cfg.Noise = *noise
		cfg.WithDaily = !*noDaily

		s, err := adforensics.Generate(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, "error generating summary:", err)
			os.Exit(1)
		}
		if err := adforensics.Write(path, s); err != nil {
			fmt.Fprintln(os.Stderr, "error writing summary:", err)
			os.Exit(1)
		}
		fmt.Printf("Synthetic summary created: %s (scenario %s, %d campaigns, %d creatives)\n",
			path, name, len(s.Campaigns), len(s.Creatives))
	}
}
