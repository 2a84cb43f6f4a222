// Package signals holds the controlled vocabulary of expected-signal names
// shared between the Insight Agent and the Evaluator Agent.
//
// The vocabulary is versioned. Both sides must agree on the version before a
// batch is exchanged; a signal outside the vocabulary is a contract violation
// on the producing side, never something the Evaluator is asked to guess at.
package signals

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"adinsight/domain/core"

	"gopkg.in/yaml.v3"
)

// Signal is a machine-checkable condition name, e.g. "roas_down".
type Signal string

func (s Signal) String() string { return string(s) }

// DefaultVersion is the version of the built-in vocabulary.
const DefaultVersion = "v1"

// Built-in signal names.
const (
	ROASDown        Signal = "roas_down"
	ROASUp          Signal = "roas_up"
	CTRDown         Signal = "ctr_down"
	CTRUp           Signal = "ctr_up"
	CTRFlat         Signal = "ctr_flat"
	SpendUp         Signal = "spend_up"
	SpendDown       Signal = "spend_down"
	SpendFlat       Signal = "spend_flat"
	CPCUp           Signal = "cpc_up"
	CPMUp           Signal = "cpm_up"
	RevenueDown     Signal = "revenue_down"
	ImpressionsFlat Signal = "impressions_flat"
	FrequencyUp     Signal = "frequency_up"

	RevenueDownOrSpendUp        Signal = "revenue_down_or_spend_up"
	RevenueDropWithoutClickDrop Signal = "revenue_drop_without_click_drop"
	SuddenZeroValues            Signal = "sudden_zero_values"
	CampaignROASDown            Signal = "campaign_roas_down"
	PlatformROASChange          Signal = "platform_roas_change"
	PlatformCTRChange           Signal = "platform_ctr_change"
	CreativeCTRDown             Signal = "creative_ctr_down"
	CreativeMessageCTRDown      Signal = "creative_message_ctr_down"
	LowCTR                      Signal = "low_ctr"
	LowClicks                   Signal = "low_clicks"
	LowConversionRate           Signal = "low_conversion_rate"
)

var builtin = []Entry{
	{ROASDown, "Recent-window ROAS below prior-window ROAS"},
	{ROASUp, "Recent-window ROAS above prior-window ROAS"},
	{CTRDown, "Recent-window CTR below prior-window CTR"},
	{CTRUp, "Recent-window CTR above prior-window CTR"},
	{CTRFlat, "CTR unchanged between windows within tolerance"},
	{SpendUp, "Recent-window spend above prior-window spend"},
	{SpendDown, "Recent-window spend below prior-window spend"},
	{SpendFlat, "Spend unchanged between windows within tolerance"},
	{CPCUp, "Recent-window cost per click above prior window"},
	{CPMUp, "Recent-window cost per mille above prior window"},
	{RevenueDown, "Recent-window revenue below prior-window revenue"},
	{ImpressionsFlat, "Impressions unchanged or lower between windows"},
	{FrequencyUp, "Average impressions per reached user increased"},
	{RevenueDownOrSpendUp, "Revenue decreased or spend increased between windows"},
	{RevenueDropWithoutClickDrop, "Revenue fell while clicks stayed flat"},
	{SuddenZeroValues, "Days with spend but zero revenue in the recent window"},
	{CampaignROASDown, "ROAS decline concentrated in named campaigns"},
	{PlatformROASChange, "ROAS change concentrated on one platform"},
	{PlatformCTRChange, "CTR change concentrated on one platform"},
	{CreativeCTRDown, "CTR decline concentrated in one creative type"},
	{CreativeMessageCTRDown, "CTR decline concentrated in one creative message"},
	{LowCTR, "Campaign CTR below the configured floor"},
	{LowClicks, "Campaign click volume below expectations"},
	{LowConversionRate, "Conversions per click below expectations"},
}

var namePattern = regexp.MustCompile(`^[a-z][a-z0-9]*(_[a-z0-9]+)*$`)

// Entry is one vocabulary item.
type Entry struct {
	Name        Signal `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// Vocabulary is an immutable, versioned set of signal names.
type Vocabulary struct {
	version string
	entries map[Signal]string
}

// Default returns the built-in vocabulary.
func Default() *Vocabulary {
	v, err := New(DefaultVersion, builtin)
	if err != nil {
		panic(fmt.Sprintf("built-in vocabulary is invalid: %v", err))
	}
	return v
}

// New builds a vocabulary, rejecting empty versions, malformed or duplicated names.
func New(version string, entries []Entry) (*Vocabulary, error) {
	version = strings.TrimSpace(version)
	if version == "" {
		return nil, fmt.Errorf("%w: version is required", core.ErrInvalidVocabulary)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no signals defined", core.ErrInvalidVocabulary)
	}

	m := make(map[Signal]string, len(entries))
	for i, e := range entries {
		if !namePattern.MatchString(string(e.Name)) {
			return nil, fmt.Errorf("%w: signal %d name %q is not snake_case", core.ErrInvalidVocabulary, i, e.Name)
		}
		if _, dup := m[e.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate signal %q", core.ErrInvalidVocabulary, e.Name)
		}
		m[e.Name] = e.Description
	}
	return &Vocabulary{version: version, entries: m}, nil
}

// vocabularyFile is the YAML layout of a vocabulary override.
type vocabularyFile struct {
	Version string  `yaml:"version"`
	Signals []Entry `yaml:"signals"`
}

// Load reads a vocabulary from a YAML file.
func Load(path string) (*Vocabulary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes a YAML vocabulary document.
func Parse(raw []byte) (*Vocabulary, error) {
	var f vocabularyFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidVocabulary, err)
	}
	return New(f.Version, f.Signals)
}

// Version returns the vocabulary version.
func (v *Vocabulary) Version() string { return v.version }

// Contains reports whether s is part of the vocabulary.
func (v *Vocabulary) Contains(s Signal) bool {
	_, ok := v.entries[s]
	return ok
}

// Describe returns the description of s.
func (v *Vocabulary) Describe(s Signal) (string, bool) {
	d, ok := v.entries[s]
	return d, ok
}

// Names returns every signal in sorted order.
func (v *Vocabulary) Names() []Signal {
	out := make([]Signal, 0, len(v.entries))
	for s := range v.entries {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Entries returns every entry in sorted order.
func (v *Vocabulary) Entries() []Entry {
	names := v.Names()
	out := make([]Entry, len(names))
	for i, n := range names {
		out[i] = Entry{Name: n, Description: v.entries[n]}
	}
	return out
}

// Document is the serializable form published to the Evaluator side.
type Document struct {
	Version string  `json:"version" yaml:"version"`
	Signals []Entry `json:"signals" yaml:"signals"`
}

// Document returns the vocabulary in its published form.
func (v *Vocabulary) Document() Document {
	return Document{Version: v.version, Signals: v.Entries()}
}
