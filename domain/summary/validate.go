package summary

import (
	"errors"
	"fmt"
	"strings"

	"adinsight/domain/core"
)

func newMissingMetric(scope, name string) error { return core.NewMissingMetricError(scope, name) }

func newInvalidMetric(scope, name string, v float64) error {
	return core.NewInvalidMetricError(scope, name, v)
}

// Validate checks the input contract. Every problem is reported; nothing is
// defaulted. The returned error matches core.ErrInputContract.
func (s *PerformanceSummary) Validate() error {
	if s == nil {
		return core.NewMissingWindowError("summary")
	}

	var errs []error
	if s.Windows.Recent == nil {
		errs = append(errs, core.NewMissingWindowError("windows."+WindowRecent))
	} else {
		errs = append(errs, validateWindow("windows."+WindowRecent, s.Windows.Recent)...)
	}
	if s.Windows.Prior != nil {
		errs = append(errs, validateWindow("windows."+WindowPrior, s.Windows.Prior)...)
	}

	for i, c := range s.Campaigns {
		scope := fmt.Sprintf("campaigns[%d]", i)
		if strings.TrimSpace(c.Name()) == "" {
			errs = append(errs, fmt.Errorf("%w: %s has neither campaign_id nor campaign_name", core.ErrInputContract, scope))
		}
		errs = append(errs, validateMetrics(scope+".recent", c.Recent, nil)...)
		if c.Prior != nil {
			errs = append(errs, validateMetrics(scope+".prior", *c.Prior, nil)...)
		}
	}

	for i, c := range s.Creatives {
		scope := fmt.Sprintf("creatives[%d]", i)
		if strings.TrimSpace(c.CreativeType) == "" && strings.TrimSpace(c.CreativeMessage) == "" {
			errs = append(errs, fmt.Errorf("%w: %s has neither creative_type nor creative_message", core.ErrInputContract, scope))
		}
		errs = append(errs, validateMetrics(scope+".recent", c.Recent, nil)...)
		if c.Prior != nil {
			errs = append(errs, validateMetrics(scope+".prior", *c.Prior, nil)...)
		}
	}

	return errors.Join(errs...)
}

func validateWindow(scope string, w *Window) []error {
	errs := validateMetrics(scope+".metrics", w.Metrics, RequiredMetrics)
	for i, d := range w.Daily {
		dscope := fmt.Sprintf("%s.daily[%d]", scope, i)
		if strings.TrimSpace(d.Date) == "" {
			errs = append(errs, fmt.Errorf("%w: %s.date is required", core.ErrInputContract, dscope))
		}
		errs = append(errs, validateMetrics(dscope, d.Metrics, nil)...)
	}
	return errs
}
