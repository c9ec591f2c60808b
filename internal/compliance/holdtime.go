// Package compliance computes holding-time compliance for lab results and
// flags results that duplicate already-imported history.
package compliance

import (
	_ "embed"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed holdtimes.yaml
var holdTimesYAML []byte

// HoldTimes is the maximum elapsed-days table keyed by canonical parameter.
type HoldTimes struct {
	maxDays map[string]float64
}

// ParseHoldTimes decodes a YAML holding-time table.
func ParseHoldTimes(data []byte) (*HoldTimes, error) {
	var f struct {
		HoldingTimes map[string]float64 `yaml:"holding_times"`
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "compliance: decode holding times")
	}
	h := &HoldTimes{maxDays: make(map[string]float64, len(f.HoldingTimes))}
	for name, days := range f.HoldingTimes {
		if days < 0 {
			return nil, eris.Errorf("compliance: negative holding time for %q", name)
		}
		h.maxDays[holdKey(name)] = days
	}
	return h, nil
}

var defaultHoldTimes = sync.OnceValues(func() (*HoldTimes, error) {
	return ParseHoldTimes(holdTimesYAML)
})

// DefaultHoldTimes returns the embedded holding-time table.
func DefaultHoldTimes() (*HoldTimes, error) {
	return defaultHoldTimes()
}

func holdKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Max returns the holding time in days for a canonical parameter name.
func (h *HoldTimes) Max(parameter string) (float64, bool) {
	if h == nil {
		return 0, false
	}
	d, ok := h.maxDays[holdKey(parameter)]
	return d, ok
}

// Len returns the number of parameters with a holding time.
func (h *HoldTimes) Len() int { return len(h.maxDays) }

// Sample carries the canonical dates of one result. Dates are YYYY-MM-DD;
// nil means absent.
type Sample struct {
	Parameter    string
	SampleDate   *string
	AnalysisDate *string
}

// HoldTime is the evaluated holding time of one result. ElapsedDays and
// Compliant are nil when a date is missing or the parameter has no limit.
type HoldTime struct {
	ElapsedDays *float64
	Compliant   *bool
	MaxDays     float64
}

// Violation reports whether the result is known to be out of compliance.
func (r HoldTime) Violation() bool {
	return r.Compliant != nil && !*r.Compliant
}

// Evaluate computes elapsed days as analysis date minus sample date, rounded
// to one decimal, and compliance against the parameter's limit. Clock times
// do not take part.
func (h *HoldTimes) Evaluate(s Sample) HoldTime {
	maxDays, ok := h.Max(s.Parameter)
	if !ok || s.SampleDate == nil || s.AnalysisDate == nil {
		return HoldTime{}
	}

	sampled, err := time.Parse(time.DateOnly, *s.SampleDate)
	if err != nil {
		return HoldTime{}
	}
	analyzed, err := time.Parse(time.DateOnly, *s.AnalysisDate)
	if err != nil {
		return HoldTime{}
	}

	elapsed := math.Round(analyzed.Sub(sampled).Hours()/24*10) / 10
	compliant := elapsed <= maxDays
	return HoldTime{ElapsedDays: &elapsed, Compliant: &compliant, MaxDays: maxDays}
}
