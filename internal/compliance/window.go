package compliance

import (
	"sort"
	"strings"
	"time"
)

// Window scopes the existing-results lookup used to build a DuplicateIndex.
// Either From/To bound a contiguous date range or Dates lists the exact
// sample dates to load.
type Window struct {
	Permits []string
	From    string
	To      string
	Dates   []string
}

// Empty reports whether the lookup can be skipped entirely.
func (w Window) Empty() bool {
	return len(w.Permits) == 0 || (w.From == "" && len(w.Dates) == 0)
}

// Exact reports whether the window lists discrete dates instead of a range.
func (w Window) Exact() bool { return len(w.Dates) > 0 }

// PlanWindow builds the lookup window for the permits and sample dates found
// in a file. When the dates span more than maxSpanDays the window falls back
// to the exact set of dates, so a stray date years away from the rest does
// not pull in the whole history. A non-positive maxSpanDays disables the
// fallback.
func PlanWindow(permits, dates []string, maxSpanDays int) Window {
	w := Window{Permits: distinctSorted(permits, strings.ToUpper)}
	ds := distinctSorted(dates, nil)
	if len(ds) == 0 {
		return w
	}

	from, to := ds[0], ds[len(ds)-1]
	if maxSpanDays > 0 && spanDays(from, to) > maxSpanDays {
		w.Dates = ds
		return w
	}
	w.From, w.To = from, to
	return w
}

func spanDays(from, to string) int {
	a, err := time.Parse(time.DateOnly, from)
	if err != nil {
		return 0
	}
	b, err := time.Parse(time.DateOnly, to)
	if err != nil {
		return 0
	}
	return int(b.Sub(a).Hours() / 24)
}

func distinctSorted(in []string, fold func(string) string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if fold != nil {
			s = fold(s)
		}
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
