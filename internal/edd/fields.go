package edd

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// excelEpoch is day zero of the 1900 date system as Excel counts it
// (1899-12-30, absorbing the fictitious 1900-02-29).
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

const maxExcelSerial = 2958465 // 9999-12-31

var (
	usDateRe   = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4}|\d{2})(?:[ T].*)?$`)
	isoDateRe  = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})`)
	colonRe    = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::(\d{2}))?$`)
	compactRe  = regexp.MustCompile(`^(\d{1,2})(\d{2})$`)
	meridiemRe = regexp.MustCompile(`(?i)\s*([ap])\.?m\.?$`)
	groupedRe  = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d+)?$`)
)

// ParseDate canonicalizes a date cell to YYYY-MM-DD. It accepts M/D/YYYY,
// M/D/YY (20YY), ISO-prefixed strings and Excel serial numbers. An empty
// cell yields (nil, true); an unparseable one yields (nil, false).
func ParseDate(raw string) (*string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, true
	}

	if m := isoDateRe.FindStringSubmatch(s); m != nil {
		return civilDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}

	if m := usDateRe.FindStringSubmatch(s); m != nil {
		year := atoi(m[3])
		if len(m[3]) == 2 {
			year += 2000
		}
		return civilDate(year, atoi(m[1]), atoi(m[2]))
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if f < 1 || f > maxExcelSerial || math.IsNaN(f) {
			return nil, false
		}
		d := excelEpoch.AddDate(0, 0, int(math.Floor(f))).Format(time.DateOnly)
		return &d, true
	}

	return nil, false
}

func civilDate(year, month, day int) (*string, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return nil, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes Feb 30 into March; reject instead.
	if t.Day() != day || int(t.Month()) != month {
		return nil, false
	}
	d := t.Format(time.DateOnly)
	return &d, true
}

// ParseTime canonicalizes a time cell to 24-hour HH:MM. It accepts H:MM,
// HH:MM[:SS], HHMM, HMM, an optional AM/PM suffix, a trailing time after a
// date, and Excel fractional-day serials in [0, 1).
func ParseTime(raw string) (*string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, true
	}

	meridiem := ""
	if m := meridiemRe.FindStringSubmatch(s); m != nil {
		meridiem = strings.ToLower(m[1])
		s = strings.TrimSpace(s[:len(s)-len(m[0])])
	}
	// "3/1/2024 08:30" and "2024-03-01T08:30" carry the time last.
	if i := strings.LastIndexAny(s, " T"); i >= 0 {
		s = s[i+1:]
	}

	var hour, minute int
	switch {
	case colonRe.MatchString(s):
		m := colonRe.FindStringSubmatch(s)
		hour, minute = atoi(m[1]), atoi(m[2])
	case compactRe.MatchString(s):
		m := compactRe.FindStringSubmatch(s)
		hour, minute = atoi(m[1]), atoi(m[2])
	default:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || meridiem != "" || f < 0 || f >= 1 || math.IsNaN(f) {
			return nil, false
		}
		// Fractions that round up to a full day stay on the same day.
		total := min(int(math.Round(f*24*60)), 24*60-1)
		hour, minute = total/60, total%60
	}

	if meridiem != "" {
		if hour < 1 || hour > 12 {
			return nil, false
		}
		hour %= 12
		if meridiem == "p" {
			hour += 12
		}
	}
	if hour > 23 || minute > 59 {
		return nil, false
	}
	t := fmt.Sprintf("%02d:%02d", hour, minute)
	return &t, true
}

// nullValues mark a result cell as "not sampled" or "not reported".
var nullValues = map[string]bool{"": true, "NS": true, "NR": true}

// belowDetectionQualifiers are lab qualifiers meaning "less than detection".
var belowDetectionQualifiers = map[string]bool{"<": true, "U": true, "ND": true, "BDL": true}

// ParsedValue is the canonical form of a result cell and its qualifier.
type ParsedValue struct {
	Value          *float64
	BelowDetection bool
	Qualifier      *string
	// Valid is false when the cell held unrecognized non-numeric text.
	Valid bool
}

// ParseValue resolves a result cell together with the separate qualifier
// column. An inline "<" or ">" prefix wins over the qualifier column.
func ParseValue(raw, qualifier string) ParsedValue {
	s := strings.TrimSpace(raw)
	q := strings.TrimSpace(qualifier)

	withColumn := func(v *float64) ParsedValue {
		pv := ParsedValue{Value: v, Valid: true}
		if q != "" {
			pv.Qualifier = &q
			pv.BelowDetection = belowDetectionQualifiers[strings.ToUpper(q)]
		}
		return pv
	}

	if nullValues[strings.ToUpper(s)] {
		return withColumn(nil)
	}

	if s[0] == '<' || s[0] == '>' {
		if f, ok := parseNumber(strings.TrimLeft(s[1:], "= ")); ok {
			prefix := s[:1]
			return ParsedValue{Value: &f, BelowDetection: prefix == "<", Qualifier: &prefix, Valid: true}
		}
	}

	if f, ok := parseNumber(s); ok {
		return withColumn(&f)
	}

	// Non-numeric text: keep whatever qualifies it for diagnostics.
	if q == "" {
		q = s
	}
	pv := withColumn(nil)
	pv.Valid = belowDetectionQualifiers[strings.ToUpper(s)]
	return pv
}

// parseNumber parses a decimal number, accepting thousands separators and
// rejecting NaN and infinities.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if strings.Contains(s, ",") {
		if !groupedRe.MatchString(s) {
			return 0, false
		}
		s = strings.ReplaceAll(s, ",", "")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
