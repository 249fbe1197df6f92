package coerce

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"bankmerge/internal/cell"
	"bankmerge/internal/schema"
)

var (
	hmsRe      = regexp.MustCompile(`^\d{1,2}:\d{1,2}(:\d{1,2})?$`)
	fracSecRe  = regexp.MustCompile(`^(\d{1,2}:\d{1,2}:\d{1,2})\.\d+$`)
	fractionRe = regexp.MustCompile(`^0?\.\d+$`)
	cnClockRe  = regexp.MustCompile(`^(\d{1,2})\s*时\s*(?:(\d{1,2})\s*分)?\s*(?:(\d{1,2})\s*秒)?$`)
)

func coerceClock(v cell.Value) (any, error) {
	if v.Kind() == cell.KindTime {
		return v.Stamp().Format("15:04:05"), nil
	}
	if v.Kind() == cell.KindNumber {
		if f := v.Num(); f >= 0 && f < 1 {
			return dayFractionToClock(f), nil
		}
	}
	s := strings.TrimSpace(v.Text())
	if out, ok := parseClock(s); ok {
		return out, nil
	}
	return nil, &Error{Value: s, Target: schema.TypeTime, Cause: fmt.Errorf("unrecognized time")}
}

// parseClock normalizes s to "HH:MM:SS". Rules, tried in order: bare
// 4-digit HHMM, 5-digit HMMSS (single-digit hour), and 6-digit HHMMSS with
// 0–23/0–59/0–59 range checks; HH:MM[:SS]; 12-hour with meridiem;
// fractional seconds (truncated); an Excel day-fraction in [0,1); and
// Chinese H时M分S秒 text (minute/second optional). The first rule to match
// wins.
func parseClock(s string) (string, bool) {
	if allDigits(s) {
		switch len(s) {
		case 4:
			if clockInRange(s[:2], s[2:4], "00") {
				return s[:2] + ":" + s[2:4] + ":00", true
			}
		case 5:
			if clockInRange("0"+s[:1], s[1:3], s[3:5]) {
				return "0" + s[:1] + ":" + s[1:3] + ":" + s[3:5], true
			}
		case 6:
			if clockInRange(s[:2], s[2:4], s[4:6]) {
				return s[:2] + ":" + s[2:4] + ":" + s[4:6], true
			}
		}
		return "", false
	}

	if hmsRe.MatchString(s) {
		for _, layout := range []string{"15:4:5", "15:4"} {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format("15:04:05"), true
			}
		}
		// Matched the shape but failed range validation ("99:99"): do not
		// let later rules reinterpret it.
		return "", false
	}

	upper := strings.ToUpper(s)
	for _, layout := range []string{"3:4:5 PM", "3:4 PM", "3:4:5PM", "3:4PM"} {
		if t, err := time.Parse(layout, upper); err == nil {
			return t.Format("15:04:05"), true
		}
	}

	if m := fracSecRe.FindStringSubmatch(s); m != nil {
		if t, err := time.Parse("15:4:5", m[1]); err == nil {
			return t.Format("15:04:05"), true
		}
		return "", false
	}

	if fractionRe.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 && f < 1 {
			return dayFractionToClock(f), true
		}
	}

	if m := cnClockRe.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, second := 0, 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if m[3] != "" {
			second, _ = strconv.Atoi(m[3])
		}
		if hour <= 23 && minute <= 59 && second <= 59 {
			return fmt.Sprintf("%02d:%02d:%02d", hour, minute, second), true
		}
	}

	return "", false
}

// dayFractionToClock converts an Excel day-fraction (0.75 → 18:00:00) to a
// clock string, truncating sub-second precision.
func dayFractionToClock(f float64) string {
	total := int(f * 24 * 60 * 60)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

func clockInRange(hh, mm, ss string) bool {
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return false
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return false
	}
	second, err := strconv.Atoi(ss)
	if err != nil {
		return false
	}
	return hour <= 23 && minute <= 59 && second <= 59
}
