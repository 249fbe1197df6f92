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

var cnDateRe = regexp.MustCompile(`^(\d{4})年(\d{1,2})月(\d{1,2})日$`)

// yearFirstLayouts prefer year-leading (and US month-leading) readings;
// dayFirstLayouts are the second pass for day-leading exports. Single-digit
// layout elements also accept two digits, so one lenient layout covers both
// "2021-6-1" and "2021-06-01".
var (
	yearFirstLayouts = []string{
		"2006-1-2",
		"2006/1/2",
		"2006.1.2",
		"2006-1-2 15:4:5",
		"2006/1/2 15:4:5",
		"1/2/2006",
		"1-2-2006",
		"2 Jan 2006",
		"Jan 2, 2006",
	}
	dayFirstLayouts = []string{
		"2/1/2006",
		"2-1-2006",
		"2.1.2006",
		"2/1/2006 15:4:5",
		"2-Jan-2006",
	}
)

func coerceDate(v cell.Value) (any, error) {
	if v.Kind() == cell.KindTime {
		return v.Stamp().Format("2006-01-02"), nil
	}
	s := strings.TrimSpace(v.Text())
	if out, ok := parseDate(s); ok {
		return out, nil
	}
	return nil, &Error{Value: s, Target: schema.TypeDate, Cause: fmt.Errorf("unrecognized date")}
}

// parseDate normalizes s to "YYYY-MM-DD". Recognized forms, in order:
// bare 6-digit YYMMDD (century inferred: yy < 50 → 2000s, else 1900s),
// bare 8-digit YYYYMMDD, Chinese-locale NNNN年MM月DD日, then the flexible
// layout table tried year-first and again day-first. The numeric forms check
// month/day ranges (1–12, 1–31) only; they are not calendar-aware.
func parseDate(s string) (string, bool) {
	s = stripFloatArtifact(s)

	if len(s) == 6 && allDigits(s) {
		yy, _ := strconv.Atoi(s[:2])
		if ok := monthDayInRange(s[2:4], s[4:6]); ok {
			year := 1900 + yy
			if yy < 50 {
				year = 2000 + yy
			}
			return fmt.Sprintf("%04d-%s-%s", year, s[2:4], s[4:6]), true
		}
	}

	if len(s) == 8 && allDigits(s) {
		if monthDayInRange(s[4:6], s[6:8]) {
			return s[:4] + "-" + s[4:6] + "-" + s[6:8], true
		}
	}

	if m := cnDateRe.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return fmt.Sprintf("%s-%02d-%02d", m[1], month, day), true
		}
	}

	for _, layout := range yearFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return "", false
}

// stripFloatArtifact removes a trailing ".0" left behind when a spreadsheet
// serializes a numeric date cell (e.g. "20210610.0").
func stripFloatArtifact(s string) string {
	if base, ok := strings.CutSuffix(s, ".0"); ok && allDigits(base) {
		return base
	}
	return s
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func monthDayInRange(mm, dd string) bool {
	month, err := strconv.Atoi(mm)
	if err != nil {
		return false
	}
	day, err := strconv.Atoi(dd)
	if err != nil {
		return false
	}
	return month >= 1 && month <= 12 && day >= 1 && day <= 31
}
