package wod

import (
	"regexp"
	"time"
)

// The origin publishes one page per day at <origin>/<YYMMDD>.
var dateCodePattern = regexp.MustCompile(`/(\d{6})$`)

// DateFromURL extracts the 6-digit YYMMDD code anchored at the end of the
// URL path. It reports false for URLs that do not end in a date code.
func DateFromURL(url string) (string, bool) {
	m := dateCodePattern.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ParseDateCode converts a YYMMDD code to a calendar day, assuming the
// 2000s for the two-digit year. Invalid combinations (month 13, day 32)
// report false rather than panicking.
func ParseDateCode(code string) (time.Time, bool) {
	if len(code) != 6 {
		return time.Time{}, false
	}
	year, ok := atoi2(code[0:2])
	if !ok {
		return time.Time{}, false
	}
	month, ok := atoi2(code[2:4])
	if !ok {
		return time.Time{}, false
	}
	day, ok := atoi2(code[4:6])
	if !ok {
		return time.Time{}, false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(2000+year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (e.g. Feb 30 -> Mar 2); reject it.
	if t.Day() != day || t.Month() != time.Month(month) {
		return time.Time{}, false
	}
	return t, true
}

// FormatDateCode renders a day as the origin's YYMMDD code.
func FormatDateCode(t time.Time) string {
	return t.Format("060102")
}

func atoi2(s string) (int, bool) {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
