package compose

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultDatePattern is the date layout template authors get when they do
// not pass one, e.g. "4 March 2021".
const DefaultDatePattern = "d MMMM yyyy"

var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// FormatDate parses an ISO-8601 date string and renders it using a
// CLDR-style pattern ("d MMMM yyyy", "yyyy-MM-dd", ...). Available to
// template authors as the formatDate filter.
func FormatDate(dateStr string, pattern ...string) (string, error) {
	var parsed time.Time
	var err error
	for _, layout := range isoLayouts {
		parsed, err = time.Parse(layout, dateStr)
		if err == nil {
			break
		}
	}
	if err != nil {
		return "", fmt.Errorf("formatDate: %q is not an ISO-8601 date", dateStr)
	}

	p := DefaultDatePattern
	if len(pattern) > 0 && pattern[0] != "" {
		p = pattern[0]
	}

	return parsed.Format(patternToLayout(p)), nil
}

// patternToLayout translates a CLDR date pattern into a Go reference
// layout. Unknown letters pass through unchanged, as do separators.
func patternToLayout(pattern string) string {
	var b strings.Builder

	for i := 0; i < len(pattern); {
		c := pattern[i]
		n := 1
		for i+n < len(pattern) && pattern[i+n] == c {
			n++
		}

		switch {
		case c == 'y' && n >= 4:
			b.WriteString("2006")
		case c == 'y':
			b.WriteString("06")
		case c == 'M' && n >= 4:
			b.WriteString("January")
		case c == 'M' && n == 3:
			b.WriteString("Jan")
		case c == 'M' && n == 2:
			b.WriteString("01")
		case c == 'M':
			b.WriteString("1")
		case c == 'd' && n >= 2:
			b.WriteString("02")
		case c == 'd':
			b.WriteString("2")
		case c == 'E' && n >= 4:
			b.WriteString("Monday")
		case c == 'E':
			b.WriteString("Mon")
		case c == 'H':
			b.WriteString("15")
		case c == 'h' && n >= 2:
			b.WriteString("03")
		case c == 'h':
			b.WriteString("3")
		case c == 'm' && n >= 2:
			b.WriteString("04")
		case c == 'm':
			b.WriteString("4")
		case c == 's' && n >= 2:
			b.WriteString("05")
		case c == 's':
			b.WriteString("5")
		case c == 'a':
			b.WriteString("PM")
		default:
			b.WriteString(strings.Repeat(string(c), n))
		}

		i += n
	}

	return b.String()
}

// Ordinal formats a cardinal number as an English ordinal: 1 -> "1st",
// 3 -> "3rd", 10 -> "10th". Available to template authors as the ordinal
// filter. Accepts any integer-valued input a template may produce.
func Ordinal(number interface{}) (string, error) {
	n, err := toInt(number)
	if err != nil {
		return "", err
	}

	suffix := "th"
	// 11th, 12th and 13th break the last-digit rule.
	if rem := abs(n) % 100; rem < 11 || rem > 13 {
		switch abs(n) % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}

	return strconv.Itoa(n) + suffix, nil
}

func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("ordinal: %v is not an integer", n)
		}
		return int(n), nil
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("ordinal: %q is not an integer", n)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("ordinal: unsupported type %T", v)
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
