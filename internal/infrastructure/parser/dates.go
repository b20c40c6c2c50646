package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var frenchMonths = map[string]time.Month{
	"janvier":   time.January,
	"février":   time.February,
	"fevrier":   time.February,
	"mars":      time.March,
	"avril":     time.April,
	"mai":       time.May,
	"juin":      time.June,
	"juillet":   time.July,
	"août":      time.August,
	"aout":      time.August,
	"septembre": time.September,
	"octobre":   time.October,
	"novembre":  time.November,
	"décembre":  time.December,
	"decembre":  time.December,
}

var weekdayExpr = regexp.MustCompile(`(?i)\b(lundi|mardi|mercredi|jeudi|vendredi|samedi|dimanche)\b`)

var numericDateExpr = regexp.MustCompile(`(\d{1,2})[/.-](\d{1,2})[/.-](\d{4})`)

var textualDateExpr = regexp.MustCompile(`(?i)(\d{1,2}|1er)\s+([a-zéûô]+)\s+(\d{4})`)

// ParseFrenchDate extracts a publication date from free-form French text
// such as "publié le lundi 1er août 2025" or "12/03/2025".
func ParseFrenchDate(text string) (time.Time, error) {
	cleaned := strings.TrimSpace(weekdayExpr.ReplaceAllString(text, ""))
	cleaned = strings.ReplaceAll(cleaned, "1er", "1")

	if m := textualDateExpr.FindStringSubmatch(cleaned); m != nil {
		month, ok := frenchMonths[strings.ToLower(m[2])]
		if ok {
			var day, year int
			fmt.Sscanf(m[1], "%d", &day)
			fmt.Sscanf(m[3], "%d", &year)
			if day >= 1 && day <= 31 {
				return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), nil
			}
		}
	}

	if m := numericDateExpr.FindStringSubmatch(cleaned); m != nil {
		var day, month, year int
		fmt.Sscanf(m[1], "%d", &day)
		fmt.Sscanf(m[2], "%d", &month)
		fmt.Sscanf(m[3], "%d", &year)
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
		}
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, strings.TrimSpace(text)); err == nil {
			return ts, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", text)
}
