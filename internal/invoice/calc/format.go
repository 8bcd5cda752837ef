package calc

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatIndian renders d rounded to places with Indian digit grouping,
// e.g. 1234567.5 with 2 places -> "12,34,567.50".
func FormatIndian(d decimal.Decimal, places int32) string {
	s := d.StringFixed(places)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	intPart, frac, hasFrac := strings.Cut(s, ".")
	if len(intPart) > 3 {
		head, tail := intPart[:len(intPart)-3], intPart[len(intPart)-3:]
		var groups []string
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		intPart = strings.Join(groups, ",") + "," + tail
	}

	if hasFrac {
		return sign + intPart + "." + frac
	}
	return sign + intPart
}
