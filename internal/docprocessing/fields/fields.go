// Package fields holds the pattern matchers that pull single values out of
// raw challan text. Every extractor is a pure function of its input.
package fields

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/luminary/luminary-backend/internal/docprocessing/domain"
)

var (
	// 1-2 digit day and month, 4 or 2 digit year, separated by / - or .
	reDate = regexp.MustCompile(`\d{1,2}[/.\-]\d{1,2}[/.\-](?:\d{4}|\d{2})`)

	// Indian registration plates: MH12FZ9334, mh 12 fz 9334, MH-12-F-9334
	reVehicle = regexp.MustCompile(`(?i)[A-Z]{2}[ \-]?[0-9]{1,2}[ \-]?[A-Z]{1,2}[ \-]?[0-9]{4}`)

	// 15,920 KG / 2890kg / 12.5 MT
	reQuantity = regexp.MustCompile(`(?i)(\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?)\s*(KG|TON|MT)`)

	reWhitespace = regexp.MustCompile(`\s+`)
)

const fireWoodKeyword = "fire wood"

// Date returns the leftmost date-like token, or now formatted DD/MM/YYYY.
func Date(text string, now time.Time) string {
	if m := reDate.FindString(text); m != "" {
		return m
	}
	return now.Format(domain.DateLayout)
}

// VehicleNo returns the first plate found, uppercased with whitespace
// removed. Hyphens are kept as written.
func VehicleNo(text string) string {
	m := reVehicle.FindString(text)
	if m == "" {
		return ""
	}
	return reWhitespace.ReplaceAllString(strings.ToUpper(m), "")
}

// Quantity returns the first number followed by a KG, TON or MT unit.
// Without a match it returns 0 and KG.
func Quantity(text string) (float64, string) {
	m := reQuantity.FindStringSubmatch(text)
	if m == nil {
		return 0, domain.DefaultUnit
	}

	qty, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0, domain.DefaultUnit
	}
	return qty, strings.ToUpper(m[2])
}

// Description returns Fire Wood when the text mentions "fire wood" in any
// case, and Biomass Briquettes otherwise.
func Description(text string) string {
	if strings.Contains(strings.ToLower(text), fireWoodKeyword) {
		return domain.DescriptionFireWood
	}
	return domain.DescriptionBriquettes
}
