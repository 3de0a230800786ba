package metrics

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/xhad/esgx/internal/models"
)

// number pattern covers figures like 12,345.67
const number = `(-?\d[\d,]*\.?\d*)`

// units accepted near a value, to cut down on random matches
const units = `(tCO2e|tonnes CO2e|tons CO2e|t CO2e|metric tons CO2e|MtCO2e|ktCO2e)?`

var (
	scope1Pattern = regexp.MustCompile(`(?i)scope\s*1[^0-9\-+]*` + number + `\s*` + units)
	scope2Pattern = regexp.MustCompile(`(?i)scope\s*2[^0-9\-+]*` + number + `\s*` + units)
)

// ExtractScopeMetrics scans cleaned text for the first "Scope 1" and
// "Scope 2" mentions followed by a number and returns the raw matches.
func ExtractScopeMetrics(text string) models.ScopeMetrics {
	var out models.ScopeMetrics
	if text == "" {
		return out
	}

	if m := scope1Pattern.FindStringSubmatch(text); m != nil {
		v := m[1]
		out.Scope1 = &v
	}

	if m := scope2Pattern.FindStringSubmatch(text); m != nil {
		v := m[1]
		out.Scope2 = &v
	}

	return out
}

// ParseValue converts a matched figure to a float64, stripping thousands
// separators. Returns false when the text is not a usable number.
func ParseValue(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ScopeTotals sums the parseable Scope 1 and Scope 2 figures across a run's
// results. counted is the number of reports that contributed at least one
// figure; reports whose matches did not parse are excluded.
func ScopeTotals(results []models.Result) (scope1, scope2 float64, counted int) {
	for _, r := range results {
		contributed := false
		if r.Scope1 != nil {
			if v, ok := ParseValue(*r.Scope1); ok {
				scope1 += v
				contributed = true
			}
		}
		if r.Scope2 != nil {
			if v, ok := ParseValue(*r.Scope2); ok {
				scope2 += v
				contributed = true
			}
		}
		if contributed {
			counted++
		}
	}
	return scope1, scope2, counted
}
