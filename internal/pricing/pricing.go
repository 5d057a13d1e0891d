// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package pricing parses the free-form price strings used on listings
// ("€12,500 / week", "From $3,200 per night", "Price on request") into
// comparable amounts and renders them back in the visitor's language.
package pricing

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Period is the billing period a price applies to.
type Period string

// Known periods.
const (
	PerNight   Period = "night"
	PerDay     Period = "day"
	PerWeek    Period = "week"
	PerMonth   Period = "month"
	PerCharter Period = "charter"
)

// DefaultCurrency is assumed when a price names no currency.
const DefaultCurrency = "EUR"

// weeksPerMonth is the average number of weeks in a month.
const weeksPerMonth = 4.345

// ErrNoAmount is returned when a price string has no recognizable number.
var ErrNoAmount = errors.New("pricing: no amount in price string")

// Price is a parsed price string.
type Price struct {
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	Period    Period  `json:"period"`
	From      bool    `json:"from,omitempty"`
	OnRequest bool    `json:"on_request,omitempty"`
	Raw       string  `json:"raw"`
}

var (
	onRequestRegex = regexp.MustCompile(`(?i)\b(on request|upon request|poa|p\.o\.a\.?|sur demande|su richiesta|tbc)\b`)
	fromRegex      = regexp.MustCompile(`(?i)^\s*(from|starting at|starting from|à partir de|a partir de|da)\b`)
	isoRegex       = regexp.MustCompile(`(?i)\b(EUR|USD|GBP|CHF|AED)\b`)
	amountRegex    = regexp.MustCompile(`(\d(?:[\d.,' \x{00A0}\x{2019}]*\d)?)([kKmM]\b)?`)

	periodPatterns = []struct {
		re     *regexp.Regexp
		period Period
	}{
		{regexp.MustCompile(`(?i)\b(night|nights|nightly|nuit|nuits|notte|notti|pn)\b`), PerNight},
		{regexp.MustCompile(`(?i)\b(week|weeks|weekly|wk|pw|semaine|semaines|settimana|settimane)\b`), PerWeek},
		{regexp.MustCompile(`(?i)\b(month|months|monthly|mois|mese|mesi)\b`), PerMonth},
		{regexp.MustCompile(`(?i)\b(day|days|daily|jour|jours|giorno|giorni)\b`), PerDay},
		{regexp.MustCompile(`(?i)\bcharter\b`), PerCharter},
	}

	currencySymbols = []struct {
		symbol string
		code   string
	}{
		{"€", "EUR"},
		{"£", "GBP"},
		{"US$", "USD"},
		{"$", "USD"},
		{"Fr.", "CHF"},
	}
)

// Parse reads a price string. Empty strings and "on request" variants yield
// a Price with OnRequest set and no error.
func Parse(s string) (Price, error) {
	p := Price{Raw: s, Currency: DefaultCurrency, Period: PerWeek}

	trimmed := strings.TrimSpace(s)
	if trimmed == "" || onRequestRegex.MatchString(trimmed) {
		p.OnRequest = true
		return p, nil
	}

	p.From = fromRegex.MatchString(trimmed)
	p.Currency = detectCurrency(trimmed)
	p.Period = detectPeriod(trimmed)

	m := amountRegex.FindStringSubmatch(trimmed)
	if m == nil {
		return p, fmt.Errorf("%w: %q", ErrNoAmount, s)
	}

	amount, err := parseNumber(m[1])
	if err != nil {
		return p, fmt.Errorf("pricing: parsing %q: %w", m[1], err)
	}
	switch strings.ToLower(m[2]) {
	case "k":
		amount *= 1_000
	case "m":
		amount *= 1_000_000
	}
	p.Amount = amount
	return p, nil
}

// MustParse is Parse for trusted literals; it panics on error.
func MustParse(s string) Price {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

func detectCurrency(s string) string {
	if m := isoRegex.FindString(s); m != "" {
		return strings.ToUpper(m)
	}
	for _, cs := range currencySymbols {
		if strings.Contains(s, cs.symbol) {
			return cs.code
		}
	}
	return DefaultCurrency
}

// detectPeriod returns the period named first in s, so qualifiers such as
// "(minimum 7 nights)" after the rate do not override it.
func detectPeriod(s string) Period {
	period, first := PerWeek, -1
	for _, pp := range periodPatterns {
		loc := pp.re.FindStringIndex(s)
		if loc != nil && (first < 0 || loc[0] < first) {
			period, first = pp.period, loc[0]
		}
	}
	return period
}

// parseNumber interprets thousands and decimal separators. When both ',' and
// '.' appear the last one is the decimal mark. A single separator followed by
// exactly three digits is a thousands separator.
func parseNumber(raw string) (float64, error) {
	s := strings.NewReplacer(" ", "", "\u00a0", "", "'", "", "\u2019", "").Replace(raw)

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		s = normalizeSingleSeparator(s, ",")
	case lastDot >= 0:
		s = normalizeSingleSeparator(s, ".")
	}

	return strconv.ParseFloat(s, 64)
}

func normalizeSingleSeparator(s, sep string) string {
	if strings.Count(s, sep) > 1 {
		return strings.ReplaceAll(s, sep, "")
	}
	idx := strings.Index(s, sep)
	if len(s)-idx-1 == 3 {
		return strings.Replace(s, sep, "", 1)
	}
	return strings.Replace(s, sep, ".", 1)
}

// Weekly returns the price normalized to one week. ok is false for prices on request.
func (p Price) Weekly() (amount float64, ok bool) {
	if p.OnRequest {
		return 0, false
	}
	switch p.Period {
	case PerNight, PerDay:
		return p.Amount * 7, true
	case PerMonth:
		return p.Amount / weeksPerMonth, true
	default:
		return p.Amount, true
	}
}

// Compare orders prices by weekly amount, with prices on request last.
// Amounts in different currencies are compared as plain numbers.
func Compare(a, b Price) int {
	wa, okA := a.Weekly()
	wb, okB := b.Weekly()
	switch {
	case !okA && !okB:
		return 0
	case !okA:
		return 1
	case !okB:
		return -1
	case math.Abs(wa-wb) < 0.005:
		return 0
	case wa < wb:
		return -1
	default:
		return 1
	}
}

// CompareStrings parses both strings and compares them. Unparseable strings
// sort with prices on request.
func CompareStrings(a, b string) int {
	pa, err := Parse(a)
	if err != nil {
		pa = Price{OnRequest: true}
	}
	pb, err := Parse(b)
	if err != nil {
		pb = Price{OnRequest: true}
	}
	return Compare(pa, pb)
}
