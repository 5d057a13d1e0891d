// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package pricing

import (
	"math"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/olegiv/concierge/internal/i18n"
)

// Format renders a price in the given language, e.g. "€38,000 / week" in
// English or "38 000 € / semaine" in French.
func Format(p Price, lang string) string {
	if p.OnRequest {
		return i18n.T(lang, "price.on_request")
	}

	tag := language.Make(lang)
	printer := message.NewPrinter(tag)

	symbol := p.Currency
	if unit, err := currency.ParseISO(p.Currency); err == nil {
		symbol = printer.Sprint(currency.Symbol(unit))
	}
	number := printer.Sprintf("%d", int64(math.Round(p.Amount)))

	var out string
	if symbolFirst(tag) {
		out = symbol + number
	} else {
		out = number + " " + symbol
	}

	if p.From {
		out = i18n.T(lang, "price.from") + " " + out
	}
	return out + " / " + i18n.T(lang, "price.per."+string(p.Period))
}

// FormatString parses s and formats it; strings that fail to parse are returned unchanged.
func FormatString(s, lang string) string {
	p, err := Parse(s)
	if err != nil {
		return s
	}
	return Format(p, lang)
}

func symbolFirst(tag language.Tag) bool {
	base, _ := tag.Base()
	switch base.String() {
	case "fr", "it", "de", "es":
		return false
	default:
		return true
	}
}
