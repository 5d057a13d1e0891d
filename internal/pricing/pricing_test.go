// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package pricing

import (
	"errors"
	"math"
	"sort"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in       string
		amount   float64
		currency string
		period   Period
		from     bool
	}{
		{"€12,500 / week", 12500, "EUR", PerWeek, false},
		{"From $3,200 per night", 3200, "USD", PerNight, true},
		{"EUR 9.500/week", 9500, "EUR", PerWeek, false},
		{"£45k per week", 45000, "GBP", PerWeek, false},
		{"CHF 1'200 / night", 1200, "CHF", PerNight, false},
		{"CHF 95'000 / week", 95000, "CHF", PerWeek, false},
		{"€1,250.50 per day", 1250.50, "EUR", PerDay, false},
		{"12 500 € / semaine", 12500, "EUR", PerWeek, false},
		{"€1.2m per month", 1200000, "EUR", PerMonth, false},
		{"$3.5k nightly", 3500, "USD", PerNight, false},
		{"€45,000 per week (minimum 7 nights)", 45000, "EUR", PerWeek, false},
		{"€2,000 per night, 3 nights minimum per week", 2000, "EUR", PerNight, false},
		{"€9,800 per day", 9800, "EUR", PerDay, false},
		{"€185,000 charter", 185000, "EUR", PerCharter, false},
		{"25000", 25000, "EUR", PerWeek, false},
		{"à partir de 4.200 € la nuit", 4200, "EUR", PerNight, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, err := Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.in, err)
			}
			if math.Abs(p.Amount-tt.amount) > 0.001 {
				t.Errorf("Amount = %v, want %v", p.Amount, tt.amount)
			}
			if p.Currency != tt.currency {
				t.Errorf("Currency = %q, want %q", p.Currency, tt.currency)
			}
			if p.Period != tt.period {
				t.Errorf("Period = %q, want %q", p.Period, tt.period)
			}
			if p.From != tt.from {
				t.Errorf("From = %v, want %v", p.From, tt.from)
			}
			if p.OnRequest {
				t.Error("OnRequest = true, want false")
			}
		})
	}
}

func TestParse_OnRequest(t *testing.T) {
	for _, in := range []string{"", "   ", "Price on request", "POA", "P.O.A.", "Prix sur demande", "Prezzo su richiesta"} {
		p, err := Parse(in)
		if err != nil {
			t.Errorf("Parse(%q) error: %v", in, err)
		}
		if !p.OnRequest {
			t.Errorf("Parse(%q).OnRequest = false, want true", in)
		}
	}
}

func TestParse_NoAmount(t *testing.T) {
	if _, err := Parse("Contact us for rates"); !errors.Is(err, ErrNoAmount) {
		t.Errorf("err = %v, want ErrNoAmount", err)
	}
}

func TestWeekly(t *testing.T) {
	tests := []struct {
		price Price
		want  float64
		ok    bool
	}{
		{Price{Amount: 1000, Period: PerNight}, 7000, true},
		{Price{Amount: 1000, Period: PerDay}, 7000, true},
		{Price{Amount: 1000, Period: PerWeek}, 1000, true},
		{Price{Amount: 4345, Period: PerMonth}, 1000, true},
		{Price{OnRequest: true}, 0, false},
		{MustParse("€45,000 per week (minimum 7 nights)"), 45000, true},
	}

	for _, tt := range tests {
		got, ok := tt.price.Weekly()
		if ok != tt.ok || math.Abs(got-tt.want) > 0.01 {
			t.Errorf("%+v.Weekly() = %v, %v; want %v, %v", tt.price, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCompare_OnRequestLast(t *testing.T) {
	prices := []string{"Price on request", "€38,000 / week", "From €4,200 per night", "EUR 21.500/week"}
	sort.SliceStable(prices, func(i, j int) bool {
		return CompareStrings(prices[i], prices[j]) < 0
	})

	want := []string{"EUR 21.500/week", "From €4,200 per night", "€38,000 / week", "Price on request"}
	for i := range want {
		if prices[i] != want[i] {
			t.Fatalf("sorted = %v, want %v", prices, want)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name  string
		price Price
		lang  string
		want  string
	}{
		{"english euro", Price{Amount: 38000, Currency: "EUR", Period: PerWeek}, "en", "€38,000 / week"},
		{"english from", Price{Amount: 4200, Currency: "EUR", Period: PerNight, From: true}, "en", "From €4,200 / night"},
		{"on request", Price{OnRequest: true}, "it", "Prezzo su richiesta"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.price, tt.lang); got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatString_Unparseable(t *testing.T) {
	if got := FormatString("Contact us", "en"); got != "Contact us" {
		t.Errorf("FormatString() = %q, want input unchanged", got)
	}
}
