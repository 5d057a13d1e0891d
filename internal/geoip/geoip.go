// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package geoip resolves visitor countries from a MaxMind GeoLite2-Country
// database for audit enrichment.
package geoip

import (
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/oschwald/maxminddb-golang"

	"github.com/olegiv/concierge/internal/util"
)

// CountryLocal is returned for private and loopback addresses.
const CountryLocal = "LOCAL"

// Lookup maps IP addresses to ISO country codes. The zero path disables it.
type Lookup struct {
	mu      sync.RWMutex
	db      *maxminddb.Reader
	path    string
	modTime time.Time
}

type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// Open loads the database at path. An empty path returns a disabled Lookup
// that still classifies private addresses.
func Open(path string) (*Lookup, error) {
	g := &Lookup{path: path}
	if path == "" {
		return g, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.loadLocked(); err != nil {
		return g, err
	}
	return g, nil
}

// loadLocked opens the database file unless it is unchanged since the last load.
func (g *Lookup) loadLocked() error {
	info, err := os.Stat(g.path)
	if err != nil {
		return fmt.Errorf("stat GeoIP database: %w", err)
	}
	if g.db != nil && info.ModTime().Equal(g.modTime) {
		return nil
	}

	db, err := maxminddb.Open(g.path)
	if err != nil {
		return fmt.Errorf("opening GeoIP database: %w", err)
	}
	if g.db != nil {
		_ = g.db.Close()
	}
	g.db = db
	g.modTime = info.ModTime()
	return nil
}

// Reload reopens the database when the file has been replaced.
func (g *Lookup) Reload() error {
	if g == nil || g.path == "" {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loadLocked()
}

// Country returns the two-letter ISO code for ip, CountryLocal for private
// addresses and "" when unknown.
func (g *Lookup) Country(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	if parsed.IsLoopback() || util.IsPrivateIP(parsed) {
		return CountryLocal
	}
	if g == nil {
		return ""
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.db == nil {
		return ""
	}

	var rec countryRecord
	if err := g.db.Lookup(parsed, &rec); err != nil {
		return ""
	}
	return rec.Country.ISOCode
}

// Enabled reports whether a database is loaded.
func (g *Lookup) Enabled() bool {
	if g == nil {
		return false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.db != nil
}

// Close releases the database.
func (g *Lookup) Close() error {
	if g == nil {
		return nil
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.db == nil {
		return nil
	}
	err := g.db.Close()
	g.db = nil
	return err
}

var countryNames = map[string]string{
	CountryLocal: "Local Network",
	"AE":         "United Arab Emirates",
	"AT":         "Austria",
	"BE":         "Belgium",
	"CH":         "Switzerland",
	"DE":         "Germany",
	"ES":         "Spain",
	"FR":         "France",
	"GB":         "United Kingdom",
	"IT":         "Italy",
	"MC":         "Monaco",
	"NL":         "Netherlands",
	"QA":         "Qatar",
	"SA":         "Saudi Arabia",
	"US":         "United States",
}

// CountryName returns a display name for a country code, falling back to the code.
func CountryName(code string) string {
	if name, ok := countryNames[code]; ok {
		return name
	}
	if code == "" {
		return "Unknown"
	}
	return code
}
