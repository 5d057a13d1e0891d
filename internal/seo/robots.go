// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package seo

import (
	"fmt"
	"strings"
)

// defaultDisallow keeps crawlers out of member and API paths.
var defaultDisallow = []string{"/vip", "/api/", "/language/"}

// RobotsConfig controls robots.txt output.
type RobotsConfig struct {
	SiteURL       string   // origin for the Sitemap line; empty omits it
	DisallowAll   bool     // staging and development sites
	DisallowPaths []string // added to defaultDisallow
}

// BuildRobots renders robots.txt.
func BuildRobots(cfg RobotsConfig) string {
	if cfg.DisallowAll {
		return "User-agent: *\nDisallow: /\n"
	}

	lines := []string{"User-agent: *"}
	for _, p := range append(defaultDisallow[:len(defaultDisallow):len(defaultDisallow)], cfg.DisallowPaths...) {
		lines = append(lines, "Disallow: "+p)
	}
	lines = append(lines, "Allow: /")
	if cfg.SiteURL != "" {
		lines = append(lines, "", fmt.Sprintf("Sitemap: %s/sitemap.xml", strings.TrimRight(cfg.SiteURL, "/")))
	}
	return strings.Join(lines, "\n") + "\n"
}
