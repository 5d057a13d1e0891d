// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides small helpers shared across the site: slugs,
// e-mail checks, client addresses and safe upload paths.
package util

import (
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/unicode/norm"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// MaxSlugLength caps generated slugs.
const MaxSlugLength = 120

// Slugify converts a string to a URL-friendly slug. Non-Latin scripts are
// transliterated, so "Вилла Москва" becomes "villa-moskva".
func Slugify(s string) string {
	s = unidecode.Unidecode(norm.NFC.String(s))
	s = strings.ToLower(s)
	s = nonSlugChars.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) > MaxSlugLength {
		s = strings.TrimRight(s[:MaxSlugLength], "-")
	}
	return s
}

// IsValidSlug checks if a string is a valid slug: lowercase letters, digits
// and single hyphens, not starting or ending with a hyphen.
func IsValidSlug(s string) bool {
	if s == "" || len(s) > MaxSlugLength {
		return false
	}
	for _, r := range s {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-') {
			return false
		}
	}
	return s[0] != '-' && s[len(s)-1] != '-' && !strings.Contains(s, "--")
}
