// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package audit

import (
	"github.com/mileusna/useragent"
)

// Device classes.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceBot     = "bot"
)

// ParsedUA is the enrichment extracted from a User-Agent header.
type ParsedUA struct {
	Browser string
	OS      string
	Device  string
}

// IsBot reports whether the agent is a crawler.
func (p ParsedUA) IsBot() bool {
	return p.Device == DeviceBot
}

// ParseUserAgent extracts browser, OS and device class.
func ParseUserAgent(s string) ParsedUA {
	ua := useragent.Parse(s)

	p := ParsedUA{Browser: ua.Name, OS: ua.OS}
	if p.Browser == "" {
		p.Browser = "Unknown"
	}
	if p.OS == "" {
		p.OS = "Unknown"
	}

	switch {
	case ua.Bot:
		p.Device = DeviceBot
	case ua.Tablet:
		p.Device = DeviceTablet
	case ua.Mobile:
		p.Device = DeviceMobile
	default:
		p.Device = DeviceDesktop
	}
	return p
}
