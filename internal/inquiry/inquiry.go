// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package inquiry validates, stores and relays contact and booking inquiries.
package inquiry

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/olegiv/concierge/internal/util"
)

// Kind is the form an inquiry was submitted from.
type Kind string

// Inquiry kinds.
const (
	KindContact Kind = "contact"
	KindVilla   Kind = "villa"
	KindYacht   Kind = "yacht"
	KindService Kind = "service"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindContact, KindVilla, KindYacht, KindService:
		return true
	}
	return false
}

// Field limits.
const (
	MaxNameLength    = 200
	MaxSubjectLength = 200
	MaxMessageLength = 5000
	MaxGuests        = 50
	DateLayout       = "2006-01-02"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9 ().-]{6,20}$`)

// Input is a submitted inquiry form.
type Input struct {
	Kind     Kind   `json:"kind"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Subject  string `json:"subject,omitempty"`
	ItemSlug string `json:"item_slug,omitempty"`
	Message  string `json:"message"`
	CheckIn  string `json:"check_in,omitempty"`
	CheckOut string `json:"check_out,omitempty"`
	Guests   int    `json:"guests,omitempty"`
	Language string `json:"language,omitempty"`

	// Honeypot is a hidden field; humans leave it empty.
	Honeypot string `json:"website,omitempty"`
	// Captcha is the hCaptcha widget response.
	Captcha string `json:"h-captcha-response,omitempty"`
}

// Normalize trims whitespace and fills defaults.
func (in Input) Normalize() Input {
	in.Kind = Kind(strings.ToLower(strings.TrimSpace(string(in.Kind))))
	if in.Kind == "" {
		in.Kind = KindContact
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Email = util.NormalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Subject = strings.TrimSpace(in.Subject)
	in.ItemSlug = strings.TrimSpace(in.ItemSlug)
	in.Message = strings.TrimSpace(in.Message)
	in.CheckIn = strings.TrimSpace(in.CheckIn)
	in.CheckOut = strings.TrimSpace(in.CheckOut)
	in.Honeypot = strings.TrimSpace(in.Honeypot)
	return in
}

// DefaultSubject returns the subject used when the visitor left it empty.
func (in Input) DefaultSubject() string {
	if in.Subject != "" {
		return in.Subject
	}
	switch in.Kind {
	case KindVilla:
		return "Villa inquiry: " + in.ItemSlug
	case KindYacht:
		return "Yacht charter inquiry: " + in.ItemSlug
	case KindService:
		return "Concierge service inquiry: " + in.ItemSlug
	default:
		return "Contact request from " + in.Name
	}
}

// ValidationErrors maps form fields to translation keys.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + v[f]
	}
	return "invalid inquiry: " + strings.Join(parts, ", ")
}

// Validate checks a normalized input. It returns nil when the input is valid.
func Validate(in Input) ValidationErrors {
	return validate(in, time.Now().UTC())
}

func validate(in Input, now time.Time) ValidationErrors {
	errs := ValidationErrors{}

	if !in.Kind.Valid() {
		errs["kind"] = "validation.kind"
	}
	if in.Kind != KindContact && in.Kind.Valid() && !util.IsValidSlug(in.ItemSlug) {
		errs["item_slug"] = "validation.required"
	}

	if in.Name == "" {
		errs["name"] = "validation.required"
	} else if utf8.RuneCountInString(in.Name) > MaxNameLength {
		errs["name"] = "validation.too_long"
	}

	if in.Email == "" {
		errs["email"] = "validation.required"
	} else if !util.IsValidEmail(in.Email) {
		errs["email"] = "validation.email"
	}

	if in.Phone != "" && !phonePattern.MatchString(in.Phone) {
		errs["phone"] = "validation.phone"
	}

	if utf8.RuneCountInString(in.Subject) > MaxSubjectLength {
		errs["subject"] = "validation.too_long"
	}

	if in.Message == "" {
		errs["message"] = "validation.required"
	} else if utf8.RuneCountInString(in.Message) > MaxMessageLength {
		errs["message"] = "validation.too_long"
	}

	validateDates(in, now, errs)

	if in.Guests < 0 || in.Guests > MaxGuests {
		errs["guests"] = "validation.guests"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateDates(in Input, now time.Time, errs ValidationErrors) {
	var checkIn, checkOut time.Time
	var err error

	if in.CheckIn != "" {
		checkIn, err = time.Parse(DateLayout, in.CheckIn)
		if err != nil {
			errs["check_in"] = "validation.date"
		} else {
			today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
			if checkIn.Before(today) {
				errs["check_in"] = "validation.date_past"
			}
		}
	}
	if in.CheckOut != "" {
		checkOut, err = time.Parse(DateLayout, in.CheckOut)
		if err != nil {
			errs["check_out"] = "validation.date"
			return
		}
		if !checkIn.IsZero() && !checkOut.After(checkIn) {
			errs["check_out"] = "validation.date_order"
		}
	}
}

// MailtoURL builds a mailto: link carrying the inquiry, for visitors whose
// inquiry could not be relayed.
func MailtoURL(to string, in Input) string {
	var body strings.Builder
	fmt.Fprintf(&body, "Name: %s\n", in.Name)
	fmt.Fprintf(&body, "Email: %s\n", in.Email)
	if in.Phone != "" {
		fmt.Fprintf(&body, "Phone: %s\n", in.Phone)
	}
	if in.CheckIn != "" || in.CheckOut != "" {
		fmt.Fprintf(&body, "Dates: %s to %s\n", in.CheckIn, in.CheckOut)
	}
	if in.Guests > 0 {
		fmt.Fprintf(&body, "Guests: %d\n", in.Guests)
	}
	body.WriteString("\n")
	body.WriteString(in.Message)

	return MailtoLink(to, in.DefaultSubject(), body.String())
}

// MailtoLink builds a mailto: link with an escaped subject and body.
func MailtoLink(to, subject, body string) string {
	link := "mailto:" + to + "?subject=" + mailtoEscape(subject)
	if body != "" {
		link += "&body=" + mailtoEscape(body)
	}
	return link
}

// mailtoEscape percent-encodes s for a mailto query; spaces become %20
// because mail clients do not decode '+'.
func mailtoEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
