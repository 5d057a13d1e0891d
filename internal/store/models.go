// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

// User is a row of the users table.
type User struct {
	ID           int64        `json:"id"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	Name         string       `json:"name"`
	Role         string       `json:"role"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	LastLoginAt  sql.NullTime `json:"last_login_at"`
}

// Villa is a row of the villas table. Images and Amenities hold JSON arrays.
type Villa struct {
	ID          int64
	Slug        string
	Name        string
	Location    string
	Region      string
	Summary     string
	Description string
	PriceText   string
	Bedrooms    int64
	Bathrooms   int64
	Guests      int64
	Images      string
	Amenities   string
	Private     bool
	Featured    bool
	UpdatedAt   time.Time
}

// Yacht is a row of the yachts table.
type Yacht struct {
	ID          int64
	Slug        string
	Name        string
	Length      string
	Guests      int64
	Cabins      int64
	Crew        int64
	PriceText   string
	Summary     string
	Description string
	Images      string
	UpdatedAt   time.Time
}

// Service is a row of the services table.
type Service struct {
	ID       int64
	Slug     string
	Title    string
	Summary  string
	Body     string
	Icon     string
	Position int64
}

// Post is a row of the posts table. Tags holds a JSON array.
type Post struct {
	ID          int64
	Slug        string
	Title       string
	Excerpt     string
	Body        string
	Author      string
	CoverImage  string
	Tags        string
	PublishedAt time.Time
}

// VillaImage is an uploaded gallery image attached to a villa.
type VillaImage struct {
	ID           int64         `json:"id"`
	VillaSlug    string        `json:"villa_slug"`
	Filename     string        `json:"filename"`
	OriginalName string        `json:"original_name"`
	MimeType     string        `json:"mime_type"`
	Width        int64         `json:"width"`
	Height       int64         `json:"height"`
	Size         int64         `json:"size"`
	Alt          string        `json:"alt"`
	Position     int64         `json:"position"`
	UploadedBy   sql.NullInt64 `json:"-"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Inquiry is a stored contact or booking inquiry.
type Inquiry struct {
	ID         int64     `json:"id"`
	Kind       string    `json:"kind"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Subject    string    `json:"subject"`
	ItemSlug   string    `json:"item_slug"`
	Message    string    `json:"message"`
	CheckIn    string    `json:"check_in"`
	CheckOut   string    `json:"check_out"`
	Guests     int64     `json:"guests"`
	Language   string    `json:"language"`
	Status     string    `json:"status"`
	RelayError string    `json:"relay_error,omitempty"`
	IPAddress  string    `json:"-"`
	SessionID  string    `json:"session_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// AuditEvent is a row of the audit_events table. Metadata holds a JSON object.
type AuditEvent struct {
	ID        int64
	Type      string
	SessionID string
	UserID    sql.NullInt64
	Path      string
	Referrer  string
	Browser   string
	OS        string
	Device    string
	Country   string
	Metadata  string
	CreatedAt time.Time
}
