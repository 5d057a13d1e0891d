// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

// Inquiry statuses.
const (
	InquiryPending = "pending"
	InquiryRelayed = "relayed"
	InquiryFailed  = "failed"
)

const inquiryColumns = `id, kind, name, email, phone, subject, item_slug, message, check_in,
	check_out, guests, language, status, relay_error, ip_address, session_id, created_at`

func scanInquiry(row scanner) (Inquiry, error) {
	var i Inquiry
	err := row.Scan(&i.ID, &i.Kind, &i.Name, &i.Email, &i.Phone, &i.Subject, &i.ItemSlug,
		&i.Message, &i.CheckIn, &i.CheckOut, &i.Guests, &i.Language, &i.Status, &i.RelayError,
		&i.IPAddress, &i.SessionID, &i.CreatedAt)
	return i, err
}

// CreateInquiryParams holds the columns for CreateInquiry.
type CreateInquiryParams struct {
	Kind      string
	Name      string
	Email     string
	Phone     string
	Subject   string
	ItemSlug  string
	Message   string
	CheckIn   string
	CheckOut  string
	Guests    int64
	Language  string
	IPAddress string
	SessionID string
	CreatedAt time.Time
}

// CreateInquiry stores a pending inquiry.
func (q *Queries) CreateInquiry(ctx context.Context, arg CreateInquiryParams) (Inquiry, error) {
	row := q.db.QueryRowContext(ctx,
		`INSERT INTO inquiries (kind, name, email, phone, subject, item_slug, message, check_in,
			check_out, guests, language, status, ip_address, session_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'pending', ?, ?, ?)
		 RETURNING `+inquiryColumns,
		arg.Kind, arg.Name, arg.Email, arg.Phone, arg.Subject, arg.ItemSlug, arg.Message,
		arg.CheckIn, arg.CheckOut, arg.Guests, arg.Language, arg.IPAddress, arg.SessionID, arg.CreatedAt)
	return scanInquiry(row)
}

// UpdateInquiryStatus records the relay outcome.
func (q *Queries) UpdateInquiryStatus(ctx context.Context, id int64, status, relayError string) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE inquiries SET status = ?, relay_error = ? WHERE id = ?`, status, relayError, id)
	return err
}

// ListInquiriesParams filters ListInquiries.
type ListInquiriesParams struct {
	Status string
	Limit  int64
	Offset int64
}

// ListInquiries returns inquiries newest first, optionally filtered by status.
func (q *Queries) ListInquiries(ctx context.Context, arg ListInquiriesParams) ([]Inquiry, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+inquiryColumns+` FROM inquiries
		 WHERE (? = '' OR status = ?)
		 ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		arg.Status, arg.Status, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Inquiry
	for rows.Next() {
		i, err := scanInquiry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

// CountInquiries returns the number of inquiries, optionally filtered by status.
func (q *Queries) CountInquiries(ctx context.Context, status string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM inquiries WHERE (? = '' OR status = ?)`, status, status).Scan(&n)
	return n, err
}
