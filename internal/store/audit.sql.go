// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const auditEventColumns = `id, type, session_id, user_id, path, referrer, browser, os, device,
	country, metadata, created_at`

func scanAuditEvent(row scanner) (AuditEvent, error) {
	var e AuditEvent
	err := row.Scan(&e.ID, &e.Type, &e.SessionID, &e.UserID, &e.Path, &e.Referrer, &e.Browser,
		&e.OS, &e.Device, &e.Country, &e.Metadata, &e.CreatedAt)
	return e, err
}

// InsertAuditEventParams holds the columns of one audit event.
type InsertAuditEventParams struct {
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

// InsertAuditEvent stores a single event.
func (q *Queries) InsertAuditEvent(ctx context.Context, arg InsertAuditEventParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO audit_events (type, session_id, user_id, path, referrer, browser, os, device,
			country, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.Type, arg.SessionID, arg.UserID, arg.Path, arg.Referrer, arg.Browser, arg.OS,
		arg.Device, arg.Country, arg.Metadata, arg.CreatedAt)
	return err
}

// InsertAuditEvents stores a batch of events in one transaction.
func InsertAuditEvents(ctx context.Context, db *sql.DB, events []InsertAuditEventParams) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := New(db).WithTx(tx)
	for _, e := range events {
		if err := q.InsertAuditEvent(ctx, e); err != nil {
			return fmt.Errorf("inserting audit event %s: %w", e.Type, err)
		}
	}
	return tx.Commit()
}

// ListAuditEventsParams filters ListAuditEvents. Empty strings match everything.
type ListAuditEventsParams struct {
	Type      string
	SessionID string
	Limit     int64
	Offset    int64
}

// ListAuditEvents returns events newest first.
func (q *Queries) ListAuditEvents(ctx context.Context, arg ListAuditEventsParams) ([]AuditEvent, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+auditEventColumns+` FROM audit_events
		 WHERE (? = '' OR type = ?) AND (? = '' OR session_id = ?)
		 ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		arg.Type, arg.Type, arg.SessionID, arg.SessionID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []AuditEvent
	for rows.Next() {
		e, err := scanAuditEvent(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

// AuditTypeCount is one row of CountAuditEventsByType.
type AuditTypeCount struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

// CountAuditEventsByType returns event counts per type since the given time.
func (q *Queries) CountAuditEventsByType(ctx context.Context, since time.Time) ([]AuditTypeCount, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT type, COUNT(*) FROM audit_events WHERE created_at >= ?
		 GROUP BY type ORDER BY COUNT(*) DESC, type`, since)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []AuditTypeCount
	for rows.Next() {
		var c AuditTypeCount
		if err := rows.Scan(&c.Type, &c.Count); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// DeleteAuditEventsBefore removes events older than cutoff and returns how many were deleted.
func (q *Queries) DeleteAuditEventsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM audit_events WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
