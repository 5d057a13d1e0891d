// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

// testDB creates a migrated database in a temp directory.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := NewDB(filepath.Join(t.TempDir(), "concierge-test.db"))
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return db
}

func TestCreateUser(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	now := time.Now().UTC()
	user, err := q.CreateUser(ctx, CreateUserParams{
		Email:        "guest@example.com",
		PasswordHash: "hashed-password",
		Role:         "vip",
		Name:         "Guest",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.ID == 0 {
		t.Error("user.ID should not be 0")
	}
	if user.LastLoginAt.Valid {
		t.Error("LastLoginAt should be NULL for a new user")
	}

	got, err := q.GetUserByEmail(ctx, "GUEST@Example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail (case-insensitive): %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("GetUserByEmail ID = %d, want %d", got.ID, user.ID)
	}

	if err := q.UpdateUserLastLogin(ctx, user.ID, now); err != nil {
		t.Fatalf("UpdateUserLastLogin: %v", err)
	}
	got, err = q.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if !got.LastLoginAt.Valid {
		t.Error("LastLoginAt should be set after login")
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	now := time.Now().UTC()
	params := CreateUserParams{Email: "dup@example.com", PasswordHash: "x", Role: "vip", Name: "A", CreatedAt: now, UpdatedAt: now}
	if _, err := q.CreateUser(ctx, params); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	params.Email = "DUP@example.com"
	if _, err := q.CreateUser(ctx, params); err == nil {
		t.Error("expected unique constraint error for case-variant e-mail")
	}
}

func TestCountUsersByRole(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	now := time.Now().UTC()
	for i, role := range []string{"admin", "vip", "vip"} {
		_, err := q.CreateUser(ctx, CreateUserParams{
			Email: string(rune('a'+i)) + "@example.com", PasswordHash: "x",
			Role: role, Name: "U", CreatedAt: now, UpdatedAt: now,
		})
		if err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
	}

	admins, err := q.CountUsersByRole(ctx, "admin")
	if err != nil {
		t.Fatalf("CountUsersByRole: %v", err)
	}
	if admins != 1 {
		t.Errorf("admins = %d, want 1", admins)
	}
	vips, _ := q.CountUsersByRole(ctx, "vip")
	if vips != 2 {
		t.Errorf("vips = %d, want 2", vips)
	}
}

func TestDeleteUser(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	now := time.Now().UTC()
	u, err := q.CreateUser(ctx, CreateUserParams{Email: "gone@example.com", PasswordHash: "x", Role: "vip", Name: "G", CreatedAt: now, UpdatedAt: now})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := q.DeleteUser(ctx, u.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := q.GetUserByID(ctx, u.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetUserByID after delete err = %v, want sql.ErrNoRows", err)
	}
}

func TestSeedCatalog(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	if err := SeedCatalog(ctx, db); err != nil {
		t.Fatalf("SeedCatalog: %v", err)
	}
	// Second run must be a no-op.
	if err := SeedCatalog(ctx, db); err != nil {
		t.Fatalf("SeedCatalog (second run): %v", err)
	}

	villas, err := q.ListVillas(ctx)
	if err != nil {
		t.Fatalf("ListVillas: %v", err)
	}
	if len(villas) != len(demoVillas) {
		t.Errorf("villas = %d, want %d", len(villas), len(demoVillas))
	}

	private := 0
	for _, v := range villas {
		if v.Private {
			private++
		}
	}
	if private == 0 {
		t.Error("seed should include private villas")
	}

	v, err := q.GetVillaBySlug(ctx, "villa-les-oliviers")
	if err != nil {
		t.Fatalf("GetVillaBySlug: %v", err)
	}
	if v.Images == "" || v.Images == "[]" {
		t.Errorf("Images = %q, want JSON array", v.Images)
	}

	posts, err := q.ListPublishedPosts(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("ListPublishedPosts: %v", err)
	}
	if len(posts) != len(demoPosts) {
		t.Fatalf("posts = %d, want %d", len(posts), len(demoPosts))
	}
	if posts[0].Slug != "summer-on-the-riviera" {
		t.Errorf("newest post = %q, want summer-on-the-riviera", posts[0].Slug)
	}

	services, err := q.ListServices(ctx)
	if err != nil {
		t.Fatalf("ListServices: %v", err)
	}
	if len(services) == 0 || services[0].Position != 1 {
		t.Error("services should be ordered by position")
	}
}

func TestInquiryLifecycle(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	inq, err := q.CreateInquiry(ctx, CreateInquiryParams{
		Kind: "villa", Name: "Ada", Email: "ada@example.com", Message: "Hello",
		ItemSlug: "casa-del-faro", Guests: 4, CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateInquiry: %v", err)
	}
	if inq.Status != InquiryPending {
		t.Errorf("Status = %q, want %q", inq.Status, InquiryPending)
	}

	if err := q.UpdateInquiryStatus(ctx, inq.ID, InquiryFailed, "relay returned 500"); err != nil {
		t.Fatalf("UpdateInquiryStatus: %v", err)
	}

	failed, err := q.ListInquiries(ctx, ListInquiriesParams{Status: InquiryFailed, Limit: 10})
	if err != nil {
		t.Fatalf("ListInquiries: %v", err)
	}
	if len(failed) != 1 || failed[0].RelayError != "relay returned 500" {
		t.Errorf("failed inquiries = %+v", failed)
	}

	n, err := q.CountInquiries(ctx, "")
	if err != nil {
		t.Fatalf("CountInquiries: %v", err)
	}
	if n != 1 {
		t.Errorf("CountInquiries = %d, want 1", n)
	}
}

func TestAuditEvents(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	now := time.Now().UTC()
	events := []InsertAuditEventParams{
		{Type: "page.view", SessionID: "s1", Path: "/", Metadata: "{}", CreatedAt: now},
		{Type: "page.view", SessionID: "s2", Path: "/villas", Metadata: "{}", CreatedAt: now},
		{Type: "vip.login", SessionID: "s1", UserID: sql.NullInt64{Int64: 1, Valid: true}, Metadata: "{}", CreatedAt: now},
		{Type: "page.view", SessionID: "s1", Path: "/old", Metadata: "{}", CreatedAt: now.Add(-100 * 24 * time.Hour)},
	}
	if err := InsertAuditEvents(ctx, db, events); err != nil {
		t.Fatalf("InsertAuditEvents: %v", err)
	}

	s1, err := q.ListAuditEvents(ctx, ListAuditEventsParams{SessionID: "s1", Limit: 50})
	if err != nil {
		t.Fatalf("ListAuditEvents: %v", err)
	}
	if len(s1) != 3 {
		t.Errorf("session s1 events = %d, want 3", len(s1))
	}

	counts, err := q.CountAuditEventsByType(ctx, now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("CountAuditEventsByType: %v", err)
	}
	if len(counts) != 2 || counts[0].Type != "page.view" || counts[0].Count != 2 {
		t.Errorf("counts = %+v", counts)
	}

	deleted, err := q.DeleteAuditEventsBefore(ctx, now.Add(-90*24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteAuditEventsBefore: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
}

func TestVillaImages(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	for _, name := range []string{"a.jpg", "b.jpg"} {
		if _, err := q.CreateVillaImage(ctx, CreateVillaImageParams{
			VillaSlug: "casa-del-faro", Filename: name, MimeType: "image/jpeg", CreatedAt: time.Now().UTC(),
		}); err != nil {
			t.Fatalf("CreateVillaImage: %v", err)
		}
	}

	imgs, err := q.ListVillaImages(ctx, "casa-del-faro")
	if err != nil {
		t.Fatalf("ListVillaImages: %v", err)
	}
	if len(imgs) != 2 {
		t.Fatalf("images = %d, want 2", len(imgs))
	}
	if imgs[0].Position != 0 || imgs[1].Position != 1 {
		t.Errorf("positions = %d,%d, want 0,1", imgs[0].Position, imgs[1].Position)
	}

	if err := q.DeleteVillaImage(ctx, imgs[0].ID); err != nil {
		t.Fatalf("DeleteVillaImage: %v", err)
	}
	if _, err := q.GetVillaImage(ctx, imgs[0].ID); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetVillaImage after delete err = %v", err)
	}
}
