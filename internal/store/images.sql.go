// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const villaImageColumns = `id, villa_slug, filename, original_name, mime_type, width, height, size,
	alt, position, uploaded_by, created_at`

func scanVillaImage(row scanner) (VillaImage, error) {
	var img VillaImage
	err := row.Scan(&img.ID, &img.VillaSlug, &img.Filename, &img.OriginalName, &img.MimeType,
		&img.Width, &img.Height, &img.Size, &img.Alt, &img.Position, &img.UploadedBy, &img.CreatedAt)
	return img, err
}

// CreateVillaImageParams holds the columns for CreateVillaImage.
type CreateVillaImageParams struct {
	VillaSlug    string
	Filename     string
	OriginalName string
	MimeType     string
	Width        int64
	Height       int64
	Size         int64
	Alt          string
	UploadedBy   sql.NullInt64
	CreatedAt    time.Time
}

// CreateVillaImage appends an image to the end of a villa's gallery.
func (q *Queries) CreateVillaImage(ctx context.Context, arg CreateVillaImageParams) (VillaImage, error) {
	row := q.db.QueryRowContext(ctx,
		`INSERT INTO villa_images (villa_slug, filename, original_name, mime_type, width, height,
			size, alt, position, uploaded_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(position), -1) + 1 FROM villa_images WHERE villa_slug = ?), ?, ?)
		 RETURNING `+villaImageColumns,
		arg.VillaSlug, arg.Filename, arg.OriginalName, arg.MimeType, arg.Width, arg.Height,
		arg.Size, arg.Alt, arg.VillaSlug, arg.UploadedBy, arg.CreatedAt)
	return scanVillaImage(row)
}

// ListVillaImages returns a villa's gallery in display order.
func (q *Queries) ListVillaImages(ctx context.Context, villaSlug string) ([]VillaImage, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+villaImageColumns+` FROM villa_images WHERE villa_slug = ? ORDER BY position, id`, villaSlug)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []VillaImage
	for rows.Next() {
		img, err := scanVillaImage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, img)
	}
	return items, rows.Err()
}

// GetVillaImage returns an image by id.
func (q *Queries) GetVillaImage(ctx context.Context, id int64) (VillaImage, error) {
	return scanVillaImage(q.db.QueryRowContext(ctx,
		`SELECT `+villaImageColumns+` FROM villa_images WHERE id = ?`, id))
}

// DeleteVillaImage removes an image row.
func (q *Queries) DeleteVillaImage(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM villa_images WHERE id = ?`, id)
	return err
}
