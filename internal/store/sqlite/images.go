package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"backoffice.app/internal/ids"
	"backoffice.app/internal/media"
)

var _ media.ImageStore = (*Store)(nil)

const imageColumns = `id, base64, alt_text, url, created_at`

func scanImage(row rowScanner) (media.Image, error) {
	var (
		img       media.Image
		alt, url  sql.NullString
		createdAt string
	)
	if err := row.Scan(&img.ID, &img.Base64, &alt, &url, &createdAt); err != nil {
		return media.Image{}, err
	}
	ts, err := parseTime(createdAt)
	if err != nil {
		return media.Image{}, err
	}
	img.CreatedAt = ts
	img.AltText = stringPtr(alt)
	img.URL = stringPtr(url)
	return img, nil
}

func (s *Store) CreateImage(ctx context.Context, img media.Image) (media.Image, error) {
	now := s.now()
	row := s.db.QueryRowContext(ctx, `
		insert into images (id, base64, alt_text, url, created_at)
		values (?, ?, ?, ?, ?)
		returning `+imageColumns,
		ids.NewAt(now), img.Base64, nullString(img.AltText), nullString(img.URL), formatTime(now))
	return scanImage(row)
}

func (s *Store) FindImageByID(ctx context.Context, id string) (media.Image, error) {
	img, err := scanImage(s.db.QueryRowContext(ctx, `select `+imageColumns+` from images where id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return media.Image{}, media.ErrNotFound
	}
	return img, err
}

func (s *Store) ListImages(ctx context.Context) ([]media.Image, error) {
	rows, err := s.db.QueryContext(ctx, `select `+imageColumns+` from images order by created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []media.Image{}
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, img)
	}
	return result, rows.Err()
}

func (s *Store) DeleteImage(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from images where id = ?`, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return media.ErrNotFound
	}
	return nil
}
