package pg

import (
	"context"
	"database/sql"
	"errors"

	"backoffice.app/internal/ids"
	"backoffice.app/internal/media"
)

var _ media.ImageStore = (*Store)(nil)

func scanImage(row rowScanner) (media.Image, error) {
	var (
		img      media.Image
		alt, url sql.NullString
	)
	if err := row.Scan(&img.ID, &img.Base64, &alt, &url, &img.CreatedAt); err != nil {
		return media.Image{}, err
	}
	img.AltText = stringPtr(alt)
	img.URL = stringPtr(url)
	return img, nil
}

func (s *Store) CreateImage(ctx context.Context, img media.Image) (media.Image, error) {
	if s.db == nil {
		return media.Image{}, errNoDB
	}
	row := s.db.QueryRowContext(ctx, `
		insert into images (id, base64, alt_text, url)
		values ($1, $2, $3, $4)
		returning id, base64, alt_text, url, created_at
	`, ids.New(), img.Base64, nullString(img.AltText), nullString(img.URL))
	return scanImage(row)
}

func (s *Store) FindImageByID(ctx context.Context, id string) (media.Image, error) {
	if s.db == nil {
		return media.Image{}, errNoDB
	}
	img, err := scanImage(s.db.QueryRowContext(ctx,
		`select id, base64, alt_text, url, created_at from images where id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return media.Image{}, media.ErrNotFound
	}
	return img, err
}

func (s *Store) ListImages(ctx context.Context) ([]media.Image, error) {
	if s.db == nil {
		return nil, errNoDB
	}
	rows, err := s.db.QueryContext(ctx, `select id, base64, alt_text, url, created_at from images order by created_at, id`)
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
	if s.db == nil {
		return errNoDB
	}
	res, err := s.db.ExecContext(ctx, `delete from images where id = $1`, id)
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
