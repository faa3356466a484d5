// Package media stores base64-encoded images with optional alt text and URL.
package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"backoffice.app/internal/apperr"
	"backoffice.app/internal/ids"
	"backoffice.app/internal/validate"
)

// ErrNotFound is returned by ImageStore implementations for missing rows.
var ErrNotFound = errors.New("media: image not found")

const MaxAltTextLength = 255

type Image struct {
	ID        string    `json:"id"`
	Base64    string    `json:"base64"`
	AltText   *string   `json:"altText"`
	URL       *string   `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}

type ImageStore interface {
	CreateImage(ctx context.Context, img Image) (Image, error)
	FindImageByID(ctx context.Context, id string) (Image, error)
	ListImages(ctx context.Context) ([]Image, error)
	DeleteImage(ctx context.Context, id string) error
}

type CreateInput struct {
	Base64  string  `json:"base64"`
	AltText *string `json:"altText"`
	URL     *string `json:"url"`
}

func (in CreateInput) Validate(v *validate.Validator) {
	v.String("base64", in.Base64, validate.Required(), validate.Base64OrDataURI())
	v.Optional("altText", in.AltText, validate.MaxLength(MaxAltTextLength))
	v.Optional("url", in.URL, validate.URL())
}

type Service struct {
	store  ImageStore
	logger *slog.Logger
}

func NewService(store ImageStore, logger *slog.Logger) (*Service, error) {
	if store == nil {
		return nil, errors.New("image store is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{store: store, logger: logger}, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Image, error) {
	in.Base64 = strings.TrimSpace(in.Base64)
	in.AltText = blankToNil(in.AltText)
	in.URL = blankToNil(in.URL)
	if err := validate.Check(in); err != nil {
		return Image{}, err
	}
	img, err := s.store.CreateImage(ctx, Image{Base64: in.Base64, AltText: in.AltText, URL: in.URL})
	if err != nil {
		return Image{}, fmt.Errorf("create image: %w", err)
	}
	s.logger.DebugContext(ctx, "image stored", slog.String("image_id", img.ID), slog.Int("size", len(img.Base64)))
	return img, nil
}

// List returns every image ordered by creation.
func (s *Service) List(ctx context.Context) ([]Image, error) {
	imgs, err := s.store.ListImages(ctx)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	if imgs == nil {
		imgs = []Image{}
	}
	return imgs, nil
}

func (s *Service) Get(ctx context.Context, id string) (Image, error) {
	id = strings.TrimSpace(id)
	if !ids.Valid(id) {
		return Image{}, apperr.NotFound("image not found")
	}
	img, err := s.store.FindImageByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Image{}, apperr.NotFound("image not found")
		}
		return Image{}, fmt.Errorf("find image: %w", err)
	}
	return img, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if !ids.Valid(id) {
		return apperr.NotFound("image not found")
	}
	if err := s.store.DeleteImage(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("image not found")
		}
		return fmt.Errorf("delete image: %w", err)
	}
	return nil
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
