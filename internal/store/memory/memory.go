// Package memory is an in-process store used for local runs and tests. All
// operations are serialized by a single mutex, which also makes the username
// uniqueness check atomic with the insert.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"backoffice.app/internal/auth"
	"backoffice.app/internal/ids"
	"backoffice.app/internal/media"
)

type Store struct {
	mu         sync.RWMutex
	accounts   map[string]auth.Account
	byUsername map[string]string
	images     map[string]media.Image
	now        func() time.Time
}

func New() *Store {
	return &Store{
		accounts:   make(map[string]auth.Account),
		byUsername: make(map[string]string),
		images:     make(map[string]media.Image),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) CreateAccount(ctx context.Context, acct auth.Account) (auth.Account, error) {
	if err := ctx.Err(); err != nil {
		return auth.Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := auth.NormalizeUsername(acct.Username)
	if _, taken := s.byUsername[key]; taken {
		return auth.Account{}, auth.ErrConflict
	}
	now := s.now()
	acct.ID = ids.NewAt(now)
	acct.Username = key
	acct.Role = auth.NormalizeStoredRole(string(acct.Role), auth.FallbackRole)
	acct.CreatedAt = now
	acct.UpdatedAt = now
	s.accounts[acct.ID] = acct
	s.byUsername[key] = acct.ID
	return acct, nil
}

func (s *Store) FindAccountByID(ctx context.Context, id string) (auth.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.accounts[id]
	if !ok {
		return auth.Account{}, auth.ErrNotFound
	}
	return acct, nil
}

func (s *Store) FindAccountByUsername(ctx context.Context, username string) (auth.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byUsername[auth.NormalizeUsername(username)]
	if !ok {
		return auth.Account{}, auth.ErrNotFound
	}
	return s.accounts[id], nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]auth.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]auth.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) UpdateAccount(ctx context.Context, id string, upd auth.AccountUpdate) (auth.Account, error) {
	if err := ctx.Err(); err != nil {
		return auth.Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[id]
	if !ok {
		return auth.Account{}, auth.ErrNotFound
	}
	if upd.Username != nil {
		key := auth.NormalizeUsername(*upd.Username)
		if owner, taken := s.byUsername[key]; taken && owner != id {
			return auth.Account{}, auth.ErrConflict
		}
		delete(s.byUsername, acct.Username)
		s.byUsername[key] = id
		acct.Username = key
	}
	if upd.PasswordHash != nil {
		acct.PasswordHash = *upd.PasswordHash
	}
	if upd.Role != nil {
		acct.Role = *upd.Role
	}
	acct.UpdatedAt = s.now()
	s.accounts[id] = acct
	return acct, nil
}

func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[id]
	if !ok {
		return auth.ErrNotFound
	}
	delete(s.accounts, id)
	delete(s.byUsername, acct.Username)
	return nil
}

func (s *Store) CreateImage(ctx context.Context, img media.Image) (media.Image, error) {
	if err := ctx.Err(); err != nil {
		return media.Image{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	img.ID = ids.NewAt(now)
	img.CreatedAt = now
	s.images[img.ID] = img
	return img, nil
}

func (s *Store) FindImageByID(ctx context.Context, id string) (media.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[id]
	if !ok {
		return media.Image{}, media.ErrNotFound
	}
	return img, nil
}

func (s *Store) ListImages(ctx context.Context) ([]media.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]media.Image, 0, len(s.images))
	for _, img := range s.images {
		out = append(out, img)
	}
	// ULIDs sort by creation time.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) DeleteImage(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.images[id]; !ok {
		return media.ErrNotFound
	}
	delete(s.images, id)
	return nil
}
