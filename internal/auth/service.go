package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"backoffice.app/internal/apperr"
	"backoffice.app/internal/ids"
	"backoffice.app/internal/validate"
)

// Verification outcomes reported to the Observer.
const (
	OutcomeSuccess  = "success"
	OutcomeMismatch = "mismatch"
	OutcomeUnknown  = "unknown_account"
	OutcomeError    = "error"
)

// Recorder receives audit events for credential changes and logins.
type Recorder interface {
	Record(ctx context.Context, event string, fields map[string]any)
}

// Observer receives verification outcomes for metrics.
type Observer interface {
	ObserveVerification(outcome string)
}

type CreateInput struct {
	Username string
	Password string
	Role     string
	// PasswordPreHashed stores Password verbatim after checking it is a bcrypt hash.
	PasswordPreHashed bool
}

type UpdateInput struct {
	Username *string
	Password *string
	Role     *string
}

func (in UpdateInput) empty() bool {
	return in.Username == nil && in.Password == nil && in.Role == nil
}

type Option func(*Service)

func WithDefaultRole(r Role) Option { return func(s *Service) { s.defaultRole = r } }
func WithLogger(l *slog.Logger) Option { return func(s *Service) { s.logger = l } }
func WithRecorder(r Recorder) Option { return func(s *Service) { s.recorder = r } }
func WithObserver(o Observer) Option { return func(s *Service) { s.observer = o } }

// Service manages administrative accounts.
type Service struct {
	store       AccountStore
	hasher      *Hasher
	defaultRole Role
	logger      *slog.Logger
	recorder    Recorder
	observer    Observer
}

func NewService(store AccountStore, hasher *Hasher, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("account store is required")
	}
	if hasher == nil {
		return nil, errors.New("password hasher is required")
	}
	s := &Service{
		store:       store,
		hasher:      hasher,
		defaultRole: RoleUser,
		logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create registers a new account and returns its public projection.
func (s *Service) Create(ctx context.Context, in CreateInput) (PublicAccount, error) {
	username := NormalizeUsername(in.Username)

	v := validate.New()
	v.String("username", username, validate.Required())
	v.String("password", in.Password, validate.Required())
	if strings.TrimSpace(in.Role) != "" {
		v.String("role", in.Role, validate.OneOf(RoleNames()...))
	}
	if err := v.Err(); err != nil {
		return PublicAccount{}, err
	}

	role := s.defaultRole
	if strings.TrimSpace(in.Role) != "" {
		role, _ = ParseRole(in.Role)
	}

	if err := s.ensureAvailable(ctx, username, ""); err != nil {
		return PublicAccount{}, err
	}

	hash, err := s.passwordHash(ctx, in.Password, in.PasswordPreHashed)
	if err != nil {
		return PublicAccount{}, err
	}

	acct, err := s.store.CreateAccount(ctx, Account{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return PublicAccount{}, errUsernameTaken()
		}
		return PublicAccount{}, fmt.Errorf("create account: %w", err)
	}

	s.record(ctx, "account.created", map[string]any{"account_id": acct.ID, "role": string(acct.Role)})
	return acct.Public(), nil
}

// Verify checks a username/password pair. A missing account and a wrong
// password both yield (zero, false, nil) and cost one bcrypt comparison.
func (s *Service) Verify(ctx context.Context, identifier, password string) (PublicAccount, bool, error) {
	username := NormalizeUsername(identifier)
	if username == "" || password == "" {
		s.hasher.CompareDummy(ctx, password)
		s.loginFailed(ctx, OutcomeUnknown)
		return PublicAccount{}, false, nil
	}

	acct, err := s.store.FindAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.hasher.CompareDummy(ctx, password)
			s.loginFailed(ctx, OutcomeUnknown)
			return PublicAccount{}, false, nil
		}
		s.observe(OutcomeError)
		s.logger.ErrorContext(ctx, "credential lookup failed", slog.String("error", err.Error()))
		return PublicAccount{}, false, apperr.Wrap(apperr.KindUnauthorized, "authentication failed", err)
	}

	ok, err := s.hasher.Compare(ctx, acct.PasswordHash, password)
	if err != nil {
		s.observe(OutcomeError)
		s.logger.ErrorContext(ctx, "password comparison failed",
			slog.String("account_id", acct.ID), slog.String("error", err.Error()))
		return PublicAccount{}, false, apperr.Wrap(apperr.KindUnauthorized, "authentication failed", err)
	}
	if !ok {
		s.loginFailed(ctx, OutcomeMismatch)
		return PublicAccount{}, false, nil
	}

	s.observe(OutcomeSuccess)
	s.record(ctx, "auth.login.succeeded", map[string]any{"account_id": acct.ID})
	return acct.Public(), true, nil
}

func (s *Service) Get(ctx context.Context, id string) (PublicAccount, error) {
	acct, err := s.find(ctx, id)
	if err != nil {
		return PublicAccount{}, err
	}
	return acct.Public(), nil
}

// List returns every account ordered by creation.
func (s *Service) List(ctx context.Context) ([]PublicAccount, error) {
	accts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	out := make([]PublicAccount, 0, len(accts))
	for _, a := range accts {
		out = append(out, a.Public())
	}
	return out, nil
}

// Update applies the supplied fields. At least one field must be present.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (PublicAccount, error) {
	if in.empty() {
		return PublicAccount{}, apperr.Validation("no valid fields provided")
	}

	v := validate.New()
	if in.Username != nil {
		v.String("username", NormalizeUsername(*in.Username), validate.Required())
	}
	v.Optional("password", in.Password, validate.Required())
	v.Optional("role", in.Role, validate.OneOf(RoleNames()...))
	if err := v.Err(); err != nil {
		return PublicAccount{}, err
	}

	current, err := s.find(ctx, id)
	if err != nil {
		return PublicAccount{}, err
	}

	var upd AccountUpdate
	if in.Username != nil {
		username := NormalizeUsername(*in.Username)
		if username != current.Username {
			if err := s.ensureAvailable(ctx, username, current.ID); err != nil {
				return PublicAccount{}, err
			}
		}
		upd.Username = &username
	}
	if in.Password != nil {
		hash, err := s.passwordHash(ctx, *in.Password, false)
		if err != nil {
			return PublicAccount{}, err
		}
		upd.PasswordHash = &hash
	}
	if in.Role != nil {
		role, _ := ParseRole(*in.Role)
		upd.Role = &role
	}

	acct, err := s.store.UpdateAccount(ctx, current.ID, upd)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return PublicAccount{}, errAccountNotFound()
		case errors.Is(err, ErrConflict):
			return PublicAccount{}, errUsernameTaken()
		}
		return PublicAccount{}, fmt.Errorf("update account: %w", err)
	}

	s.record(ctx, "account.updated", map[string]any{
		"account_id":       acct.ID,
		"username_changed": upd.Username != nil && *upd.Username != current.Username,
		"password_changed": upd.PasswordHash != nil,
		"role_changed":     upd.Role != nil && *upd.Role != current.Role,
	})
	return acct.Public(), nil
}

// Remove hard-deletes the account.
func (s *Service) Remove(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if !ids.Valid(id) {
		return errAccountNotFound()
	}
	if err := s.store.DeleteAccount(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return errAccountNotFound()
		}
		return fmt.Errorf("delete account: %w", err)
	}
	s.record(ctx, "account.deleted", map[string]any{"account_id": id})
	return nil
}

func (s *Service) find(ctx context.Context, id string) (Account, error) {
	id = strings.TrimSpace(id)
	if !ids.Valid(id) {
		return Account{}, errAccountNotFound()
	}
	acct, err := s.store.FindAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Account{}, errAccountNotFound()
		}
		return Account{}, fmt.Errorf("find account: %w", err)
	}
	return acct, nil
}

// ensureAvailable fails with Conflict when username belongs to an account
// other than selfID. The store index remains the final arbiter.
func (s *Service) ensureAvailable(ctx context.Context, username, selfID string) error {
	existing, err := s.store.FindAccountByUsername(ctx, username)
	switch {
	case err == nil:
		if existing.ID != selfID {
			return errUsernameTaken()
		}
		return nil
	case errors.Is(err, ErrNotFound):
		return nil
	default:
		return fmt.Errorf("lookup username: %w", err)
	}
}

func (s *Service) passwordHash(ctx context.Context, password string, preHashed bool) (string, error) {
	if preHashed {
		if err := ValidateHash(password); err != nil {
			return "", apperr.Validation("password is not a valid bcrypt hash",
				[]validate.FieldError{{Field: "password", Errors: []string{"password must be a bcrypt hash"}}})
		}
		return password, nil
	}
	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		if errors.Is(err, ErrPasswordTooLong) {
			return "", apperr.Validation("Validation failed",
				[]validate.FieldError{{Field: "password", Errors: []string{"password must be shorter than or equal to 72 bytes"}}})
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

func (s *Service) loginFailed(ctx context.Context, outcome string) {
	s.observe(outcome)
	s.record(ctx, "auth.login.failed", map[string]any{"reason": outcome})
}

func (s *Service) observe(outcome string) {
	if s.observer != nil {
		s.observer.ObserveVerification(outcome)
	}
}

func (s *Service) record(ctx context.Context, event string, fields map[string]any) {
	if s.recorder != nil {
		s.recorder.Record(ctx, event, fields)
	}
}

func errAccountNotFound() error {
	return apperr.NotFound("account not found")
}

func errUsernameTaken() error {
	return apperr.Conflict("username already in use")
}
