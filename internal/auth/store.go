package auth

import "context"

// AccountStore is the persistence port used by Service. Implementations must
// enforce case-insensitive username uniqueness atomically and report a
// violation as ErrConflict. Missing rows are reported as ErrNotFound.
type AccountStore interface {
	CreateAccount(ctx context.Context, acct Account) (Account, error)
	FindAccountByID(ctx context.Context, id string) (Account, error)
	FindAccountByUsername(ctx context.Context, username string) (Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	UpdateAccount(ctx context.Context, id string, upd AccountUpdate) (Account, error)
	DeleteAccount(ctx context.Context, id string) error
}
