package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"backoffice.app/internal/auth"
	"backoffice.app/internal/ids"
)

var _ auth.AccountStore = (*Store)(nil)

const accountColumns = `id, username, password_hash, role, created_at, updated_at`

func scanAccount(row rowScanner) (auth.Account, error) {
	var (
		acct                 auth.Account
		role                 string
		createdAt, updatedAt string
	)
	if err := row.Scan(&acct.ID, &acct.Username, &acct.PasswordHash, &role, &createdAt, &updatedAt); err != nil {
		return auth.Account{}, err
	}
	var err error
	if acct.CreatedAt, err = parseTime(createdAt); err != nil {
		return auth.Account{}, err
	}
	if acct.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return auth.Account{}, err
	}
	acct.Role = auth.NormalizeStoredRole(role, auth.FallbackRole)
	return acct, nil
}

func (s *Store) CreateAccount(ctx context.Context, acct auth.Account) (auth.Account, error) {
	now := s.now()
	stamp := formatTime(now)
	row := s.db.QueryRowContext(ctx, `
		insert into admins (id, username, password_hash, role, created_at, updated_at)
		values (?, ?, ?, ?, ?, ?)
		returning `+accountColumns,
		ids.NewAt(now), auth.NormalizeUsername(acct.Username), acct.PasswordHash, string(acct.Role), stamp, stamp)
	created, err := scanAccount(row)
	if err != nil {
		if isUniqueViolation(err) {
			return auth.Account{}, auth.ErrConflict
		}
		return auth.Account{}, err
	}
	return created, nil
}

func (s *Store) FindAccountByID(ctx context.Context, id string) (auth.Account, error) {
	row := s.db.QueryRowContext(ctx, `select `+accountColumns+` from admins where id = ?`, id)
	return notFoundIfNoRows(scanAccount(row))
}

func (s *Store) FindAccountByUsername(ctx context.Context, username string) (auth.Account, error) {
	row := s.db.QueryRowContext(ctx, `select `+accountColumns+` from admins where lower(username) = ?`,
		auth.NormalizeUsername(username))
	return notFoundIfNoRows(scanAccount(row))
}

func (s *Store) ListAccounts(ctx context.Context) ([]auth.Account, error) {
	rows, err := s.db.QueryContext(ctx, `select `+accountColumns+` from admins order by created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result := []auth.Account{}
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, acct)
	}
	return result, rows.Err()
}

func (s *Store) UpdateAccount(ctx context.Context, id string, upd auth.AccountUpdate) (auth.Account, error) {
	var (
		sets []string
		args []any
	)
	if upd.Username != nil {
		sets = append(sets, "username = ?")
		args = append(args, auth.NormalizeUsername(*upd.Username))
	}
	if upd.PasswordHash != nil {
		sets = append(sets, "password_hash = ?")
		args = append(args, *upd.PasswordHash)
	}
	if upd.Role != nil {
		sets = append(sets, "role = ?")
		args = append(args, string(*upd.Role))
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, formatTime(s.now()), id)
	query := fmt.Sprintf(`update admins set %s where id = ? returning %s`, strings.Join(sets, ", "), accountColumns)

	acct, err := scanAccount(s.db.QueryRowContext(ctx, query, args...))
	switch {
	case err == nil:
		return acct, nil
	case errors.Is(err, sql.ErrNoRows):
		return auth.Account{}, auth.ErrNotFound
	case isUniqueViolation(err):
		return auth.Account{}, auth.ErrConflict
	default:
		return auth.Account{}, err
	}
}

func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from admins where id = ?`, id)
	if err != nil {
		return err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if aff == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func notFoundIfNoRows(acct auth.Account, err error) (auth.Account, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Account{}, auth.ErrNotFound
	}
	return acct, err
}
