package pg

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"

	"backoffice.app/internal/auth"
	"backoffice.app/internal/media"
)

var accountCols = []string{"id", "username", "password_hash", "role", "created_at", "updated_at"}

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
		_ = db.Close()
	})
	return New(db), mock
}

func TestCreateAccount(t *testing.T) {
	store, mock := newMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery("insert into admins").
		WithArgs(sqlmock.AnyArg(), "alice", "$2a$10$hash", "ADMIN").
		WillReturnRows(sqlmock.NewRows(accountCols).AddRow("01ID", "alice", "$2a$10$hash", "ADMIN", now, now))

	acct, err := store.CreateAccount(context.Background(), auth.Account{Username: " Alice ", PasswordHash: "$2a$10$hash", Role: auth.RoleAdmin})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if acct.ID != "01ID" || acct.Username != "alice" || acct.Role != auth.RoleAdmin {
		t.Fatalf("unexpected account: %+v", acct)
	}
}

func TestCreateAccountUniqueViolation(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery("insert into admins").
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: "admins_username_lower_key"})

	_, err := store.CreateAccount(context.Background(), auth.Account{Username: "alice", PasswordHash: "h", Role: auth.RoleUser})
	if !errors.Is(err, auth.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestFindAccountByUsernameNormalizesAndDefaultsRole(t *testing.T) {
	store, mock := newMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery(`from admins where lower\(username\) = \$1`).
		WithArgs("bob").
		WillReturnRows(sqlmock.NewRows(accountCols).AddRow("01ID", "bob", "h", "", now, now))

	acct, err := store.FindAccountByUsername(context.Background(), "BOB")
	if err != nil {
		t.Fatalf("FindAccountByUsername: %v", err)
	}
	if acct.Role != auth.FallbackRole {
		t.Fatalf("expected fallback role, got %q", acct.Role)
	}
}

func TestFindAccountByIDNotFound(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery(`from admins where id = \$1`).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	if _, err := store.FindAccountByID(context.Background(), "missing"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListAccountsOrdered(t *testing.T) {
	store, mock := newMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery("from admins order by created_at, id").
		WillReturnRows(sqlmock.NewRows(accountCols).
			AddRow("01A", "a", "h", "USER", now, now).
			AddRow("01B", "b", "h", "ADMIN", now, now))

	list, err := store.ListAccounts(context.Background())
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if len(list) != 2 || list[0].ID != "01A" || list[1].Role != auth.RoleAdmin {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestUpdateAccountBuildsSetClause(t *testing.T) {
	store, mock := newMock(t)
	now := time.Now().UTC()
	name := "Carol"
	role := auth.RoleAdmin
	mock.ExpectQuery(`update admins set username = \$1, role = \$2, updated_at = now\(\) where id = \$3 returning`).
		WithArgs("carol", "ADMIN", "01ID").
		WillReturnRows(sqlmock.NewRows(accountCols).AddRow("01ID", "carol", "h", "ADMIN", now, now))

	acct, err := store.UpdateAccount(context.Background(), "01ID", auth.AccountUpdate{Username: &name, Role: &role})
	if err != nil {
		t.Fatalf("UpdateAccount: %v", err)
	}
	if acct.Username != "carol" {
		t.Fatalf("unexpected username %q", acct.Username)
	}
}

func TestUpdateAccountErrors(t *testing.T) {
	store, mock := newMock(t)
	hash := "h2"
	mock.ExpectQuery("update admins set password_hash").WithArgs("h2", "missing").WillReturnError(sql.ErrNoRows)
	if _, err := store.UpdateAccount(context.Background(), "missing", auth.AccountUpdate{PasswordHash: &hash}); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	name := "taken"
	mock.ExpectQuery("update admins set username").WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})
	if _, err := store.UpdateAccount(context.Background(), "01ID", auth.AccountUpdate{Username: &name}); !errors.Is(err, auth.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestDeleteAccount(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectExec(`delete from admins where id = \$1`).WithArgs("01ID").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`delete from admins where id = \$1`).WithArgs("01ID").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.DeleteAccount(context.Background(), "01ID"); err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if err := store.DeleteAccount(context.Background(), "01ID"); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestImages(t *testing.T) {
	store, mock := newMock(t)
	now := time.Now().UTC()
	cols := []string{"id", "base64", "alt_text", "url", "created_at"}
	alt := "logo"

	mock.ExpectQuery("insert into images").
		WithArgs(sqlmock.AnyArg(), "aGk=", "logo", nil).
		WillReturnRows(sqlmock.NewRows(cols).AddRow("01IMG", "aGk=", "logo", nil, now))
	img, err := store.CreateImage(context.Background(), media.Image{Base64: "aGk=", AltText: &alt})
	if err != nil {
		t.Fatalf("CreateImage: %v", err)
	}
	if img.AltText == nil || *img.AltText != "logo" || img.URL != nil {
		t.Fatalf("unexpected image: %+v", img)
	}

	mock.ExpectQuery(`from images where id = \$1`).WithArgs("nope").WillReturnError(sql.ErrNoRows)
	if _, err := store.FindImageByID(context.Background(), "nope"); !errors.Is(err, media.ErrNotFound) {
		t.Fatalf("expected media.ErrNotFound, got %v", err)
	}

	mock.ExpectExec(`delete from images where id = \$1`).WithArgs("nope").WillReturnResult(sqlmock.NewResult(0, 0))
	if err := store.DeleteImage(context.Background(), "nope"); !errors.Is(err, media.ErrNotFound) {
		t.Fatalf("expected media.ErrNotFound, got %v", err)
	}
}

func TestPing(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery("select 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := (&Store{}).Ping(context.Background()); err == nil {
		t.Fatal("expected error without a database handle")
	}
}
