package migrate

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestUpDownStatusSQLite(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	m, err := NewManager(db, SQLite)
	require.NoError(t, err)

	applied, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_admins.up.sql", "0002_images.up.sql"}, applied)

	again, err := m.Up(ctx)
	require.NoError(t, err)
	assert.Empty(t, again)

	_, err = db.ExecContext(ctx, `insert into images(id, base64, created_at) values ('1', 'aGk=', '2024-01-01T00:00:00Z')`)
	require.NoError(t, err)

	last, err := m.Down(ctx)
	require.NoError(t, err)
	assert.Equal(t, "0002_images.up.sql", last)

	status, err := m.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_admins.up.sql"}, status)

	_, err = db.ExecContext(ctx, `select count(*) from images`)
	require.Error(t, err)
}

func TestUniqueUsernameIndexIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	m, err := NewManager(db, SQLite)
	require.NoError(t, err)
	_, err = m.Up(ctx)
	require.NoError(t, err)

	const insert = `insert into admins(id, username, password_hash, role, created_at, updated_at) values (?, ?, 'h', 'USER', 'now', 'now')`
	_, err = db.ExecContext(ctx, insert, "a", "alice")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, insert, "b", "ALICE")
	require.Error(t, err)
}

func TestFailedMigrationRollsBack(t *testing.T) {
	ctx := context.Background()
	db := openSQLite(t)
	files := fstest.MapFS{
		"0001_ok.up.sql":     {Data: []byte("create table t1 (id integer);")},
		"0002_broken.up.sql": {Data: []byte("create table t2 (id integer); insert into missing values (1);")},
	}
	m, err := NewManager(db, SQLite, WithFiles(files), WithMigrationsTable("mig"))
	require.NoError(t, err)

	applied, err := m.Up(ctx)
	require.Error(t, err)
	assert.Equal(t, []string{"0001_ok.up.sql"}, applied)

	status, err := m.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_ok.up.sql"}, status)

	_, err = db.ExecContext(ctx, `select * from t2`)
	require.Error(t, err, "partial migration must not leave t2 behind")
}

func TestDownWithoutHistory(t *testing.T) {
	m, err := NewManager(openSQLite(t), SQLite)
	require.NoError(t, err)
	_, err = m.Down(context.Background())
	require.Error(t, err)
}

func TestSplitStatementsKeepsQuotedSemicolons(t *testing.T) {
	stmts := splitStatements("insert into t values ('a;b'); select 1;")
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], "'a;b'")
}

func TestFilesRejectsUnknownDialect(t *testing.T) {
	_, err := Files("mysql")
	require.Error(t, err)
	_, err = NewManager(nil, SQLite)
	require.Error(t, err)
}
