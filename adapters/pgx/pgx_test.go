package pgx

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lborres/guildhall/core"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (pgxmock.PgxPoolIface, *Adapter) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(mock.Close)
	return mock, New(mock)
}

func TestAdapter_CreateAccount(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
		wantAny   bool
	}{
		{
			name: "inserts account and profile in one transaction",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectQuery(`INSERT INTO accounts`).
					WithArgs("acc-1", "a@x.com", "hash").
					WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(testNow, testNow))
				mock.ExpectQuery(`INSERT INTO profiles`).
					WithArgs("acc-1", "Alice", 30).
					WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(testNow))
				mock.ExpectCommit()
			},
		},
		{
			name: "duplicate email is a conflict",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectQuery(`INSERT INTO accounts`).
					WithArgs("acc-1", "a@x.com", "hash").
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "accounts_email_key"})
				mock.ExpectRollback()
			},
			wantErr: core.ErrEmailTaken,
		},
		{
			name: "profile failure rolls back",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectBegin()
				mock.ExpectQuery(`INSERT INTO accounts`).
					WithArgs("acc-1", "a@x.com", "hash").
					WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(testNow, testNow))
				mock.ExpectQuery(`INSERT INTO profiles`).
					WithArgs("acc-1", "Alice", 30).
					WillReturnError(errors.New("connection reset"))
				mock.ExpectRollback()
			},
			wantAny: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, a := newMock(t)
			tt.setupMock(mock)

			acc := &core.Account{ID: "acc-1", Email: "a@x.com", PasswordHash: "hash"}
			p := &core.Profile{Name: "Alice", Age: 30}
			err := a.CreateAccount(context.Background(), acc, p)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantAny:
				require.Error(t, err)
				assert.NotErrorIs(t, err, core.ErrConflict)
			default:
				require.NoError(t, err)
				assert.Equal(t, testNow, acc.CreatedAt)
				assert.Equal(t, "acc-1", p.AccountID)
			}
			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestAdapter_GetAccountByEmail(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		mock, a := newMock(t)
		mock.ExpectQuery(`SELECT .+ FROM accounts WHERE email = \$1`).
			WithArgs("a@x.com").
			WillReturnRows(pgxmock.NewRows([]string{"id", "email", "password_hash", "created_at", "updated_at"}).
				AddRow("acc-1", "a@x.com", "hash", testNow, testNow))

		acc, err := a.GetAccountByEmail(context.Background(), "a@x.com")

		require.NoError(t, err)
		assert.Equal(t, "acc-1", acc.ID)
		assert.Equal(t, "hash", acc.PasswordHash)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		mock, a := newMock(t)
		mock.ExpectQuery(`SELECT .+ FROM accounts WHERE email = \$1`).
			WithArgs("nobody@x.com").
			WillReturnRows(pgxmock.NewRows([]string{"id", "email", "password_hash", "created_at", "updated_at"}))

		_, err := a.GetAccountByEmail(context.Background(), "nobody@x.com")

		assert.ErrorIs(t, err, core.ErrAccountNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAdapter_UpdateProfile_PartialFields(t *testing.T) {
	mock, a := newMock(t)
	age := 41
	mock.ExpectQuery(`UPDATE profiles`).
		WithArgs("acc-1", (*string)(nil), &age).
		WillReturnRows(pgxmock.NewRows([]string{"name", "age", "updated_at"}).AddRow("Alice", 41, testNow))

	p, err := a.UpdateProfile(context.Background(), "acc-1", core.ProfileUpdate{Age: &age})

	require.NoError(t, err)
	assert.Equal(t, "Alice", p.Name)
	assert.Equal(t, 41, p.Age)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Requirement: deletes are one conditional statement; zero rows is not found.
func TestAdapter_Deletes(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		args     []any
		affected int64
		run      func(a *Adapter) error
		wantErr  error
	}{
		{
			name:     "character deleted",
			pattern:  `DELETE FROM characters WHERE id = \$1 AND account_id = \$2`,
			args:     []any{"c-1", "acc-1"},
			affected: 1,
			run:      func(a *Adapter) error { return a.DeleteCharacter(context.Background(), "c-1", "acc-1") },
		},
		{
			name:     "character owned by someone else",
			pattern:  `DELETE FROM characters WHERE id = \$1 AND account_id = \$2`,
			args:     []any{"c-1", "acc-2"},
			affected: 0,
			run:      func(a *Adapter) error { return a.DeleteCharacter(context.Background(), "c-1", "acc-2") },
			wantErr:  core.ErrCharacterNotFound,
		},
		{
			name:     "item deleted",
			pattern:  `DELETE FROM items WHERE id = \$1 AND account_id = \$2`,
			args:     []any{"i-1", "acc-1"},
			affected: 1,
			run:      func(a *Adapter) error { return a.DeleteItem(context.Background(), "i-1", "acc-1") },
		},
		{
			name:     "item already gone",
			pattern:  `DELETE FROM items WHERE id = \$1 AND account_id = \$2`,
			args:     []any{"i-1", "acc-1"},
			affected: 0,
			run:      func(a *Adapter) error { return a.DeleteItem(context.Background(), "i-1", "acc-1") },
			wantErr:  core.ErrItemNotFound,
		},
		{
			name:     "account deleted",
			pattern:  `DELETE FROM accounts WHERE id = \$1`,
			args:     []any{"acc-1"},
			affected: 1,
			run:      func(a *Adapter) error { return a.DeleteAccount(context.Background(), "acc-1") },
		},
		{
			name:     "account missing",
			pattern:  `DELETE FROM accounts WHERE id = \$1`,
			args:     []any{"acc-1"},
			affected: 0,
			run:      func(a *Adapter) error { return a.DeleteAccount(context.Background(), "acc-1") },
			wantErr:  core.ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, a := newMock(t)
			mock.ExpectExec(tt.pattern).
				WithArgs(tt.args...).
				WillReturnResult(pgxmock.NewResult("DELETE", tt.affected))

			err := tt.run(a)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAdapter_CreateCharacter_UnknownOwner(t *testing.T) {
	mock, a := newMock(t)
	mock.ExpectQuery(`INSERT INTO characters`).
		WithArgs("c-1", "ghost", "Rogue", 100, 10, 10000).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation})

	err := a.CreateCharacter(context.Background(), &core.Character{
		ID: "c-1", AccountID: "ghost", Name: "Rogue", HP: 100, Power: 10, Money: 10000,
	})

	assert.ErrorIs(t, err, core.ErrAccountNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_ListItems(t *testing.T) {
	mock, a := newMock(t)
	mock.ExpectQuery(`SELECT .+ FROM items ORDER BY id`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "account_id", "name", "hp", "power", "price", "created_at", "updated_at"}).
			AddRow("i-1", "acc-1", "Sword", 0, 12, 300, testNow, testNow).
			AddRow("i-2", "acc-2", "Shield", 40, 1, 200, testNow, testNow))

	items, err := a.ListItems(context.Background())

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Sword", items[0].Name)
	assert.Equal(t, 40, items[1].HP)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_ListCharacters_Empty(t *testing.T) {
	mock, a := newMock(t)
	mock.ExpectQuery(`SELECT .+ FROM characters ORDER BY id`).
		WillReturnRows(pgxmock.NewRows([]string{"id", "account_id", "name", "hp", "power", "money", "created_at", "updated_at"}))

	cs, err := a.ListCharacters(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, cs)
	assert.Empty(t, cs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_UpdateItem_NotOwned(t *testing.T) {
	mock, a := newMock(t)
	price := 5
	mock.ExpectQuery(`UPDATE items`).
		WithArgs("i-1", "acc-2", (*string)(nil), (*int)(nil), (*int)(nil), &price).
		WillReturnRows(pgxmock.NewRows([]string{"id", "account_id", "name", "hp", "power", "price", "created_at", "updated_at"}))

	_, err := a.UpdateItem(context.Background(), "i-1", "acc-2", core.ItemUpdate{Price: &price})

	assert.ErrorIs(t, err, core.ErrItemNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdapter_Revocations(t *testing.T) {
	mock, a := newMock(t)
	ctx := context.Background()

	mock.ExpectExec(`INSERT INTO revoked_tokens`).
		WithArgs("tok-1", "acc-1", testNow).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("tok-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectExec(`DELETE FROM revoked_tokens WHERE expires_at <= \$1`).
		WithArgs(testNow).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	require.NoError(t, a.RevokeToken(ctx, "tok-1", "acc-1", testNow))
	revoked, err := a.IsTokenRevoked(ctx, "tok-1")
	require.NoError(t, err)
	assert.True(t, revoked)
	n, err := a.DeleteExpiredRevocations(ctx, testNow)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	assert.NoError(t, mock.ExpectationsWereMet())
}

// deadlineDB records the deadline of the context Ping receives
type deadlineDB struct {
	DB
	deadline time.Time
	ok       bool
}

func (d *deadlineDB) Ping(ctx context.Context) error {
	d.deadline, d.ok = ctx.Deadline()
	return nil
}

func TestAdapter_QueryTimeout(t *testing.T) {
	tests := []struct {
		name         string
		opts         []Option
		wantDeadline bool
		wantWithin   time.Duration
	}{
		{name: "default timeout", wantDeadline: true, wantWithin: DefaultQueryTimeout},
		{name: "custom timeout", opts: []Option{WithQueryTimeout(50 * time.Millisecond)}, wantDeadline: true, wantWithin: 50 * time.Millisecond},
		{name: "disabled", opts: []Option{WithQueryTimeout(0)}},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			db := &deadlineDB{}
			adapter := New(db, test.opts...)
			start := time.Now()

			require.NoError(t, adapter.Ping(context.Background()))

			assert.Equal(t, test.wantDeadline, db.ok)
			if test.wantDeadline {
				assert.False(t, db.deadline.After(start.Add(test.wantWithin+time.Second)))
				assert.True(t, db.deadline.After(start))
			}
		})
	}
}

func TestAdapter_QueryTimeout_Expires(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	adapter := New(mock, WithQueryTimeout(20*time.Millisecond))

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("tok").
		WillDelayFor(2 * time.Second).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	start := time.Now()
	_, err = adapter.IsTokenRevoked(context.Background(), "tok")

	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRunMigrations(t *testing.T) {
	db, err := sql.Open("pgx", "postgres://localhost:5432/unused")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	orig := gooseUpContext
	defer func() { gooseUpContext = orig }()

	var gotDir string
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		gotDir = dir
		return nil
	}
	require.NoError(t, runMigrations(context.Background(), db))
	assert.Equal(t, "migrations", gotDir)

	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	assert.Error(t, runMigrations(context.Background(), db))
}

func TestMigrations_Embedded(t *testing.T) {
	data, err := migrations.ReadFile("migrations/00001_init.sql")
	require.NoError(t, err)
	assert.Contains(t, string(data), "CREATE UNIQUE INDEX accounts_email_key")
	assert.Contains(t, string(data), "ON DELETE CASCADE")
}
