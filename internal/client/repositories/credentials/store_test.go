package credentials

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/rainwise/internal/client/repositories/kv"
	"github.com/dmitrijs2005/rainwise/internal/models"
)

func newSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func stores(t *testing.T) map[string]Store {
	return map[string]Store{
		"sqlite": newSQLite(t),
		"memory": NewMemoryStore(),
	}
}

func TestStore_SaveLoadClear(t *testing.T) {
	city := int64(3)
	identity := &models.Identity{ID: 42, Email: "ana@example.com", Name: "Ana", Role: "citizen", CityID: &city}
	exp := time.UnixMilli(1_760_000_000_123)

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			got, err := s.Load(ctx)
			require.NoError(t, err)
			require.Nil(t, got, "never set")

			require.NoError(t, s.Save(ctx, identity, "acc", "ref", exp))

			got, err = s.Load(ctx)
			require.NoError(t, err)
			want := &models.StoredSession{
				Identity:   identity,
				Credential: models.Credential{AccessToken: "acc", RefreshToken: "ref", ExpiresAt: exp},
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("session mismatch (-want +got):\n%s", diff)
			}

			require.NoError(t, s.Clear(ctx))
			got, err = s.Load(ctx)
			require.NoError(t, err)
			require.Nil(t, got)
		})
	}
}

func TestStore_SaveWithoutRefreshTokenDropsOldOne(t *testing.T) {
	identity := &models.Identity{ID: 1, Role: "admin"}
	exp := time.UnixMilli(1_760_000_000_000)

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Save(ctx, identity, "a1", "r1", exp))
			require.NoError(t, s.Save(ctx, identity, "a2", "", exp.Add(time.Hour)))

			got, err := s.Load(ctx)
			require.NoError(t, err)
			require.NotNil(t, got)
			require.Equal(t, "a2", got.Credential.AccessToken)
			require.Empty(t, got.Credential.RefreshToken)
			require.True(t, got.Credential.ExpiresAt.Equal(exp.Add(time.Hour)))
		})
	}
}

func TestStore_PartialRecordIsAbsent(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
	}{
		{"token without expiry", map[string]string{KeyCurrentUser: `{"id":1}`, KeyAccessToken: "a"}},
		{"expiry without token", map[string]string{KeyCurrentUser: `{"id":1}`, KeyTokenExpiresAt: "1000"}},
		{"bad expiry", map[string]string{KeyCurrentUser: `{"id":1}`, KeyAccessToken: "a", KeyTokenExpiresAt: "soon"}},
		{"no identity", map[string]string{KeyAccessToken: "a", KeyTokenExpiresAt: "1000"}},
		{"bad identity", map[string]string{KeyCurrentUser: `{`, KeyAccessToken: "a", KeyTokenExpiresAt: "1000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()

			mem := NewMemoryStore()
			sq := newSQLite(t)
			repo := kv.NewSQLiteRepository(sq.db)
			for k, v := range tt.values {
				mem.Put(k, []byte(v))
				require.NoError(t, repo.Set(ctx, k, []byte(v)))
			}

			for _, s := range []Store{mem, sq} {
				got, err := s.Load(ctx)
				require.NoError(t, err)
				require.Nil(t, got)
			}
		})
	}
}

func TestSQLiteStore_SaveRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("disk I/O error")
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO session_kv`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO session_kv`).WillReturnError(boom)
	mock.ExpectRollback()

	s := NewSQLiteStore(db)
	err = s.Save(context.Background(), &models.Identity{ID: 1}, "a", "r", time.Now())
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_LoadAndClearErrors(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("locked")
	mock.ExpectQuery(`SELECT key, value FROM session_kv`).WillReturnError(boom)
	mock.ExpectExec(`DELETE FROM session_kv`).WillReturnError(boom)

	s := NewSQLiteStore(db)
	_, err = s.Load(context.Background())
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, s.Clear(context.Background()), boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenSQLite_BadPath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "missing", "dir", "x.db"))
	require.Error(t, err)
}

var _ Store = (*SQLiteStore)(nil)
var _ Store = (*MemoryStore)(nil)
