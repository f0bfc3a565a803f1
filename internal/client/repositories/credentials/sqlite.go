package credentials

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/rainwise/internal/client/migrations"
	"github.com/dmitrijs2005/rainwise/internal/client/repositories/kv"
	"github.com/dmitrijs2005/rainwise/internal/dbx"
	"github.com/dmitrijs2005/rainwise/internal/models"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps the session in the session_kv table. Writes go through
// a single transaction so the four keys change together.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens dsn with the pure-Go driver and applies migrations.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrations.Up(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewSQLiteStore(db), nil
}

// NewSQLiteStore wraps an already migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Save(ctx context.Context, identity *models.Identity, accessToken, refreshToken string, expiresAt time.Time) error {
	values, err := encode(identity, accessToken, refreshToken, expiresAt)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := kv.NewSQLiteRepository(tx)
		for _, key := range AllKeys {
			v, ok := values[key]
			if !ok {
				if err := repo.Delete(ctx, key); err != nil {
					return err
				}
				continue
			}
			if err := repo.Set(ctx, key, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *SQLiteStore) Load(ctx context.Context) (*models.StoredSession, error) {
	values, err := kv.NewSQLiteRepository(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return decode(values), nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if err := kv.NewSQLiteRepository(s.db).Delete(ctx, AllKeys...); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
