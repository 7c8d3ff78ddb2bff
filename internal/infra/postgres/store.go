package postgres

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Store implements the app repositories on PostgreSQL. Writes and most reads
// go through bun; the aggregation-heavy reads use the pgx pool.
type Store struct {
	db    *bun.DB
	pool  *pgxpool.Pool
	clock func() time.Time
}

func NewStore(db *bun.DB, pool *pgxpool.Pool) *Store {
	return &Store{db: db, pool: pool, clock: time.Now}
}

// OpenDB opens a bun handle for dsn.
func OpenDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func (s *Store) now() time.Time {
	return s.clock().UTC()
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isIntegrityViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.IntegrityViolation()
}

func affected(res sql.Result) int64 {
	if res == nil {
		return 0
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}
