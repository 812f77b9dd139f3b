// cartstore/mysql_cartstore.go

package cartstore

import (
	"context"
	"database/sql"
	"embed"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrations embed.FS

type snapshotRow struct {
	Key       string    `db:"cart_key"`
	Payload   []byte    `db:"payload"`
	UpdatedAt time.Time `db:"updated_at"`
}

// MySQLCartStore keeps one row per cart key in the cart_snapshots table.
type MySQLCartStore struct {
	db  *sqlx.DB
	log *logrus.Entry
	now func() time.Time
}

// NewMySQLCartStore opens (lazily) a connection pool for dsn.
func NewMySQLCartStore(dsn string, log *logrus.Entry) (*MySQLCartStore, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "invalid MySQL DSN")
	}
	cfg.ParseTime = true

	db, err := sqlx.Open("mysql", cfg.FormatDSN())
	if err != nil {
		return nil, errors.Wrap(err, "failed to open MySQL")
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(3 * time.Minute)

	return &MySQLCartStore{
		db:  db,
		log: log.WithField("store", "mysql"),
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

// Initialize verifies the connection and applies pending schema migrations.
func (s *MySQLCartStore) Initialize(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.Wrap(err, "failed to connect to MySQL")
	}

	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return errors.Wrap(err, "failed to load migrations")
	}
	driver, err := migratemysql.WithInstance(s.db.DB, &migratemysql.Config{})
	if err != nil {
		return errors.Wrap(err, "failed to create migration driver")
	}
	m, err := migrate.NewWithInstance("iofs", src, "mysql", driver)
	if err != nil {
		return errors.Wrap(err, "failed to create migrator")
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "failed to apply migrations")
	}

	s.log.Info("schema is up to date")
	return nil
}

func (s *MySQLCartStore) Get(ctx context.Context, key string) ([]byte, error) {
	var row snapshotRow
	err := s.db.GetContext(ctx, &row,
		`SELECT cart_key, payload, updated_at FROM cart_snapshots WHERE cart_key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "select snapshot %s", key)
	}
	return row.Payload, nil
}

func (s *MySQLCartStore) Set(ctx context.Context, key string, value []byte) error {
	row := snapshotRow{Key: key, Payload: value, UpdatedAt: s.now()}
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO cart_snapshots (cart_key, payload, updated_at)
		VALUES (:cart_key, :payload, :updated_at)
		ON DUPLICATE KEY UPDATE payload = VALUES(payload), updated_at = VALUES(updated_at)`, row)
	if err != nil {
		return errors.Wrapf(err, "upsert snapshot %s", key)
	}
	return nil
}

func (s *MySQLCartStore) Ping(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.db.PingContext(pingCtx); err != nil {
		s.log.WithError(err).Warn("mysql ping failed")
		return false
	}
	return true
}

func (s *MySQLCartStore) Close() error {
	return s.db.Close()
}
