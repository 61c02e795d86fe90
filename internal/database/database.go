package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // embedded SQLite driver
)

// Dialect names the SQL flavour behind a DBClient.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// DBClient holds the database connection shared by every store.
type DBClient struct {
	db      *sql.DB
	dialect Dialect
	logger  *zap.Logger
}

// Open connects to the database and verifies the connection with a ping.
func Open(ctx context.Context, driver, dsn string, logger *zap.Logger) (*DBClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dialect := Dialect(driver)
	switch dialect {
	case SQLite:
		dsn = sqliteDSN(dsn)
	case Postgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if dialect == SQLite {
		// One writer at a time; transactions queue on the pool.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.Info("database connected", zap.String("dialect", string(dialect)))
	return &DBClient{db: db, dialect: dialect, logger: logger}, nil
}

// Migrate creates the tables the stores need if they do not exist yet.
func (c *DBClient) Migrate(ctx context.Context) error {
	statements := sqliteSchema
	if c.dialect == Postgres {
		statements = postgresSchema
	}
	for _, stmt := range statements {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	c.logger.Info("database schema ready", zap.Int("statements", len(statements)))
	return nil
}

// Close closes the database connection
func (c *DBClient) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.logger.Info("database connection closed", zap.String("dialect", string(c.dialect)))
	return err
}

// GetDB returns the underlying *sql.DB instance
func (c *DBClient) GetDB() *sql.DB {
	return c.db
}

// Dialect returns the SQL flavour of the connection.
func (c *DBClient) Dialect() Dialect {
	return c.dialect
}

// sqliteDSN adds the foreign_keys and busy_timeout pragmas to dsn unless it
// already sets them.
func sqliteDSN(dsn string) string {
	for _, pragma := range []struct{ name, value string }{
		{"foreign_keys", "_pragma=foreign_keys(1)"},
		{"busy_timeout", "_pragma=busy_timeout(5000)"},
	} {
		if strings.Contains(dsn, pragma.name) {
			continue
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + pragma.value
	}
	return dsn
}
