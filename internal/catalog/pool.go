package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/flashcat/flash/internal/logging"
	"github.com/flashcat/flash/internal/metrics"
)

// driverName is the flash-specific SQLite driver: every new connection gets
// the shared pragma set applied before it is handed to database/sql's pool,
// per §4.2 "On each handle creation: set journal to WAL, synchronous
// NORMAL, temp store memory, mmap 256 MiB, page size 4 KiB."
const driverName = "sqlite3_flash"

const (
	// mmapSize is the per-connection mmap window, §4.2.
	mmapSize = 256 * 1024 * 1024
	// pageSize only takes effect on a fresh database file.
	pageSize = 4096
	// defaultPoolSize is the bounded pool size, §4.2.
	defaultPoolSize = 10
)

var registerOnce sync.Once

func registerDriver() {
	registerOnce.Do(func() {
		sql.Register(driverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				pragmas := []string{
					"PRAGMA journal_mode = WAL",
					"PRAGMA synchronous = NORMAL",
					"PRAGMA temp_store = MEMORY",
					fmt.Sprintf("PRAGMA mmap_size = %d", mmapSize),
					fmt.Sprintf("PRAGMA page_size = %d", pageSize),
					"PRAGMA foreign_keys = ON",
					"PRAGMA busy_timeout = 5000",
				}
				for _, p := range pragmas {
					if _, err := conn.Exec(p, nil); err != nil {
						return fmt.Errorf("apply %q: %w", p, err)
					}
				}
				return nil
			},
		})
	})
}

func init() {
	registerDriver()
}

// Catalog is the persistent store, backed by a bounded pool of handles that
// all share the pragmas above (§4.1, §4.2). Schema application happens once,
// on Open, not per-handle.
type Catalog struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the catalog at path and applies schema.
func Open(ctx context.Context, path string) (*Catalog, error) {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", path)

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	db.SetMaxOpenConns(defaultPoolSize)
	db.SetMaxIdleConns(defaultPoolSize)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping catalog: %w", err)
	}

	c := &Catalog{db: db, path: path}
	if err := c.applySchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	logging.Info("catalog opened: path=%s pool=%d mmap=%dMiB", path, defaultPoolSize, mmapSize/(1024*1024))
	return c, nil
}

func (c *Catalog) applySchema(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, schema)
	return err
}

// Close closes the underlying pool.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// DB exposes the raw *sql.DB for components (e.g. stats) that need direct
// read-only access without duplicating query helpers.
func (c *Catalog) DB() *sql.DB { return c.db }

// observeQuery wraps a catalog operation with Prometheus instrumentation,
// mirroring the teacher's done()-closure pattern.
func observeQuery(operation string) func(error) {
	start := time.Now()
	return func(err error) {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.CatalogQueryTotal.WithLabelValues(operation, status).Inc()
		metrics.CatalogQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
