package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

// DB wraps bun.DB and provides repository access
type DB struct {
	db  *bun.DB
	idb bun.IDB

	// Repositories
	Warehouses        WarehouseRepository
	Leases            LeaseRepository
	Services          ServiceRepository
	Users             UserRepository
	Roles             RoleRepository
	LeaseServices     LeaseServiceRepository
	WarehouseServices WarehouseServiceRepository
	UserRoles         UserRoleRepository
}

// Option is a functional option for configuring the database
type Option func(*DB)

// WithDebug enables query logging for debugging
func WithDebug(enabled bool) Option {
	return func(db *DB) {
		if enabled {
			db.db.AddQueryHook(bundebug.NewQueryHook(
				bundebug.WithVerbose(true),
			))
			log.Info().Msg("Bun query logging enabled")
		}
	}
}

// New creates a new Bun-based database connection
func New(dsn string, opts ...Option) (*DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	wrapped := &DB{db: db, idb: db}

	for _, opt := range opts {
		opt(wrapped)
	}

	wrapped.bind(db)

	if err := wrapped.Migrate(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info().Str("dsn", dsn).Msg("Bun database initialized successfully")
	return wrapped, nil
}

// bind points every repository at the given query runner, which is either
// the root connection or an open transaction.
func (db *DB) bind(idb bun.IDB) {
	db.idb = idb
	db.Warehouses = NewWarehouseRepository(idb)
	db.Leases = NewLeaseRepository(idb)
	db.Services = NewServiceRepository(idb)
	db.Users = NewUserRepository(idb)
	db.Roles = NewRoleRepository(idb)
	db.LeaseServices = NewLeaseServiceRepository(idb)
	db.WarehouseServices = NewWarehouseServiceRepository(idb)
	db.UserRoles = NewUserRoleRepository(idb)
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.db.Close()
}

// DB returns the underlying bun.DB instance for advanced operations
func (db *DB) DB() *bun.DB {
	return db.db
}

// RunInTx runs fn with a repository set bound to a single transaction.
// Returning an error rolls back everything fn did.
func (db *DB) RunInTx(ctx context.Context, fn func(ctx context.Context, tx *DB) error) error {
	return db.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		txdb := &DB{db: db.db}
		txdb.bind(tx)
		return fn(ctx, txdb)
	})
}

// Migrate runs database migrations
func (db *DB) Migrate(ctx context.Context) error {
	log.Info().Msg("Running database migrations")

	models := []interface{}{
		(*User)(nil),
		(*Role)(nil),
		(*Warehouse)(nil),
		(*Service)(nil),
		(*Lease)(nil),
		(*LeaseService)(nil),
		(*WarehouseService)(nil),
		(*UserRole)(nil),
	}

	for _, model := range models {
		if _, err := db.db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	indexes := []string{
		// One lease per (user, warehouse) pair. The booking engine also checks
		// before inserting; this index closes the check-then-insert race.
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_leases_user_warehouse ON leases(user_id, warehouse_id)",

		// Lease indexes
		"CREATE INDEX IF NOT EXISTS idx_leases_warehouse_id ON leases(warehouse_id)",
		"CREATE INDEX IF NOT EXISTS idx_leases_user_id ON leases(user_id)",

		// Warehouse indexes
		"CREATE INDEX IF NOT EXISTS idx_warehouses_code ON warehouses(code)",
		"CREATE INDEX IF NOT EXISTS idx_warehouses_available ON warehouses(available)",

		// Junction indexes for reverse lookups
		"CREATE INDEX IF NOT EXISTS idx_lease_services_lease_id ON lease_services(lease_id)",
		"CREATE INDEX IF NOT EXISTS idx_warehouse_services_warehouse_id ON warehouse_services(warehouse_id)",
		"CREATE INDEX IF NOT EXISTS idx_user_roles_user_id ON user_roles(user_id)",
	}

	for _, idx := range indexes {
		if _, err := db.db.ExecContext(ctx, idx); err != nil {
			log.Warn().Err(err).Str("index", idx).Msg("Failed to create index (may already exist)")
		}
	}

	log.Info().Msg("Database migrations completed successfully")
	return nil
}

// IsConflict reports whether err is a store-level unique constraint rejection.
func IsConflict(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Clean removes all data from all tables (useful for development/testing)
// WARNING: This will delete ALL data in the database!
func (db *DB) Clean(ctx context.Context) error {
	log.Warn().Msg("Cleaning all data from database")

	// Delete in order to respect foreign key constraints
	tables := []string{
		"lease_services",
		"warehouse_services",
		"user_roles",
		"leases",
		"warehouses",
		"services",
		"roles",
		"users",
	}

	for _, table := range tables {
		_, err := db.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			log.Error().Err(err).Str("table", table).Msg("Failed to clean table")
		} else {
			log.Debug().Str("table", table).Msg("Cleaned table")
		}
	}

	log.Info().Msg("Database cleaned successfully")
	return nil
}
