package database

import (
	"database/sql"
	"embed"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/hashicorp/go-multierror"
	_ "github.com/lib/pq"
)

// Bakery is the shared connection pool, initialised by ConnectAndMigrate.
var Bakery *sql.DB

//go:embed migrations/*.sql
var migrationFS embed.FS

func ConnectAndMigrate(databaseURL string) error {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		return err
	}

	Bakery = db
	return migrateUp(db)
}

func migrateUp(db *sql.DB) error {
	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return err
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

// Tx runs fn inside a transaction: commit on nil, rollback otherwise. A
// rollback failure is joined to the original error so neither is lost.
func Tx(fn func(tx *sql.Tx) error) error {
	tx, err := Bakery.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return multierror.Append(err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

func Shutdown() error {
	if Bakery == nil {
		return nil
	}
	return Bakery.Close()
}
