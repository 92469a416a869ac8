// Package database provides SQLite connectivity for the gateway's signal journal.
//
// This package manages:
//   - Opening the database file with WAL mode and a busy timeout
//   - Forward and rollback schema migrations from an fs.FS
//   - Health checks for the status API
//
// The registry itself is never persisted; only the append-only journal
// lives here.
//
// Usage:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migration files are named YYYYMMDD_HHMMSS_description.up.sql with an
// optional matching .down.sql.
package database
