// Package database provides the SQLite connection used by the audit trail.
//
// It opens the database with WAL mode and a busy timeout, and applies
// up-only migrations registered by the migrations package:
//
//	db, err := database.Open(cfg.Database)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
//
// All queries use parameterised statements. The database file is created
// with 0600 permissions.
package database
