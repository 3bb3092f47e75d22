// Package migration applies versioned SQL files to a SQLite database.
//
// Files are named {version}_{description}.sql and are read from an fs.FS, so
// the schema can be embedded in the binary. Applied versions are tracked in
// the schema_migrations table; each file runs in its own transaction together
// with its tracking row.
//
//	manager := migration.NewManager(migration.NewScanner(files, "migrations"), migration.NewExecutor(db), logger)
//	if err := manager.Run(ctx); err != nil {
//		return err
//	}
package migration
