package migration

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Manager orchestrates scanning, validation and execution of migrations.
type Manager struct {
	scanner  *Scanner
	executor *Executor
	logger   *slog.Logger
}

// NewManager wires a scanner and executor together. A nil logger uses slog.Default().
func NewManager(scanner *Scanner, executor *Executor, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{scanner: scanner, executor: executor, logger: logger.With("component", "migration")}
}

// Run applies every pending migration in version order and stops at the first failure.
func (m *Manager) Run(ctx context.Context) error {
	started := time.Now()

	status, err := m.Status(ctx)
	if err != nil {
		return err
	}
	if len(status.Pending) == 0 {
		m.logger.Info("schema up to date", "version", status.CurrentVersion)
		return nil
	}

	m.logger.Info("applying migrations", "from_version", status.CurrentVersion, "pending", len(status.Pending))
	for i, migration := range status.Pending {
		stepStarted := time.Now()
		m.logger.Info("executing migration",
			"version", migration.Version,
			"description", migration.Description,
			"step", i+1,
			"total", len(status.Pending),
		)
		if err := m.executor.Execute(ctx, migration); err != nil {
			m.logger.Error("migration failed", "version", migration.Version, "file", migration.FilePath, "error", err)
			return stepError(migration.Version, migration.FilePath, "execute migration",
				fmt.Errorf("%w: %w", ErrMigrationFailed, err))
		}
		m.logger.Debug("migration applied", "version", migration.Version, "duration", time.Since(stepStarted))
	}

	m.logger.Info("migrations complete", "count", len(status.Pending), "duration", time.Since(started))
	return nil
}

// Status compares the files on disk with the tracking table.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return Status{}, err
	}
	available, err := m.scanner.Scan()
	if err != nil {
		return Status{}, err
	}
	applied, err := m.executor.Applied(ctx)
	if err != nil {
		return Status{}, err
	}
	if err := validateSequence(available, applied); err != nil {
		return Status{}, err
	}

	appliedSet := make(map[int]bool, len(applied))
	status := Status{Applied: applied}
	for _, row := range applied {
		appliedSet[versionNumber(row.Version)] = true
		status.CurrentVersion = row.Version
	}
	for _, migration := range available {
		if !appliedSet[versionNumber(migration.Version)] {
			status.Pending = append(status.Pending, migration)
		}
	}
	return status, nil
}

// validateSequence rejects gaps, applied versions with no file, and edited files.
func validateSequence(available []Migration, applied []AppliedMigration) error {
	files := make(map[int]Migration, len(available))
	for i, migration := range available {
		number := versionNumber(migration.Version)
		if i > 0 && number != versionNumber(available[i-1].Version)+1 {
			return fmt.Errorf("%w: missing migration version %03d in sequence", ErrVersionConflict, versionNumber(available[i-1].Version)+1)
		}
		files[number] = migration
	}
	for _, row := range applied {
		migration, ok := files[versionNumber(row.Version)]
		if !ok {
			return fmt.Errorf("%w: applied migration %s not found in available migrations", ErrVersionConflict, row.Version)
		}
		if row.Checksum != "" && row.Checksum != migration.Checksum {
			return stepError(row.Version, migration.FilePath, "verify checksum", ErrChecksumMismatch)
		}
	}
	return nil
}
