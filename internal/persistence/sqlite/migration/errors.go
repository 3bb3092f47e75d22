package migration

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrMigrationFailed      = errors.New("migration execution failed")
	ErrInvalidMigrationFile = errors.New("invalid migration file format")
	ErrInvalidVersion       = errors.New("invalid migration version")
	ErrDuplicateVersion     = errors.New("duplicate migration version")
	// ErrVersionConflict reports a gap in the sequence or an applied version
	// whose file is gone.
	ErrVersionConflict = errors.New("migration version conflict")
	// ErrChecksumMismatch reports an applied file that was edited afterwards.
	ErrChecksumMismatch = errors.New("migration checksum mismatch")
)

// StepError records which step of which migration failed.
type StepError struct {
	Version string
	File    string
	Step    string
	Err     error
}

func (e *StepError) Error() string {
	var b strings.Builder
	b.WriteString("migration")
	if e.Version != "" {
		b.WriteString(" " + e.Version)
	}
	if e.File != "" {
		b.WriteString(" (" + e.File + ")")
	}
	fmt.Fprintf(&b, ": %s: %v", e.Step, e.Err)
	return b.String()
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func stepError(version, file, step string, err error) *StepError {
	return &StepError{Version: version, File: file, Step: step, Err: err}
}
