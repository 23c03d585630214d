package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	"github.com/bitandsolution/stadium-hospitality-sub000/internal/apperr"
)

// versionColumn is the column every versioned table uses as its lock token.
const versionColumn = "updated_at"

// Versioned is a bun model guarded by an updated_at version column.
// The model's primary key must be set.
type Versioned interface {
	Version() time.Time
	SetVersion(time.Time)
}

// NormalizeVersion brings a timestamp to the precision both dialects store.
func NormalizeVersion(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

// NextVersion returns a version strictly after expected, normally now.
func NextVersion(expected, now time.Time) time.Time {
	next := NormalizeVersion(now)
	if !next.After(expected) {
		next = NormalizeVersion(expected).Add(time.Microsecond)
	}
	return next
}

// CompareAndSwap writes columns of model in a single conditional UPDATE
// whose predicate includes updated_at = expected. When no row matches,
// nothing is written and the result is NOT_FOUND if the row is gone or
// VERSION_CONFLICT (with the current version as detail) otherwise.
//
// On success model carries the new version. On failure its version is
// left at expected.
func CompareAndSwap(ctx context.Context, db bun.IDB, model Versioned, expected, now time.Time, columns ...string) error {
	expected = NormalizeVersion(expected)
	model.SetVersion(NextVersion(expected, now))

	cols := append(append([]string(nil), columns...), versionColumn)
	result, err := db.NewUpdate().
		Model(model).
		Column(cols...).
		WherePK().
		Where(versionColumn+" = ?", expected).
		Exec(ctx)
	if err != nil {
		model.SetVersion(expected)
		return fmt.Errorf("conditional update: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 1 {
		return nil
	}
	model.SetVersion(expected)

	var current time.Time
	err = db.NewSelect().
		Model(model).
		Column(versionColumn).
		WherePK().
		Scan(ctx, &current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperr.NotFound("record not found")
		}
		return fmt.Errorf("load current version: %w", err)
	}

	return apperr.New(apperr.CodeVersionConflict, "record was modified by another user").
		WithDetail("current_version", NormalizeVersion(current))
}
