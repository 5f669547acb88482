package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/scry-activities/internal/store"
)

type mockResult struct {
	rowsAffected int64
	err          error
}

func (m mockResult) LastInsertId() (int64, error) { return 0, nil }

func (m mockResult) RowsAffected() (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.rowsAffected, nil
}

func newPgError(code string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           code,
		Message:        "error message",
		TableName:      "content_documents",
		ColumnName:     "title",
		ConstraintName: "content_documents_content_type_check",
	}
}

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		notFound error
		expected error
	}{
		{name: "no rows default", err: sql.ErrNoRows, expected: store.ErrNotFound},
		{name: "no rows specific", err: sql.ErrNoRows, notFound: store.ErrQuizNotFound, expected: store.ErrQuizNotFound},
		{name: "wrapped no rows", err: fmt.Errorf("scan: %w", sql.ErrNoRows), expected: store.ErrNotFound},
		{name: "unique violation", err: newPgError(uniqueViolationCode), expected: store.ErrDuplicate},
		{name: "foreign key violation", err: newPgError(foreignKeyViolationCode), expected: store.ErrInvalidEntity},
		{name: "check violation", err: newPgError(checkViolationCode), expected: store.ErrInvalidEntity},
		{name: "not null violation", err: newPgError(notNullViolationCode), expected: store.ErrInvalidEntity},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, MapError(tc.err, tc.notFound), tc.expected)
		})
	}

	assert.NoError(t, MapError(nil, nil))

	other := errors.New("connection refused")
	assert.Equal(t, other, MapError(other, nil))
	assert.Equal(t, newPgError("42P01").Code, MapError(newPgError("42P01"), nil).(*pgconn.PgError).Code)
}

func TestViolationPredicates(t *testing.T) {
	t.Parallel()

	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", newPgError(uniqueViolationCode))))
	assert.False(t, IsUniqueViolation(newPgError(foreignKeyViolationCode)))
	assert.True(t, IsForeignKeyViolation(newPgError(foreignKeyViolationCode)))
	assert.False(t, IsForeignKeyViolation(errors.New("plain")))
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	assert.NoError(t, CheckRowsAffected(mockResult{rowsAffected: 1}, store.ErrWorkoutNotFound))
	assert.ErrorIs(t, CheckRowsAffected(mockResult{}, store.ErrWorkoutNotFound), store.ErrWorkoutNotFound)
	assert.ErrorIs(t, CheckRowsAffected(mockResult{}, nil), store.ErrNotFound)
	assert.Error(t, CheckRowsAffected(mockResult{err: errors.New("driver")}, nil))
	assert.Error(t, CheckRowsAffected(nil, nil))
}
