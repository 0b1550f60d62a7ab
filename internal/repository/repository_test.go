package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapNoRows(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{name: "no rows", in: pgx.ErrNoRows, want: ErrNotFound},
		{name: "wrapped no rows", in: fmt.Errorf("scan: %w", pgx.ErrNoRows), want: ErrNotFound},
		{name: "malformed uuid", in: &pgconn.PgError{Code: "22P02", Message: "invalid input syntax for type uuid"}, want: ErrNotFound},
		{name: "nil", in: nil, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapNoRows(tt.in)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}

	other := &pgconn.PgError{Code: "23503"}
	assert.False(t, errors.Is(mapNoRows(other), ErrNotFound), "foreign key errors pass through")
}

func TestCheckID(t *testing.T) {
	assert.NoError(t, checkID(uuid.NewString()))
	assert.ErrorIs(t, checkID("abc"), ErrNotFound)
	assert.ErrorIs(t, checkID(""), ErrNotFound)
}
