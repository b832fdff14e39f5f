package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/stockroyale/internal/domain"
)

func fastRetrier(maxRetries int) *Retrier {
	r := NewRetrier(zerolog.Nop(), nil)
	r.maxRetries = maxRetries
	r.initialInterval = 1 * time.Millisecond
	r.maxInterval = 2 * time.Millisecond
	r.maxElapsedTime = time.Second
	return r
}

func TestRetrierRetriesOnRetryableError(t *testing.T) {
	r := fastRetrier(2)

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		if attempts < 2 {
			return &pgconn.PgError{Code: pgErrDeadlock}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestRetrierRetriesDomainConflict(t *testing.T) {
	r := fastRetrier(2)

	attempts := 0
	err := r.Retry(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return domain.ErrConcurrencyConflict
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetrierStopsOnPermanentError(t *testing.T) {
	r := fastRetrier(3)
	attempts := 0
	permanentErr := errors.New("permanent")

	err := r.Retry(context.Background(), func() error {
		attempts++
		return permanentErr
	})

	require.ErrorIs(t, err, permanentErr)
	assert.Equal(t, 1, attempts)
}

func TestRetrierExhaustedReportsConflict(t *testing.T) {
	r := fastRetrier(2)
	attempts := 0
	serialization := &pgconn.PgError{Code: pgErrSerializationFailure}

	err := r.Retry(context.Background(), func() error {
		attempts++
		return serialization
	})

	require.ErrorIs(t, err, domain.ErrConcurrencyConflict)
	assert.True(t, domain.IsRetryable(err))

	var pgErr *pgconn.PgError
	require.ErrorAs(t, err, &pgErr)
	assert.Equal(t, pgErrSerializationFailure, pgErr.Code)
	assert.Equal(t, 3, attempts)
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"deadlock", &pgconn.PgError{Code: pgErrDeadlock}, true},
		{"serialization", &pgconn.PgError{Code: pgErrSerializationFailure}, true},
		{"unique violation", &pgconn.PgError{Code: pgErrUniqueViolation}, false},
		{"domain conflict", domain.ErrConcurrencyConflict, true},
		{"domain not found", domain.ErrStockNotFound, false},
		{"generic", errors.New("other"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRetryableError(tt.err))
		})
	}
}
