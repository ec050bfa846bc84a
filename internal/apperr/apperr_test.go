package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cheapshop/backend/internal/apperr"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want apperr.Kind
	}{
		{"plain_kind", apperr.New(apperr.NotFound, "order 7 not found"), apperr.NotFound},
		{"wrapped_kind", fmt.Errorf("service: %w", apperr.New(apperr.InsufficientStock, "no stock")), apperr.InsufficientStock},
		{"foreign_error", errors.New("boom"), apperr.Internal},
		{"deeply_wrapped", fmt.Errorf("a: %w", fmt.Errorf("b: %w", apperr.New(apperr.NotPending, "nope"))), apperr.NotPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperr.KindOf(tt.err))
		})
	}
}

func TestIsKind(t *testing.T) {
	err := apperr.Wrap(apperr.Unavailable, "storage unavailable", errors.New("dial tcp: refused"))

	assert.True(t, apperr.IsKind(err, apperr.Unavailable))
	assert.False(t, apperr.IsKind(err, apperr.NotFound))
	assert.True(t, errors.Is(err, apperr.New(apperr.Unavailable, "anything")), "matching is by kind, not message")
}

func TestErrorMessageIncludesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := apperr.Wrap(apperr.Unavailable, "storage unavailable", cause)

	assert.Equal(t, "storage unavailable: connection reset", err.Error())
	assert.Equal(t, cause, errors.Unwrap(err))
}
