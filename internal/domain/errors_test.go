package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorConstants(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"ErrInvalidArgument", ErrInvalidArgument, "invalid argument"},
		{"ErrNotFound", ErrNotFound, "not found"},
		{"ErrUpstream", ErrUpstream, "upstream error"},
		{"ErrUpstreamTimeout", ErrUpstreamTimeout, "upstream timeout"},
		{"ErrSchemaInvalid", ErrSchemaInvalid, "schema invalid"},
		{"ErrInternal", ErrInternal, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestErrorIs_Wrapped(t *testing.T) {
	t.Parallel()
	err := fmt.Errorf("op=products.Get: %w", ErrNotFound)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrInternal))
}

func TestQuizType_Valid(t *testing.T) {
	t.Parallel()
	assert.True(t, QuizInsurance.Valid())
	assert.True(t, QuizValues.Valid())
	assert.False(t, QuizType("career").Valid())
	assert.False(t, QuizType("").Valid())
}
