package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPool_InvalidDSN(t *testing.T) {
	t.Parallel()
	_, err := NewPool(context.Background(), "://bad")
	assert.Error(t, err)
}

func TestKeywordFilter(t *testing.T) {
	t.Parallel()
	where, args := keywordFilter([]string{"癌症", "", "重大疾病"})
	assert.Equal(t, "(name LIKE $1 OR description LIKE $1 OR source LIKE $1) OR (name LIKE $2 OR description LIKE $2 OR source LIKE $2)", where)
	assert.Equal(t, []any{"%癌症%", "%重大疾病%"}, args)

	where, args = keywordFilter(nil)
	assert.Empty(t, where)
	assert.Empty(t, args)
}
