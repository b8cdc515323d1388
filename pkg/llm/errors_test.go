package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryForStatus(t *testing.T) {
	tests := []struct {
		code int
		want ErrorCategory
	}{
		{401, CategoryAuth},
		{403, CategoryAuth},
		{429, CategoryRateLimit},
		{408, CategoryTimeout},
		{400, CategoryMalformed},
		{422, CategoryMalformed},
		{500, CategoryTransport},
		{502, CategoryTransport},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, categoryForStatus(tc.code), "status %d", tc.code)
	}
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorCategory
	}{
		{context.DeadlineExceeded, CategoryTimeout},
		{errors.New("429 Too Many Requests"), CategoryRateLimit},
		{errors.New("rate limit exceeded"), CategoryRateLimit},
		{errors.New("invalid API key provided"), CategoryAuth},
		{errors.New("request timeout"), CategoryTimeout},
		{errors.New("blocked by content filter"), CategoryFiltered},
		{errors.New("connection refused"), CategoryTransport},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, categorize(tc.err), "error %v", tc.err)
	}
}

func TestAsErrorUnwraps(t *testing.T) {
	base := NewError(CategoryAuth, errors.New("401 unauthorized"))
	wrapped := fmt.Errorf("stream failed: %w", base)

	got, ok := AsError(wrapped)
	require.True(t, ok)
	assert.Equal(t, CategoryAuth, got.Category)
	assert.True(t, errors.Is(wrapped, base))
}
