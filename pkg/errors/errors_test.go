package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := fmt.Errorf("socket closed")
	err := Wrap(CodeDependency, cause, "color endpoint failed")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, CodeDependency, err.Code())
	assert.Equal(t, "color endpoint failed", err.Message())
	assert.Equal(t, "DEPENDENCY_ERROR: color endpoint failed", err.Error())
}

func TestAsUnwrapsThroughChain(t *testing.T) {
	t.Parallel()

	inner := New(CodeNotFound, "item missing")
	wrapped := fmt.Errorf("loading item: %w", inner)

	typed := As(wrapped)
	require.NotNil(t, typed)
	assert.Equal(t, CodeNotFound, typed.Code())
	assert.True(t, IsCode(wrapped, CodeNotFound))
	assert.False(t, IsCode(wrapped, CodeConflict))
}

func TestAsReturnsNilForUntyped(t *testing.T) {
	t.Parallel()

	assert.Nil(t, As(fmt.Errorf("plain")))
	assert.Nil(t, As(nil))
}

func TestMetadataMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeNotFound, http.StatusNotFound},
		{CodeRateLimit, http.StatusTooManyRequests},
		{CodeDependency, http.StatusBadGateway},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.status, MetadataFor(tc.code).HTTPStatus, string(tc.code))
	}
}

func TestWithDetails(t *testing.T) {
	t.Parallel()

	err := New(CodeValidation, "bad payload").WithDetails(map[string]string{"color": "is required"})
	require.NotNil(t, err.Details())
}
