package validators

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/shyammm53/wardrobe-backend/pkg/errors"
)

type samplePayload struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

func TestDecodeJSONBodyValid(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@b.com","password":"longenough"}`))
	var payload samplePayload
	require.NoError(t, DecodeJSONBody(r, &payload))
	assert.Equal(t, "a@b.com", payload.Email)
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"a@b.com","password":"longenough","extra":1}`))
	var payload samplePayload
	err := DecodeJSONBody(r, &payload)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"email":"not-an-email","password":"short"}`))
	var payload samplePayload
	err := DecodeJSONBody(r, &payload)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "email")
	assert.Contains(t, details, "password")
}
