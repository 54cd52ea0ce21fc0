package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Constructors(t *testing.T) {
	notFound := NotFound("missing")
	assert.Equal(t, http.StatusNotFound, notFound.Status)
	assert.Equal(t, CodeNotFound, notFound.Code)
	assert.True(t, stderrors.Is(notFound, ErrNotFound))

	badReq := BadRequest("bad request")
	assert.Equal(t, http.StatusBadRequest, badReq.Status)
	assert.Equal(t, "bad request", badReq.Error())

	unauth := Unauthorized("unauthorized")
	assert.Equal(t, http.StatusUnauthorized, unauth.Status)
	assert.Equal(t, CodeUnauthorized, unauth.Code)

	forbidden := Forbidden("forbidden")
	assert.Equal(t, http.StatusForbidden, forbidden.Status)

	conflict := Conflict("exists")
	assert.Equal(t, http.StatusConflict, conflict.Status)
	assert.True(t, stderrors.Is(conflict, ErrAlreadyExists))

	internal := InternalError(stderrors.New("db down"))
	assert.Equal(t, http.StatusInternalServerError, internal.Status)
	assert.Equal(t, CodeInternal, internal.Code)
	assert.True(t, stderrors.Is(internal, ErrInternal))
}

func TestAppError_Taxonomy(t *testing.T) {
	cases := []struct {
		name     string
		err      *AppError
		sentinel error
		code     string
	}{
		{"validation", Validation("amount", "Amount must be greater than zero."), ErrValidation, CodeValidation},
		{"configuration", Configuration(CodeNoConfig, "no config"), ErrConfiguration, CodeNoConfig},
		{"auth", Auth("token rejected"), ErrAuth, CodeAuth},
		{"provider", Provider(CodeProvider, "upstream", stderrors.New("timeout")), ErrProvider, CodeProvider},
		{"provider nil cause", Provider(CodeProviderResult, "bad envelope", nil), ErrProvider, CodeProviderResult},
		{"persistence", Persistence("write failed", stderrors.New("locked")), ErrPersistence, CodePersistFailed},
		{"not yet available", NotYetAvailable("no transactions"), ErrNotYetAvailable, CodeNotYetAvailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, stderrors.Is(tc.err, tc.sentinel))
			assert.Equal(t, tc.code, tc.err.Code)

			wrapped := fmt.Errorf("outer: %w", tc.err)
			got, ok := As(wrapped)
			assert.True(t, ok)
			assert.Equal(t, tc.err, got)
			assert.True(t, Is(wrapped, tc.sentinel))
		})
	}
}

func TestAppError_NotYetAvailableIsNotNotFound(t *testing.T) {
	err := NotYetAvailable("pending")
	assert.False(t, stderrors.Is(err, ErrNotFound))
}

func TestAppError_ValidationField(t *testing.T) {
	err := Validation("expiry_date", "Expiry date must be in the future.")
	assert.Equal(t, "expiry_date", err.Field)
	assert.Equal(t, "Expiry date must be in the future.", err.Error())
}

func TestAppError_ErrorFallbacks(t *testing.T) {
	assert.Equal(t, "cause", (&AppError{Err: stderrors.New("cause")}).Error())
	assert.Equal(t, http.StatusText(http.StatusTeapot), (&AppError{Status: http.StatusTeapot}).Error())
}

func TestAs_NonAppError(t *testing.T) {
	_, ok := As(stderrors.New("plain"))
	assert.False(t, ok)
}
