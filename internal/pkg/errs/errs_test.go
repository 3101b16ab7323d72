package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewError_UsesTableStatus(t *testing.T) {
	err := NewError(ErrParticipantNameTaken)

	assert.Equal(t, ErrParticipantNameTaken, err.Code)
	assert.Equal(t, http.StatusConflict, err.Status)
	assert.NotEmpty(t, err.Message)
}

func TestNewError_DefaultsToBadRequest(t *testing.T) {
	err := NewError(ErrInvalidJSONFormat)

	assert.Equal(t, http.StatusBadRequest, err.Status)
}

func TestNewError_UnknownCode(t *testing.T) {
	err := NewError(424242)

	assert.Equal(t, ErrUnknown, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.Status)
}

func TestErrorsIs_MatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("join: %w", Wrap(ErrStoreUnavailable, errors.New("connection refused")))

	assert.ErrorIs(t, wrapped, NewError(ErrStoreUnavailable))
	assert.NotErrorIs(t, wrapped, NewError(ErrParticipantNotFound))
	assert.True(t, HasCode(wrapped, ErrStoreUnavailable))
}

func TestWrap_KeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(ErrStoreUnavailable, cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
}

func TestFrom(t *testing.T) {
	assert.Nil(t, From(nil))

	coded := NewError(ErrMessageNotFound)
	assert.Same(t, coded, From(fmt.Errorf("delete: %w", coded)))

	plain := From(errors.New("boom"))
	require.NotNil(t, plain)
	assert.Equal(t, ErrUnknown, plain.Code)
	assert.Equal(t, http.StatusInternalServerError, plain.Status)
}
