package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusByKind(t *testing.T) {
	cases := map[Kind]int{
		KindNotFound:       http.StatusNotFound,
		KindValidation:     http.StatusBadRequest,
		KindStateConflict:  http.StatusConflict,
		KindPolicy:         http.StatusUnprocessableEntity,
		KindForbidden:      http.StatusForbidden,
		KindInfrastructure: http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, New(kind, "x").HTTPStatus(), "kind %d", kind)
	}
}

func TestGetKindUnwrapsChain(t *testing.T) {
	base := StateConflict("lead is not pending assignment")
	wrapped := fmt.Errorf("claim: %w", base)

	assert.Equal(t, KindStateConflict, GetKind(wrapped))
	assert.True(t, Is(wrapped, KindStateConflict))
	assert.Equal(t, KindUnknown, GetKind(errors.New("plain")))
}

func TestInfrastructureKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Infrastructure("lock lead", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "lock lead: connection reset", err.Error())
	assert.Equal(t, "claim: lock lead: connection reset", err.WithOp("claim").Error())
	assert.Equal(t, "lead not found", NotFound("lead not found").Error())
}

func TestUnknownKindMapsToInternal(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, New(KindUnknown, "x").HTTPStatus())
	assert.Equal(t, "state_conflict", KindStateConflict.String())
	assert.Equal(t, "kind(99)", Kind(99).String())
}
