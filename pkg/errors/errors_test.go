package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := &Error{Type: ErrorTypeNotFound, Message: "user not found", Code: 404}
	assert.Equal(t, "not_found error (code 404): user not found", err.Error())

	wrapped := Wrap(ErrorTypeStoreUnavailable, "persist profile", stderrors.New("disk full"))
	assert.Contains(t, wrapped.Error(), "store_unavailable")
	assert.Contains(t, wrapped.Error(), "disk full")
}

func TestIsTypeWalksChain(t *testing.T) {
	inner := &Error{Type: ErrorTypeAuth, Message: "cookies expired", Code: 401}
	outer := Wrap(ErrorTypeSourceUnavailable, "fetch profile", inner)
	viaFmt := fmt.Errorf("pipeline: %w", outer)

	assert.True(t, IsType(viaFmt, ErrorTypeSourceUnavailable))
	assert.True(t, IsType(viaFmt, ErrorTypeAuth))
	assert.False(t, IsType(viaFmt, ErrorTypeNotFound))
	assert.False(t, IsType(nil, ErrorTypeAuth))
	assert.False(t, IsType(stderrors.New("plain"), ErrorTypeAuth))
}

func TestRootAndTypeOf(t *testing.T) {
	inner := &Error{Type: ErrorTypeRateLimit, Message: "slow down", Code: 429}
	outer := Wrap(ErrorTypeSourceUnavailable, "fetch profile", inner)

	assert.Equal(t, ErrorTypeSourceUnavailable, TypeOf(outer))
	assert.Same(t, inner, Root(outer))
	assert.Nil(t, Root(stderrors.New("plain")))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(stderrors.New("plain")))
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		want      bool
	}{
		{ErrorTypeNetwork, true},
		{ErrorTypeRateLimit, true},
		{ErrorTypeServerError, true},
		{ErrorTypeStoreUnavailable, true},
		{ErrorTypeAuth, false},
		{ErrorTypeNotFound, false},
		{ErrorTypeMalformedSourceData, false},
		{ErrorTypeProfileNotFound, false},
		{ErrorTypeUnknown, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.errorType), func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.errorType))
		})
	}
}

func TestIsRetryableStatusCode(t *testing.T) {
	assert.True(t, IsRetryableStatusCode(0))
	assert.True(t, IsRetryableStatusCode(429))
	assert.True(t, IsRetryableStatusCode(503))
	assert.True(t, IsRetryableStatusCode(599))
	assert.False(t, IsRetryableStatusCode(404))
	assert.False(t, IsRetryableStatusCode(401))
	assert.False(t, IsRetryableStatusCode(400))
}
