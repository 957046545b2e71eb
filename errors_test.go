package mau

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMatchesByCode(t *testing.T) {
	err := newError(BusyErrorCode, "chat %s busy", "12345")
	assert.ErrorIs(t, err, ErrBusy)
	assert.NotErrorIs(t, err, ErrFormNotFound)
	assert.Contains(t, err.Error(), "EBUSY")
	assert.Contains(t, err.Error(), "12345")
}

func TestErrorWrapsCause(t *testing.T) {
	err := wrapError(SessionErrorCode, io.ErrUnexpectedEOF, "load session %s", "form:12345")
	assert.ErrorIs(t, err, ErrSession)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Contains(t, err.Error(), "form:12345")

	var me *Error
	require.True(t, errors.As(err, &me))
	assert.Equal(t, SessionErrorCode, me.Code)
}

func TestSentinelCodes(t *testing.T) {
	for _, tc := range []struct {
		sentinel *Error
		code     string
	}{
		{ErrBusy, BusyErrorCode},
		{ErrFormNotFound, FormNotFoundErrorCode},
		{ErrI18n, I18nErrorCode},
		{ErrQueryNotFound, QueryNotFoundErrorCode},
		{ErrSession, SessionErrorCode},
	} {
		assert.Equal(t, tc.code, tc.sentinel.Code)
	}
}
