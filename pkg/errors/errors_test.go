package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorIncludesInternal(t *testing.T) {
	err := New("TEST", "failed", http.StatusInternalServerError).WithInternal(stdErrors.New("boom"))
	require.Equal(t, "failed: boom", err.Error())
	require.Equal(t, "failed", New("TEST", "failed", http.StatusTeapot).Error())

	var nilErr *AppError
	require.Equal(t, "<nil>", nilErr.Error())
}

func TestWithInternalCopies(t *testing.T) {
	base := New("TEST", "test", http.StatusBadRequest)
	with := base.WithInternal(stdErrors.New("oops"))

	require.NotSame(t, base, with)
	require.Nil(t, base.Internal)
	require.NotNil(t, with.Internal)
}

func TestFromError(t *testing.T) {
	require.Same(t, ErrNotFound, FromError(ErrNotFound))

	out := FromError(stdErrors.New("raw"))
	require.Equal(t, ErrInternalServer.Code, out.Code)
	require.NotNil(t, out.Internal)

	require.Nil(t, FromError(nil))
}

func TestIsMatchesDerivedCopies(t *testing.T) {
	derived := ErrForbidden.WithInternal(stdErrors.New("token expired"))
	wrapped := fmt.Errorf("dismiss: %w", derived)

	require.ErrorIs(t, wrapped, ErrForbidden)
	require.NotErrorIs(t, wrapped, ErrNotFound)
}

func TestNewBadRequest(t *testing.T) {
	err := NewBadRequest("invalid payload")
	require.Equal(t, ErrBadRequest.Code, err.Code)
	require.Equal(t, "invalid payload", err.Message)
	require.Equal(t, ErrBadRequest.StatusCode, err.StatusCode)
}
