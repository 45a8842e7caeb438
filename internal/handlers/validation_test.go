package handlers

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/noticeboard/pkg/validator"
)

func TestFormatValidationError(t *testing.T) {
	err := validator.ValidationErrors{
		{Field: "slug", Tag: "slug"},
		{Field: "scope", Tag: "oneof", Param: "user transient"},
		{Field: "ttl_seconds", Tag: "gte", Param: "0"},
		{Field: "buttons", Tag: "dive"},
	}

	msg := formatValidationError(err)
	require.Contains(t, msg, "slug may only contain")
	require.Contains(t, msg, "scope must be one of: user transient")
	require.Contains(t, msg, "ttl seconds must be at least 0")
	require.Contains(t, msg, "buttons failed validation: dive")

	require.Equal(t, "invalid request payload", formatValidationError(errors.New("boom")))
	require.Equal(t, "invalid request payload", formatValidationError(validator.ValidationErrors{}))
}
