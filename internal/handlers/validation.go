package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/charlesng35/noticeboard/pkg/errors"
	"github.com/charlesng35/noticeboard/pkg/response"
	"github.com/charlesng35/noticeboard/pkg/validator"
)

var validationMessages = map[string]string{
	"required": "%s is required",
	"slug":     "%s may only contain lower-case letters, digits, '-' and '_'",
	"oneof":    "%s must be one of: %s",
	"max":      "%s must be at most %s",
	"gte":      "%s must be at least %s",
}

// bindAndValidate binds the JSON payload into dest and runs struct validation.
// On failure a 400 response is written and false is returned.
func bindAndValidate[T any](c *gin.Context, dest *T) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, apperrors.NewBadRequest("invalid JSON payload"))
		return false
	}
	if err := validator.ValidateStruct(dest); err != nil {
		response.Error(c, apperrors.NewBadRequest(formatValidationError(err)))
		return false
	}
	return true
}

func formatValidationError(err error) string {
	var failures validator.ValidationErrors
	if !errors.As(err, &failures) || len(failures) == 0 {
		return "invalid request payload"
	}

	messages := make([]string, 0, len(failures))
	for _, failure := range failures {
		field := strings.ToLower(strings.ReplaceAll(failure.Field, "_", " "))
		if field == "" {
			field = "field"
		}

		format, ok := validationMessages[failure.Tag]
		switch {
		case ok && strings.Count(format, "%s") == 2:
			messages = append(messages, fmt.Sprintf(format, field, failure.Param))
		case ok:
			messages = append(messages, fmt.Sprintf(format, field))
		case failure.Param != "":
			messages = append(messages, fmt.Sprintf("%s failed validation: %s=%s", field, failure.Tag, failure.Param))
		default:
			messages = append(messages, fmt.Sprintf("%s failed validation: %s", field, failure.Tag))
		}
	}
	return strings.Join(messages, "; ")
}
