package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructorsMapKindToStatus(t *testing.T) {
	cases := []struct {
		err    *AppError
		status int
		kind   ErrorKind
	}{
		{NewBadRequestError("bad"), http.StatusBadRequest, KindBadRequest},
		{NewNotFoundError("missing"), http.StatusNotFound, KindNotFound},
		{NewInvalidStateError("state"), http.StatusConflict, KindInvalidState},
		{NewValidationError("invalid"), http.StatusUnprocessableEntity, KindValidationFailed},
		{NewBusinessRuleError("rule"), http.StatusUnprocessableEntity, KindBusinessRuleViolation},
		{NewUnauthorizedError(), http.StatusUnauthorized, KindUnauthorized},
		{NewForbiddenError("not yours"), http.StatusForbidden, KindUnauthorized},
		{NewTooManyRequestsError("slow down"), http.StatusTooManyRequests, KindTooManyRequests},
		{NewInternalServerError(fmt.Errorf("boom"), "failed"), http.StatusInternalServerError, KindInternal},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.status, tc.err.StatusCode)
		assert.Equal(t, tc.kind, tc.err.Kind)
	}
}

func TestUnauthorizedDefaultMessage(t *testing.T) {
	assert.Equal(t, "Unauthorized", NewUnauthorizedError().Message)
	assert.Equal(t, "token expired", NewUnauthorizedError("token expired").Message)
}

func TestValidationErrorKeepsViolations(t *testing.T) {
	err := NewValidationError("Invalid checkout request", "adults must be at least 1", "date is in the past")

	assert.Equal(t, "Invalid checkout request", err.Error())
	assert.Equal(t, []string{"adults must be at least 1", "date is in the past"}, err.Errors)
}

func TestIsKind(t *testing.T) {
	assert.True(t, IsKind(NewNotFoundError("x"), KindNotFound))
	assert.False(t, IsKind(NewNotFoundError("x"), KindInvalidState))
	assert.False(t, IsKind(fmt.Errorf("plain"), KindNotFound))
}

func TestInternalServerErrorWithoutCause(t *testing.T) {
	err := NewInternalServerError(nil, "provider not configured")
	assert.Equal(t, "provider not configured", err.Message)
}
