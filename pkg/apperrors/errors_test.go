package apperrors_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/lemonhall/oa-mvp/pkg/apperrors"
)

func TestErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"Validation", apperrors.NewValidationError("title", "title is required"), 400, "VALIDATION_ERROR"},
		{"NotFound", apperrors.NewNotFoundError("request", 7), 404, "NOT_FOUND"},
		{"Forbidden", apperrors.NewForbiddenError("decide this request"), 403, "FORBIDDEN"},
		{"Unauthorized", apperrors.NewUnauthorizedError("bad token"), 401, "UNAUTHORIZED"},
		{"Conflict", apperrors.NewConflictError("workflow already active"), 409, "CONFLICT"},
		{"InvalidState", apperrors.NewInvalidStateError("request 7 is already approved"), 400, "INVALID_STATE"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, apperrors.StatusOf(tc.err))
			assert.Equal(t, tc.code, apperrors.CodeOf(tc.err))
		})
	}
}

func TestWrappedErrorsKeepTheirStatus(t *testing.T) {
	err := errors.Wrap(apperrors.NewNotFoundError("user", 3), "load approver")
	assert.Equal(t, 404, apperrors.StatusOf(err))
	assert.Equal(t, "NOT_FOUND", apperrors.CodeOf(err))
}

func TestUnknownErrorsAreInternal(t *testing.T) {
	err := errors.New("connection refused")
	assert.Equal(t, 500, apperrors.StatusOf(err))
	assert.Equal(t, "INTERNAL", apperrors.CodeOf(err))
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "validation error on field 'title': title is required",
		apperrors.NewValidationError("title", "title is required").Error())
	assert.Equal(t, "request with ID 7 not found", apperrors.NewNotFoundError("request", 7).Error())
	assert.Equal(t, "forbidden: cannot decide this request", apperrors.NewForbiddenError("decide this request").Error())
}
