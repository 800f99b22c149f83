package apperr

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNotFound, KindOf(NotFound("assignment not found")))
	assert.Equal(t, KindForbidden, KindOf(errors.Wrap(Forbidden("nope"), "grading")))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.True(t, Is(Conflict("taken"), KindConflict))
	assert.False(t, Is(nil, KindConflict))
}

func TestValidationFields(t *testing.T) {
	err := ValidationFields("invalid request", map[string]string{"title": "this field is required"})
	appErr, ok := As(err)
	assert.True(t, ok)
	assert.Equal(t, KindValidation, appErr.Kind)
	assert.Equal(t, "this field is required", appErr.Fields["title"])
	assert.Equal(t, "invalid request", err.Error())
}
