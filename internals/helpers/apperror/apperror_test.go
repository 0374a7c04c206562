package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validation("bad")))
	assert.Equal(t, KindState, KindOf(State("too late")))
	assert.Equal(t, "", KindOf(errors.New("plain")))
	assert.Equal(t, "", KindOf(nil))

	wrapped := fmt.Errorf("outer: %w", NotFound("gone"))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindNotFound))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[error]int{
		Validation("x"):     fiber.StatusBadRequest,
		NotFound("x"):       fiber.StatusNotFound,
		Forbidden("x"):      fiber.StatusForbidden,
		State("x"):          fiber.StatusUnprocessableEntity,
		Conflict("x"):       fiber.StatusConflict,
		errors.New("plain"): fiber.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, HTTPStatus(err), err.Error())
	}
}
