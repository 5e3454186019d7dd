package quizerr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err    *Error
		status int
	}{
		{NotFound("no such quiz"), http.StatusNotFound},
		{Forbidden("not the quiz owner"), http.StatusForbidden},
		{InvalidState("question not closed"), http.StatusUnprocessableEntity},
		{Conflict("team name taken"), http.StatusConflict},
		{InvalidInput("no categories"), http.StatusBadRequest},
		{Internal("db down", errors.New("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.err.HTTPStatus(), "kind %s", tt.err.Kind)
	}
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "not_found: no such quiz", NotFound("no such quiz").Error())

	wrapped := Internal("saving quiz", errors.New("connection reset"))
	assert.Equal(t, "internal: saving quiz: connection reset", wrapped.Error())
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := Internal("saving quiz", cause)
	assert.True(t, errors.Is(err, cause))
}

func TestFrom(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.Nil(t, From(nil))
	})

	t.Run("already categorized", func(t *testing.T) {
		orig := Conflict("team name taken")
		assert.Same(t, orig, From(orig))
	})

	t.Run("categorized but wrapped", func(t *testing.T) {
		orig := NotFound("no such quiz")
		got := From(fmt.Errorf("loading: %w", orig))
		assert.Same(t, orig, got)
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		got := From(errors.New("boom"))
		require.NotNil(t, got)
		assert.Equal(t, KindInternal, got.Kind)
	})
}

func TestIsKind(t *testing.T) {
	err := fmt.Errorf("handling request: %w", Forbidden("not the quiz owner"))
	assert.True(t, IsKind(err, KindForbidden))
	assert.False(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(errors.New("boom"), KindForbidden))
}
