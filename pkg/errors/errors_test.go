package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKindsStayDistinct(t *testing.T) {
	invalid := InvalidArgumentf("id %d is negative", -1)
	outOfRange := OutOfRangef("index %d", 7)

	assert.True(t, errors.Is(invalid, ErrInvalidArgument))
	assert.False(t, errors.Is(invalid, ErrOutOfRange))
	assert.True(t, errors.Is(outOfRange, ErrOutOfRange))
	assert.False(t, errors.Is(outOfRange, ErrInvalidArgument))
	assert.Equal(t, "invalid argument: id -1 is negative", invalid.Error())
}

func TestDocumentExistsIsInvalidArgument(t *testing.T) {
	err := fmt.Errorf("adding document 3: %w", ErrDocumentExists)
	assert.True(t, errors.Is(err, ErrDocumentExists))
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestHTTPStatusCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("x: %w", ErrDocumentNotFound), http.StatusNotFound},
		{"exists", ErrDocumentExists, http.StatusConflict},
		{"invalid", InvalidArgumentf("bad"), http.StatusBadRequest},
		{"out of range", OutOfRangef("bad"), http.StatusBadRequest},
		{"unavailable", ErrUnavailable, http.StatusServiceUnavailable},
		{"app error", New(ErrInternal, http.StatusTeapot, "short and stout"), http.StatusTeapot},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatusCode(tc.err))
		})
	}
}

func TestAppErrorUnwraps(t *testing.T) {
	err := Newf(ErrDocumentNotFound, http.StatusNotFound, "document %d", 9)
	assert.True(t, errors.Is(err, ErrDocumentNotFound))
	assert.Equal(t, "document not found: document 9", err.Error())
}
