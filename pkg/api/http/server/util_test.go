package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	le "github.com/guidepost/launchpad/pkg/errors"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		Name   string
		In     error
		Expect int
	}{
		{"Nil", nil, http.StatusOK},
		{"Validation", fmt.Errorf("%w nope", le.ErrValidation), http.StatusBadRequest},
		{"Precondition", fmt.Errorf("%w nope", le.ErrPrecondition), http.StatusBadRequest},
		{"NotFound", fmt.Errorf("%w job", le.ErrNotFound), http.StatusNotFound},
		{"Forbidden", le.ErrForbidden, http.StatusForbidden},
		{"Conflict", fmt.Errorf("%w already done", le.ErrConflict), http.StatusConflict},
		{"Locked", le.ErrLocked, http.StatusLocked},
		{"NotImplemented", le.ErrNotImplemented, http.StatusNotImplemented},
		{"Internal", fmt.Errorf("%w boom", le.ErrInternal), http.StatusInternalServerError},
		{"Unknown", fmt.Errorf("mystery"), http.StatusInternalServerError},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			assert.Equal(t, c.Expect, mapError(c.In))
		})
	}
}
