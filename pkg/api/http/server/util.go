package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	le "github.com/guidepost/launchpad/pkg/errors"
)

var (
	errmap map[int][]error = map[int][]error{
		http.StatusBadRequest: []error{
			le.ErrValidation,
			le.ErrPrecondition,
		},
		http.StatusNotFound: []error{
			le.ErrNotFound,
		},
		http.StatusForbidden: []error{
			le.ErrForbidden,
		},
		http.StatusConflict: []error{
			le.ErrConflict,
		},
		http.StatusLocked: []error{
			le.ErrLocked,
		},
		http.StatusNotImplemented: []error{
			le.ErrNotImplemented,
		},
	}
)

// mapError returns the http status code for a given error from launchpad,
// or http.StatusInternalServerError if the error is not recognised.
func mapError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	for code, errs := range errmap {
		for _, e := range errs {
			if errors.Is(err, e) {
				return code
			}
		}
	}
	return http.StatusInternalServerError
}

// unmarshalJson reads the body of a request and attempts to unmarshal it into the given object.
// This function writes an error to the writer if an error occurs, and returns the error.
func unmarshalJson(w http.ResponseWriter, r *http.Request, obj interface{}) error {
	if r.Body == nil {
		http.Error(w, "No body", http.StatusBadRequest)
		return fmt.Errorf("no body")
	}
	d := json.NewDecoder(r.Body)
	d.DisallowUnknownFields() // catch unwanted fields

	err := d.Decode(obj)
	if err != nil {
		// bad JSON or unrecognized json field
		http.Error(w, err.Error(), http.StatusBadRequest)
		return fmt.Errorf("bad json: %v", err)
	}

	return nil
}
