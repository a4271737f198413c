// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"

	"github.com/facturio/facturio/internal/billing"
)

// ErrValidation marks malformed input rejected before it reaches the engine.
var ErrValidation = errors.New("validation failed")

// RespondError maps engine and repository errors to RFC7807 responses.
// State violations and reference collisions are conflicts; line item domain
// violations and validation failures are bad requests.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, billing.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, billing.ErrIllegalTransition):
		Problem(w, http.StatusConflict, "Illegal State Transition", err.Error())
	case errors.Is(err, billing.ErrDuplicateReference):
		Problem(w, http.StatusConflict, "Duplicate Reference", err.Error())
	case errors.Is(err, billing.ErrInvalidLineItemValue), errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
