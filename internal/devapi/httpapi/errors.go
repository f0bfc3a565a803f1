package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/rainwise/internal/common"
	"github.com/dmitrijs2005/rainwise/internal/devapi/services"
	"github.com/dmitrijs2005/rainwise/internal/models"
)

const (
	msgInternal        = "Internal server error"
	msgMissingToken    = "Missing bearer token"
	msgInvalidToken    = "Invalid token"
	msgTokenExpired    = "Token expired"
	msgForbidden       = "Forbidden"
	msgNotFound        = "Not found"
	msgBadCredentials  = "Invalid credentials"
	msgRefreshExpired  = "Refresh token expired"
	msgNotConfirmed    = "Email not confirmed"
	msgEmailTaken      = "Email already registered"
	msgBadConfirmation = "Invalid or already used confirmation token"
	msgInUse           = "Record is still referenced"
	msgMalformedBody   = "Malformed request body"
)

// errorStatus maps service errors to a status code and the message the
// client shows verbatim.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, msgNotFound
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict, msgEmailTaken
	case errors.Is(err, services.ErrInUse):
		return http.StatusConflict, msgInUse
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, msgBadCredentials
	case errors.Is(err, common.ErrRefreshTokenExpired):
		return http.StatusUnauthorized, msgRefreshExpired
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, msgTokenExpired
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusBadRequest, msgBadConfirmation
	case errors.Is(err, common.ErrEmailNotConfirmed):
		return http.StatusForbidden, msgNotConfirmed
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden, msgForbidden
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.MessageResponse{Message: msg})
}

// decodeStrict rejects unknown fields and trailing data.
func decodeStrict(w http.ResponseWriter, r *http.Request, value any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(value); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data")
	}
	return nil
}
