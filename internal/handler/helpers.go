package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/cheapshop/backend/internal/apperr"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("handler: failed to marshal JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response","code":"internal"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("handler: failed to write JSON response")
	}
}

func respondWithError(w http.ResponseWriter, code int, kind apperr.Kind, message string) {
	respondWithJSON(w, code, errorResponse{Error: message, Code: string(kind)})
}

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.Validation, apperr.InsufficientStock, apperr.InvalidTransition,
		apperr.NotPending, apperr.InvalidReservation:
		return http.StatusBadRequest
	case apperr.Unauthorized:
		return http.StatusUnauthorized
	case apperr.Forbidden:
		return http.StatusForbidden
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondFromError translates an error kind into a status and a client
// message. Expected kinds surface their own message; anything internal
// collapses to a generic one, except the transactions-unsupported case
// whose message is deliberately actionable.
func respondFromError(w http.ResponseWriter, err error) {
	var e *apperr.Error
	if errors.As(err, &e) {
		status := statusForKind(e.Kind)
		msg := e.Msg
		if status == http.StatusInternalServerError && e.Kind != apperr.TxUnsupported && e.Kind != apperr.Unavailable {
			msg = "internal server error"
		}
		respondWithError(w, status, e.Kind, msg)
		return
	}
	log.Error().Err(err).Msg("handler: unexpected error")
	respondWithError(w, http.StatusInternalServerError, apperr.Internal, "internal server error")
}

func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, apperr.Validation, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, apperr.Validation, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		return "invalid request: field " + f.Field() + " failed on " + f.Tag()
	}
	return "invalid request"
}
