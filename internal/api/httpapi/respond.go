package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/BearBump/PickupBox/internal/apperrors"
	"github.com/go-playground/validator/v10"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encode response", "err", err)
	}
}

func writeProblem(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, problemJSON{Code: code, Error: msg})
}

func writeError(w http.ResponseWriter, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "status", status, "err", err)
	}
	writeProblem(w, status, apperrors.Code(err), err.Error())
}

func problemOf(err error) *problemJSON {
	if err == nil {
		return nil
	}
	return &problemJSON{Code: apperrors.Code(err), Error: err.Error()}
}

// decode reads a JSON body into dst and validates it. On failure the
// response is already written.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, apperrors.Validation("body", "malformed json"))
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, validationError(err))
		return false
	}
	return true
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := fe.Namespace()
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		return apperrors.Validation(field, "failed "+fe.Tag())
	}
	return apperrors.Validation("", err.Error())
}
