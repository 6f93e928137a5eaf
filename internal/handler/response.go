package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/authflow/authflow-go/internal/apperr"
	"github.com/authflow/authflow-go/internal/model"
)

const maxBodyBytes = 1 << 20 // 1MB

var errInvalidBody = apperr.Validation("invalid request body")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, model.Response{Success: true, Message: message})
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apperr.StatusOf(err), model.Response{
		Success: false,
		Message: apperr.MessageOf(err),
		Code:    string(apperr.KindOf(err)),
	})
}

// decodeJSON reads a bounded JSON body into dst. It writes the failure
// response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, model.Response{
				Success: false,
				Message: "request body too large",
				Code:    string(apperr.KindValidation),
			})
			return false
		}
		writeError(w, errInvalidBody)
		return false
	}
	return true
}
