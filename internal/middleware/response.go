package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/authflow/authflow-go/internal/apperr"
	"github.com/authflow/authflow-go/internal/model"
)

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperr.StatusOf(err))
	json.NewEncoder(w).Encode(model.Response{
		Success: false,
		Message: apperr.MessageOf(err),
		Code:    string(apperr.KindOf(err)),
	})
}
