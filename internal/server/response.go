package server

import (
	"encoding/json"
	"net/http"

	selerrors "github.com/matzehuels/selgraph/pkg/errors"
)

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the standard error envelope.
type errorResponse struct {
	Error string         `json:"error"`
	Code  selerrors.Code `json:"code,omitempty"`
}

// writeError answers with the status and message derived from err's code.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, selerrors.HTTPStatus(err), errorResponse{
		Error: selerrors.UserMessage(err),
		Code:  selerrors.GetCode(err),
	})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return selerrors.Wrap(selerrors.ErrCodeInvalidInput, err, "invalid JSON")
	}
	return nil
}
