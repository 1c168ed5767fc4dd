// Package http is the serve-mode transport: compile and registry endpoints,
// health, metrics, and the websocket watch surface.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/ssdl-lang/ssdlc/internal/port"
)

var validate = validator.New()

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func decodeJSONRequest(r *http.Request, out any) error {
	if r.Body == nil {
		return io.EOF
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, port.MaxSourceBytes+4096))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return io.EOF
	}
	return json.Unmarshal(body, out)
}

// statusForLookup maps registry errors onto HTTP statuses.
func statusForLookup(err error) int {
	if errors.Is(err, port.ErrDescriptorNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
