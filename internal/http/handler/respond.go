package handler

import (
	"encoding/json"
	"net/http"

	"blogd/internal/apperr"

	"github.com/rs/zerolog/log"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError is the single place errors become HTTP responses. Unclassified
// errors are logged in full and answered with a generic 500 body.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	ae := apperr.From(err)
	if ae.Kind == apperr.KindInternal {
		log.Error().Err(ae).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	}

	body := map[string]any{"message": ae.Message}
	if len(ae.Fields) > 0 {
		body["validation"] = ae.Fields
	}
	WriteJSON(w, ae.Status(), body)
}
