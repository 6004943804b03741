package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"supplyChainTracking/internal/auth"
	"supplyChainTracking/internal/backend"
	"supplyChainTracking/internal/tracker"
)

func respond(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError maps internal errors onto status codes. Validation failures
// keep their field-identifying messages; everything upstream collapses to a
// bad gateway with whatever message the backend supplied.
func respondError(w http.ResponseWriter, err error) {
	var vErr *tracker.ValidationError
	var apiErr *backend.APIError
	switch {
	case errors.As(err, &vErr):
		respond(w, http.StatusBadRequest, map[string]string{"error": vErr.Msg})
	case errors.Is(err, tracker.ErrInFlight):
		respond(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, auth.ErrUnauthenticated):
		respond(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
	case errors.Is(err, auth.ErrForbidden):
		respond(w, http.StatusForbidden, map[string]string{"error": err.Error()})
	case errors.As(err, &apiErr):
		respond(w, http.StatusBadGateway, map[string]string{"error": apiErr.Error()})
	default:
		respond(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
	}
}

func decodeBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
