package auth

import (
	"encoding/json"
	"net/http"
)

// Middleware returns an HTTP middleware that extracts and validates a Bearer
// JWT from the Authorization header and injects the Principal into the
// request context. Paths listed in allowUnauthenticated bypass authentication
// (e.g. health checks).
func Middleware(secret string, allowUnauthenticated ...string) func(http.Handler) http.Handler {
	allow := make(map[string]struct{}, len(allowUnauthenticated))
	for _, p := range allowUnauthenticated {
		allow[p] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := allow[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}
			p, err := ParseBearer(r.Header.Get("Authorization"), secret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "auth error: "+err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequirePrincipal ensures a principal is present in context.
func RequirePrincipal(r *http.Request) (*Principal, error) {
	p, ok := FromContext(r.Context())
	if !ok {
		return nil, ErrUnauthenticated
	}
	return p, nil
}

// RequireRole ensures the caller has one of the given roles.
func RequireRole(r *http.Request, roles ...string) (*Principal, error) {
	p, err := RequirePrincipal(r)
	if err != nil {
		return nil, err
	}
	for _, role := range roles {
		if p.Role == role {
			return p, nil
		}
	}
	return nil, ErrForbidden
}

// RequireManufacturer ensures the caller is a manufacturer. Shipment
// creation is manufacturer-only.
func RequireManufacturer(r *http.Request) (*Principal, error) {
	return RequireRole(r, RoleManufacturer)
}

var (
	ErrUnauthenticated = errString("missing principal")
	ErrForbidden       = errString("role not permitted for this action")
)

type errString string

func (e errString) Error() string { return string(e) }

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
