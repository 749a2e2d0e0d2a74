package httpx

import (
	"context"
	"net/http"
	"strconv"
)

// The gateway in front of this service authenticates the caller and
// forwards who they are in these headers.
const (
	HeaderUserID   = "X-User-Id"
	HeaderUserRole = "X-User-Role"

	RoleAdmin = "admin"
)

type identity struct {
	UserID int64
	Role   string
}

type identityKey struct{}

func withIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.Header.Get(HeaderUserID), 10, 64)
		if err != nil || id <= 0 {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing user identity"})
			return
		}
		ctx := context.WithValue(r.Context(), identityKey{}, identity{UserID: id, Role: r.Header.Get(HeaderUserRole)})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if who(r).Role != RoleAdmin {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "admin only"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func who(r *http.Request) identity {
	id, _ := r.Context().Value(identityKey{}).(identity)
	return id
}
