package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"quizboard-service/internal/domain"
)

type ctxKey int

const userKey ctxKey = iota

// authenticate resolves an optional token to the request user. Requests
// without credentials pass through anonymously; a bad token is rejected.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := tokenFromHeader(r.Header.Get("Authorization"))
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		user, err := h.auth.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthenticated) {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Invalid token."})
				return
			}
			writeServiceError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, &user)))
	})
}

// tokenFromHeader accepts "Token <key>" and "Bearer <key>". Other schemes
// are not ours and leave the request anonymous.
func tokenFromHeader(header string) (string, bool) {
	scheme, key, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found {
		if strings.EqualFold(scheme, "Token") || strings.EqualFold(scheme, "Bearer") {
			return "", true
		}
		return "", false
	}
	if !strings.EqualFold(scheme, "Token") && !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return strings.TrimSpace(key), true
}

// requestUser returns the authenticated user, or nil for anonymous requests.
func requestUser(r *http.Request) *domain.User {
	user, _ := r.Context().Value(userKey).(*domain.User)
	return user
}
