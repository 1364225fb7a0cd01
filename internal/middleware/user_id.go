package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

const HeaderUserID = "X-User-Id"

// RequireUserID enforces X-User-Id on the wrapped handler and stores the
// value in the request context. Token issuance lives outside this service;
// the edge authenticates and forwards the identity in this header.
func RequireUserID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := strings.TrimSpace(r.Header.Get(HeaderUserID))
		if uid == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(errorResponse{
				Error:         "missing required header: X-User-Id",
				CorrelationID: GetCorrelationID(r.Context()),
			})
			return
		}
		ctx := context.WithValue(r.Context(), ctxUserID, uid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetUserID(ctx context.Context) string {
	if v := ctx.Value(ctxUserID); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
