package mockserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/Leopold1975/readlater/internal/pkg/jwtauth"
	"github.com/Leopold1975/readlater/pkg/logger"
	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey struct{}

func loggingMiddleware(logg logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logg.Infof("METHOD %s URI %s %s STATUS %d Latency %s Client IP %s RequestID %s",
					r.Method,
					r.URL.RequestURI(),
					r.Proto,
					ww.Status(),
					time.Since(start).String(),
					r.RemoteAddr,
					r.Header.Get("X-Request-ID"),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			handleError(w, "Authorization header required", http.StatusUnauthorized)

			return
		}

		claims, err := jwtauth.ValidateToken(token, s.cfg.Secret)
		if err != nil {
			handleError(w, "Invalid or expired token", http.StatusUnauthorized)

			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, claims.UserID)))
	})
}

func userID(r *http.Request) (int, bool) {
	id, ok := r.Context().Value(ctxKey{}).(int)

	return id, ok
}
