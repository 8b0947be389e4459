package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/karvix-api/internal/domain"
)

const cacheKeyPrefix = "api:"

type responseCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Cache serves GET responses from store for ttl, keyed on the request URI.
// Only 200 responses are stored. Store failures are logged and the request
// falls through to next.
func Cache(store responseCache, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || store == nil || ttl <= 0 {
				next.ServeHTTP(w, r)
				return
			}
			key := cacheKeyPrefix + r.URL.RequestURI()

			cached, err := store.Get(r.Context(), key)
			switch {
			case err == nil:
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Cache", "HIT")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(cached))
				return
			case !errors.Is(err, domain.ErrNotFound):
				slog.Warn("response cache read failed", "key", key, "err", err)
			}

			var buf bytes.Buffer
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&buf)
			ww.Header().Set("X-Cache", "MISS")
			next.ServeHTTP(ww, r)

			if ww.Status() != http.StatusOK {
				return
			}
			if err := store.Set(r.Context(), key, buf.String(), ttl); err != nil {
				slog.Warn("response cache write failed", "key", key, "err", err)
			}
		})
	}
}
