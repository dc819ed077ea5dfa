package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"

	"rentflow-backend/internal/cache"
)

const (
	headerIdempotencyKey   = "Idempotency-Key"
	headerIdempotentReplay = "Idempotent-Replayed"
	maxIdempotencyBody     = 1 << 20 // 1 MB
)

// idempotencyEntry stores a cached HTTP response
type idempotencyEntry struct {
	StatusCode int                 `json:"status_code"`
	Headers    map[string][]string `json:"headers"`
	Body       []byte              `json:"body"`
}

// Idempotency deduplicates mutating requests that carry an Idempotency-Key header.
// Keys are scoped to the authenticated user, so it must run after Authenticate.
// Only 2xx responses are stored; a failed attempt can be retried with the same key.
// A nil store disables the middleware.
func Idempotency(store cache.IdempotencyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Only apply to mutating methods
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(headerIdempotencyKey)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if userID, ok := GetUserIDFromContext(r.Context()); ok {
				key = userID + ":" + key
			}

			if data, found, err := store.Get(r.Context(), key); err != nil {
				log.Printf("[Idempotency] lookup failed for %s: %v", key, err)
			} else if found {
				var cached idempotencyEntry
				if err := json.Unmarshal(data, &cached); err == nil {
					replay(w, &cached)
					return
				}
				log.Printf("[Idempotency] corrupt cache entry for %s", key)
			}

			locked, err := store.Lock(r.Context(), key)
			if err != nil {
				// Store unavailable: serve the request without deduplication
				log.Printf("[Idempotency] lock failed for %s: %v", key, err)
				next.ServeHTTP(w, r)
				return
			}
			if !locked {
				writeJSONError(w, http.StatusConflict, "A request with this idempotency key is already in progress")
				return
			}
			defer func() {
				if err := store.Unlock(context.WithoutCancel(r.Context()), key); err != nil {
					log.Printf("[Idempotency] unlock failed for %s: %v", key, err)
				}
			}()

			rec := &responseRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				body:           &bytes.Buffer{},
			}
			next.ServeHTTP(rec, r)

			if rec.statusCode < 200 || rec.statusCode > 299 || rec.body.Len() > maxIdempotencyBody {
				return
			}

			data, err := json.Marshal(idempotencyEntry{
				StatusCode: rec.statusCode,
				Headers:    map[string][]string{"Content-Type": w.Header().Values("Content-Type")},
				Body:       rec.body.Bytes(),
			})
			if err != nil {
				return
			}
			if err := store.Put(context.WithoutCancel(r.Context()), key, data); err != nil {
				log.Printf("[Idempotency] failed to store response for %s: %v", key, err)
			}
		})
	}
}

func replay(w http.ResponseWriter, cached *idempotencyEntry) {
	for k, vals := range cached.Headers {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set(headerIdempotentReplay, "true")
	w.WriteHeader(cached.StatusCode)
	w.Write(cached.Body)
}

// responseRecorder wraps http.ResponseWriter to capture the response
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
