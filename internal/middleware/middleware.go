// Package middleware assembles the HTTP middleware chain this service
// requires: request-ID tagging and access logging (kept from the
// goa-based chain, usable as a plain library without goa's code generator)
// followed by hand-rolled CORS, API-key, and upload-size-limit checks.
package middleware

import (
	"log"
	"net/http"
	"strings"

	goahttpmdlwr "goa.design/goa/v3/http/middleware"
	goamdlwr "goa.design/goa/v3/middleware"

	"faceguard/internal/auth"
)

// Chain wires the full middleware stack around handler, in the order
// uses: request-ID → access log → CORS → API-key →
// upload-size-limit → route handler.
func Chain(handler http.Handler, verifier *auth.APIKeyVerifier, allowedOrigins []string, maxUploadBytes int64, logger *log.Logger) http.Handler {
	h := UploadSizeLimit(maxUploadBytes)(handler)
	h = APIKey(verifier)(h)
	h = CORS(allowedOrigins)(h)
	h = goahttpmdlwr.Log(goamdlwr.NewLogger(logger))(h)
	h = goahttpmdlwr.RequestID()(h)
	return h
}

// CORS rejects cross-origin requests whose Origin header is not in
// allowedOrigins — no wildcards accepted. With an empty allowedOrigins
// list every request carrying an Origin header is rejected; requests
// without an Origin header always pass.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				if len(allowed) == 0 || !allowed[origin] {
					http.Error(w, `{"error":"origin not allowed"}`, http.StatusForbidden)
					return
				}
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
			}
			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// APIKey enforces the X-API-Key header required on every
// endpoint, in place of an Authorization: Bearer JWT check.
func APIKey(verifier *auth.APIKeyVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !verifier.Enabled() {
				next.ServeHTTP(w, r)
				return
			}
			key := r.Header.Get("X-API-Key")
			if key == "" {
				http.Error(w, `{"error":"missing X-API-Key header"}`, http.StatusUnauthorized)
				return
			}
			if err := verifier.Verify(key); err != nil {
				http.Error(w, `{"error":"invalid api key"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UploadSizeLimit caps the request body of paths under /upload-video at
// maxBytes; other endpoints are not limited here. It mirrors the pattern of
// wrapping r.Body in http.MaxBytesReader before handing off to the mux.
func UploadSizeLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/upload-video") {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
