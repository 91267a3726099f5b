package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// responseInfo captures what the handler wrote for the request log.
type responseInfo struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *responseInfo) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseInfo) Write(p []byte) (int, error) {
	n, err := r.ResponseWriter.Write(p)
	r.bytes += n
	return n, err
}

// Logger logs one line per request. The client address is the raw RemoteAddr;
// proxy header handling, if any, belongs in front of the service.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		info := &responseInfo{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(info, r)

		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", info.status,
			"bytes", info.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"client", r.RemoteAddr,
		)
	})
}
