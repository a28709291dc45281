package httpapi

import (
	"log"
	"net/http"
	"time"
)

// statusWriter remembers the response code for the access log.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(logger *log.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now().UTC()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)
		logger.Printf("%s %s status=%d from=%s dur=%s", r.Method, r.URL.Path, sw.code, r.RemoteAddr, time.Since(start))
	})
}
