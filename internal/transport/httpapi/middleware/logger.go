package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kislikjeka/userregistry/pkg/logger"
)

// maxCapturedBody limits how much of an error body is kept for the log line
const maxCapturedBody = 4 << 10

// errorBody wraps chi's WrapResponseWriter and keeps the body of 4xx/5xx responses
type errorBody struct {
	chimiddleware.WrapResponseWriter
	buf bytes.Buffer
}

func (e *errorBody) Write(b []byte) (int, error) {
	if e.Status() >= http.StatusBadRequest && e.buf.Len() < maxCapturedBody {
		e.buf.Write(b[:min(len(b), maxCapturedBody-e.buf.Len())])
	}
	return e.WrapResponseWriter.Write(b)
}

// message pulls the "error" field out of a JSON error body
func (e *errorBody) message() string {
	var obj struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(e.buf.Bytes(), &obj) == nil {
		return obj.Error
	}
	return ""
}

// Logger returns a request logging middleware. Health probes are logged at
// debug level so they do not drown the access log.
func Logger(log *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			rec := &errorBody{WrapResponseWriter: chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)}
			start := time.Now()

			defer func() {
				status := rec.Status()
				if status == 0 {
					status = http.StatusOK
				}
				attrs := []any{
					"method", r.Method,
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"user_agent", r.UserAgent(),
					"status", status,
					"bytes", rec.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
				}
				if status >= http.StatusBadRequest {
					if msg := rec.message(); msg != "" {
						attrs = append(attrs, "error", msg)
					}
				}

				l := log.WithContext(r.Context())
				switch {
				case status >= 500:
					l.Error("HTTP request", attrs...)
				case status >= 400:
					l.Warn("HTTP request", attrs...)
				case strings.HasPrefix(r.URL.Path, "/health"):
					l.Debug("HTTP request", attrs...)
				default:
					l.Info("HTTP request", attrs...)
				}
			}()

			next.ServeHTTP(rec, r)
		}
		return http.HandlerFunc(fn)
	}
}
