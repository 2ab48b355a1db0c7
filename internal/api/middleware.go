package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/julianstephens/streakline/internal/logger"
	"github.com/julianstephens/streakline/internal/metrics"
)

const requestIDHeader = "X-Request-ID"

type ctxKey int

const requestIDKey ctxKey = iota

// RequestIDFrom returns the id assigned to the request, or "".
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// requestID keeps a caller-supplied X-Request-ID or assigns a new UUID.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// recoverer is chi's Recoverer with the API's JSON body on the 500 it writes.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pw := &panicWriter{ResponseWriter: w}
		chimiddleware.Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if !pw.returned {
					pw.panicked = true
				}
			}()
			next.ServeHTTP(w, r)
			pw.returned = true
		})).ServeHTTP(pw, r)
	})
}

// panicWriter turns the bare 500 Recoverer writes after a panic into a JSON error.
type panicWriter struct {
	http.ResponseWriter
	wroteHeader bool
	panicked    bool
	returned    bool
}

func (w *panicWriter) WriteHeader(code int) {
	if w.panicked && !w.wroteHeader && code == http.StatusInternalServerError {
		w.wroteHeader = true
		writeError(w.ResponseWriter, code, internalErrorMessage)
		return
	}
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *panicWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

// requestLogger logs each request through chi's RequestLogger and records it in m,
// which may be nil.
func requestLogger(m *metrics.Metrics) func(http.Handler) http.Handler {
	return chimiddleware.RequestLogger(&logFormatter{metrics: m})
}

type logFormatter struct {
	metrics *metrics.Metrics
}

func (f *logFormatter) NewLogEntry(r *http.Request) chimiddleware.LogEntry {
	return &logEntry{metrics: f.metrics, r: r}
}

type logEntry struct {
	metrics *metrics.Metrics
	r       *http.Request
}

func (e *logEntry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ interface{}) {
	if status == 0 {
		status = http.StatusOK
	}
	path := e.r.URL.Path
	if rctx := chi.RouteContext(e.r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			path = pattern
		}
	}

	e.metrics.ObserveRequest(e.r.Method, path, strconv.Itoa(status), elapsed.Seconds())
	logger.Get().Info("http request",
		"method", e.r.Method,
		"path", path,
		"status", status,
		"bytes", bytes,
		"duration", elapsed,
		"request_id", RequestIDFrom(e.r.Context()),
	)
}

func (e *logEntry) Panic(v interface{}, stack []byte) {
	logger.Error("panic recovered",
		"panic", v,
		"request_id", RequestIDFrom(e.r.Context()),
		"stack", string(stack),
	)
}
