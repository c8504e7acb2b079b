package httpapi

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
	"github.com/vladislavdragonenkov/catalog/internal/metrics"
	"github.com/vladislavdragonenkov/catalog/internal/service/idempotency"
)

const (
	// HeaderIdempotencyKey: ключ идемпотентности POST-запроса.
	HeaderIdempotencyKey = "Idempotency-Key"
	// HeaderIdempotentReplay выставляется, когда ответ отдан из сохранённого.
	HeaderIdempotentReplay = "Idempotent-Replayed"
)

// responseRecorder запоминает статус и, при необходимости, тело ответа.
type responseRecorder struct {
	http.ResponseWriter
	status  int
	capture bool
	body    bytes.Buffer
}

func newResponseRecorder(w http.ResponseWriter, capture bool) *responseRecorder {
	return &responseRecorder{ResponseWriter: w, status: http.StatusOK, capture: capture}
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(p []byte) (int, error) {
	if r.capture {
		r.body.Write(p)
	}
	return r.ResponseWriter.Write(p)
}

// routeTemplate возвращает шаблон маршрута mux, чтобы метки не зависели от ID.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// bodyLimitMiddleware не даёт читать больше maxBodyBytes из тела запроса.
func bodyLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware пишет по строке на запрос: метод, путь, статус и длительность.
func loggingMiddleware(logger *log.Entry) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newResponseRecorder(w, false)
			next.ServeHTTP(rec, r)

			entry := logger.WithFields(log.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      rec.status,
				"duration_ms": time.Since(start).Milliseconds(),
				"remote_addr": r.RemoteAddr,
			})
			if rec.status >= http.StatusInternalServerError {
				entry.Warn("request served")
				return
			}
			entry.Info("request served")
		})
	}
}

func metricsMiddleware(m *metrics.HTTPMetrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			m.RequestStarted()
			rec := newResponseRecorder(w, false)
			next.ServeHTTP(rec, r)
			m.ObserveRequest(r.Method, routeTemplate(r), rec.status, time.Since(start))
		})
	}
}

// idempotencyMiddleware обслуживает заголовок Idempotency-Key для POST.
// Без заголовка запрос проходит как есть.
func idempotencyMiddleware(guard *idempotency.Guard, logger *log.Entry) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(HeaderIdempotencyKey)
			if guard == nil || r.Method != http.MethodPost || key == "" {
				next.ServeHTTP(w, r)
				return
			}

			body, err := readBody(r)
			if err != nil {
				writeError(w, logger, err)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			stored, err := guard.Begin(r.Context(), key, idempotency.HashRequest(r.Method, r.URL.Path, body))
			switch {
			case err != nil:
				if !errors.Is(err, idempotency.ErrRequestInProgress) {
					logger.WithError(err).WithField("idempotency_key", key).Warn("idempotency key rejected")
				}
				writeError(w, logger, err)
				return
			case stored != nil:
				if stored.Location != "" {
					w.Header().Set("Location", stored.Location)
				}
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set(HeaderIdempotentReplay, "true")
				w.WriteHeader(stored.HTTPStatus)
				_, _ = w.Write(stored.Body)
				return
			}

			rec := newResponseRecorder(w, true)
			next.ServeHTTP(rec, r)
			guard.Complete(context.WithoutCancel(r.Context()), key, domain.IdempotentResponse{
				HTTPStatus: rec.status,
				Location:   rec.Header().Get("Location"),
				Body:       rec.body.Bytes(),
			})
		})
	}
}
