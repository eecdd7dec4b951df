package handler

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs one line per request, at a level picked from the status code.
func RequestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			entry := log.WithFields(logrus.Fields{
				"request_id":  chimiddleware.GetReqID(r.Context()),
				"method":      r.Method,
				"path":        r.URL.Path,
				"status_code": status,
				"duration_ms": float64(time.Since(start).Microseconds()) / 1000,
				"remote_addr": r.RemoteAddr,
			})

			switch {
			case status >= 500:
				entry.Error("http request")
			case status >= 400:
				entry.Warn("http request")
			default:
				entry.Info("http request")
			}
		})
	}
}
