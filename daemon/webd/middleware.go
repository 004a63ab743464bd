package webd

import (
	ghandlers "github.com/gorilla/handlers"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"
)

func permissiveCorsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Add("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Authorization")
		next.ServeHTTP(w, r)
	})
}

func contentTypeMiddlewareFunc(contentType string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", contentType)
			next.ServeHTTP(w, r)
		})
	}
}

// https://github.com/gorilla/mux#middleware

// requestLogFormatter logs one line per request through logger.
// The writer handed in by gorilla/handlers is unused.
func requestLogFormatter(logger *slog.Logger) ghandlers.LogFormatter {
	return func(_ io.Writer, params ghandlers.LogFormatterParams) {
		req := params.Request
		host, _, err := net.SplitHostPort(req.RemoteAddr)
		if err != nil {
			host = req.RemoteAddr
		}
		uri := req.RequestURI
		if uri == "" {
			uri = params.URL.RequestURI()
		}
		logger.Debug("Request",
			"remote", host,
			"method", req.Method,
			"uri", uri,
			"status", params.StatusCode,
			"size", params.Size,
			"took", time.Since(params.TimeStamp).Round(time.Microsecond),
		)
	}
}

func (s *WebDaemon) loggingMiddleware(next http.Handler) http.Handler {
	return ghandlers.CustomLoggingHandler(io.Discard, next, requestLogFormatter(s.logger))
}
