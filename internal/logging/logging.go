// Package logging builds the service logger and its HTTP middleware.
package logging

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// New returns a JSON logger, or a console logger outside production.
func New(env, level string) zerolog.Logger {
	var out io.Writer = os.Stdout
	if env != "production" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return NewWithWriter(out, level)
}

// NewWithWriter builds a timestamped logger on w at the given level. Unknown
// levels fall back to info.
func NewWithWriter(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

type callInfo struct {
	procedure string
	userID    int64
}

type callKey struct{}

// Tag records the procedure and caller on the line Requests writes for ctx's
// request. It is a no-op outside Requests.
func Tag(ctx context.Context, procedure string, userID int64) {
	if info, ok := ctx.Value(callKey{}).(*callInfo); ok {
		info.procedure = procedure
		info.userID = userID
	}
}

// Requests logs one line per request, tagged with the id stored under chi's
// middleware.RequestIDKey and whatever Tag recorded.
func Requests(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			info := &callInfo{}
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(context.WithValue(r.Context(), callKey{}, info)))

			evt := logger.Info()
			if ww.Status() >= http.StatusInternalServerError {
				evt = logger.Error()
			}
			evt.
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("latency", time.Since(start)).
				Str("remote_ip", r.RemoteAddr)
			if info.procedure != "" {
				evt.Str("procedure", info.procedure)
			}
			if info.userID != 0 {
				evt.Int64("user_id", info.userID)
			}
			evt.Msg("request")
		})
	}
}

// Recoverer turns a panic into a 500 and logs the stack.
func Recoverer(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					var stack [4096]byte
					n := runtime.Stack(stack[:], false)
					logger.Error().
						Str("request_id", middleware.GetReqID(r.Context())).
						Str("panic", fmt.Sprintf("%v", rec)).
						Str("stack", string(stack[:n])).
						Msg("panic recovered")
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_, _ = io.WriteString(w, `{"error":{"code":"INTERNAL","message":"internal error"}}`+"\n")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
