// Package rpc exposes the clinic handlers as named procedures over HTTP:
// POST /rpc/{procedure} with a JSON body, answered with {"result": ...} or an
// error envelope.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"rxdesk/m/internal/auth"
	"rxdesk/m/internal/clinic"
	"rxdesk/m/internal/logging"
)

const maxBodyBytes = 1 << 20

// Handler bundles dependencies for the procedure router.
type Handler struct {
	svc         *clinic.Service
	tokens      *auth.Tokens
	validate    *validator.Validate
	log         zerolog.Logger
	now         func() time.Time
	corsOrigins []string
	procedures  map[string]procedure
}

// Option configures a Handler.
type Option func(*Handler)

// WithClock sets the clock used when a request omits its reference time.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// WithCORSOrigins restricts cross-origin callers.
func WithCORSOrigins(origins []string) Option {
	return func(h *Handler) { h.corsOrigins = origins }
}

// New constructs a Handler.
func New(svc *clinic.Service, tokens *auth.Tokens, logger zerolog.Logger, opts ...Option) *Handler {
	h := &Handler{
		svc:         svc,
		tokens:      tokens,
		validate:    newValidator(),
		log:         logger,
		now:         time.Now,
		corsOrigins: []string{"*"},
	}
	for _, opt := range opts {
		opt(h)
	}
	h.procedures = h.register()
	return h
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(logging.Requests(h.log))
	r.Use(logging.Recoverer(h.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: h.corsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))

	r.Get("/health", h.health)
	r.Get("/rpc", h.listProcedures)
	r.Post("/rpc/{procedure}", h.dispatch)
	return r
}

// requestID keeps a caller supplied X-Request-Id or mints a UUID, storing it
// where chi's middleware.GetReqID finds it.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(middleware.RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ping(r.Context()); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) listProcedures(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(h.procedures))
	for name := range h.procedures {
		names = append(names, name)
	}
	sort.Strings(names)
	respondJSON(w, http.StatusOK, map[string]any{"procedures": names})
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "procedure")
	proc, ok := h.procedures[name]
	if !ok {
		h.respondError(w, r, name, errUnknownProcedure)
		return
	}
	logging.Tag(r.Context(), name, 0)

	var caller *auth.Claims
	if !proc.public {
		claims, err := h.authenticate(r)
		if err != nil {
			h.respondError(w, r, name, err)
			return
		}
		if !proc.allows(claims.Role) {
			h.respondError(w, r, name, errForbidden)
			return
		}
		caller = claims
		logging.Tag(r.Context(), name, claims.UserID)
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.respondError(w, r, name, &decodeError{err: err})
		return
	}
	result, err := proc.call(r.Context(), caller, body)
	if err != nil {
		h.respondError(w, r, name, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"result": result})
}

func (h *Handler) authenticate(r *http.Request) (*auth.Claims, error) {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return nil, errMissingToken
	}
	claims, err := h.tokens.Parse(strings.TrimSpace(header[len("Bearer "):]))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// procedure is one named entry point.
type procedure struct {
	public bool
	roles  []string
	call   func(ctx context.Context, caller *auth.Claims, body []byte) (any, error)
}

func (p procedure) allows(role string) bool {
	if len(p.roles) == 0 {
		return true
	}
	for _, allowed := range p.roles {
		if role == allowed {
			return true
		}
	}
	return false
}

// typed adapts a handler taking a decoded and validated input.
func typed[In any, Out any](h *Handler, fn func(ctx context.Context, caller *auth.Claims, in In) (Out, error)) func(context.Context, *auth.Claims, []byte) (any, error) {
	return func(ctx context.Context, caller *auth.Claims, body []byte) (any, error) {
		var in In
		if err := decodeJSON(body, &in); err != nil {
			return nil, err
		}
		if err := h.validate.Struct(in); err != nil {
			return nil, err
		}
		return fn(ctx, caller, in)
	}
}

type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return "malformed request body: " + e.err.Error() }

func (e *decodeError) Unwrap() error { return e.err }

// decodeJSON treats an empty body as an empty object.
func decodeJSON(body []byte, dest any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return &decodeError{err: err}
	}
	if decoder.More() {
		return &decodeError{err: errors.New("unexpected data after JSON object")}
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}
