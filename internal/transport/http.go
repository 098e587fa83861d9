package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// MCPHandler handles method dispatch for an authenticated user.
type MCPHandler interface {
	Handle(ctx context.Context, userID, method string, params json.RawMessage) (any, error)
}

// CodedError is implemented by dispatcher errors that carry a stable code.
type CodedError interface {
	error
	CodeValue() string
	MessageValue() string
	DetailsValue() any
	RecoveryHintValue() string
}

// ErrorData is the data member of JSON-RPC error responses.
type ErrorData struct {
	Code         string `json:"code"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
	Details      any    `json:"details,omitempty"`
}

// Server wires HTTP handlers.
type Server struct {
	handler MCPHandler
}

// Option customises the router built by NewServer.
type Option func(chi.Router)

// WithMount mounts h at pattern outside the authenticated group. The MCP
// streamable handler uses it since it authenticates in its own middleware.
func WithMount(pattern string, h http.Handler) Option {
	return func(r chi.Router) {
		r.Handle(pattern, h)
		r.Handle(pattern+"/*", h)
	}
}

// NewServer creates an HTTP server router with middleware.
func NewServer(handler MCPHandler, authMiddleware func(http.Handler) http.Handler, opts ...Option) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	srv := &Server{handler: handler}

	r.Get("/health", srv.handleHealth)
	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}
		r.Post("/rpc", srv.handleRPC)
	})

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(http.MaxBytesReader(w, r.Body, MaxRequestBytes))
	if err != nil {
		if errors.Is(err, ErrParse) {
			WriteError(w, nil, ErrParseCode, "parse error", nil)
			return
		}
		WriteError(w, nil, ErrInvalidReq, "invalid request", nil)
		return
	}

	userID, ok := UserFromContext(r.Context())
	if !ok || userID == "" {
		http.Error(w, "missing user", http.StatusUnauthorized)
		return
	}

	result, err := s.handler.Handle(r.Context(), userID, req.Method, req.Params)
	if req.IsNotification() {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		writeHandlerError(w, req.ID, err)
		return
	}

	WriteResult(w, req.ID, result)
}

func writeHandlerError(w http.ResponseWriter, id any, err error) {
	var coded CodedError
	if !errors.As(err, &coded) {
		WriteError(w, id, ErrInternal, "internal error", nil)
		return
	}
	data := ErrorData{
		Code:         coded.CodeValue(),
		RecoveryHint: coded.RecoveryHintValue(),
		Details:      coded.DetailsValue(),
	}
	WriteError(w, id, rpcCode(coded.CodeValue()), coded.MessageValue(), data)
}

func rpcCode(code string) int {
	switch code {
	case "INVALID_INPUT":
		return ErrInvalidParams
	case "METHOD_NOT_FOUND":
		return ErrMethodNotFound
	case "INTERNAL":
		return ErrInternal
	default:
		return ErrApplication
	}
}
