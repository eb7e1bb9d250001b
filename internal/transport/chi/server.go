// Package chi implements the HTTP API over the go-chi router.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/udyami-labs/maya/internal/domain"
	healthuc "github.com/udyami-labs/maya/internal/usecase/health"
)

// Error codes returned in the JSON error envelope.
const (
	CodeBadRequest       = "bad_request"
	CodeValidationFailed = "validation_failed"
	CodeSessionNotFound  = "session_not_found"
	CodeRateLimited      = "rate_limited"
	CodeInternalError    = "internal_error"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Dispatcher routes a query through classification to its handler.
type Dispatcher interface {
	Dispatch(ctx context.Context, query string) (domain.DispatchResult, error)
}

// SchemeSearcher ranks stored schemes against a query.
type SchemeSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]domain.RankedScheme, error)
}

// HistoryStore persists and reads chat transcripts.
type HistoryStore interface {
	Append(ctx context.Context, sessionID, role, content string) error
	List(ctx context.Context, sessionID string) ([]domain.Message, error)
	Sessions(ctx context.Context) ([]string, error)
}

// HealthChecker aggregates dependency health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the chat API.
type Server struct {
	dispatch      Dispatcher
	search        SchemeSearcher
	history       HistoryStore
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	dispatch Dispatcher,
	search SchemeSearcher,
	history HistoryStore,
	health HealthChecker,
	log *zap.Logger,
) *Server {
	s := &Server{
		dispatch: dispatch,
		search:   search,
		history:  history,
		health:   health,
		logger:   log,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrSessionNotFound, http.StatusNotFound, CodeSessionNotFound),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
	}
	return s
}

// Register mounts all routes on the given router.
func (s *Server) Register(r chi.Router) {
	r.Get("/", s.Root)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Post("/api/chat/agent", s.ChatAgent)
	r.Post("/api/chat/schemes", s.SearchSchemes)
	r.Get("/api/chat/history/{session_id}", s.GetHistory)
	r.Get("/api/chat/sessions", s.ListSessions)
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

type chatResponse struct {
	Response string `json:"response"`
	Agent    string `json:"agent"`
}

// ChatAgent handles POST /api/chat/agent. When a session id is supplied the
// user message and the assistant response are appended to the transcript
// around the dispatch call; transcript failures are logged but never fail
// the chat itself.
func (s *Server) ChatAgent(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		s.handleDomainError(w, fmt.Errorf("message is required: %w", domain.ErrEmptyQuery))
		return
	}

	if req.SessionID != "" {
		if err := s.history.Append(r.Context(), req.SessionID, domain.RoleUser, req.Message); err != nil {
			s.logger.Warn("append user message failed", zap.String("session_id", req.SessionID), zap.Error(err))
		}
	}

	result, err := s.dispatch.Dispatch(r.Context(), req.Message)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	if req.SessionID != "" {
		if err := s.history.Append(r.Context(), req.SessionID, domain.RoleAssistant, result.Response); err != nil {
			s.logger.Warn("append assistant message failed", zap.String("session_id", req.SessionID), zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Response: result.Response,
		Agent:    string(result.Category),
	})
}

type schemeSearchRequest struct {
	Message string `json:"message"`
	Limit   int    `json:"limit,omitempty"`
}

type schemeItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Benefits    string  `json:"benefits"`
	Category    string  `json:"category"`
	Distance    float64 `json:"distance"`
}

type schemeSearchResponse struct {
	Schemes []schemeItem `json:"schemes"`
	Count   int          `json:"count"`
}

// SearchSchemes handles POST /api/chat/schemes.
func (s *Server) SearchSchemes(w http.ResponseWriter, r *http.Request) {
	var req schemeSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		s.handleDomainError(w, fmt.Errorf("message is required: %w", domain.ErrEmptyQuery))
		return
	}

	ranked, err := s.search.Search(r.Context(), req.Message, req.Limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]schemeItem, len(ranked))
	for i, rs := range ranked {
		items[i] = schemeItem{
			ID:          rs.Scheme.ID,
			Name:        rs.Scheme.Name,
			Description: rs.Scheme.Description,
			Benefits:    rs.Scheme.Benefits,
			Category:    rs.Scheme.Category,
			Distance:    rs.Distance,
		}
	}

	writeJSON(w, http.StatusOK, schemeSearchResponse{Schemes: items, Count: len(items)})
}

type historyResponse struct {
	SessionID string           `json:"session_id"`
	Messages  []domain.Message `json:"messages"`
}

// GetHistory handles GET /api/chat/history/{session_id}.
func (s *Server) GetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")

	messages, err := s.history.List(r.Context(), sessionID)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if len(messages) == 0 {
		s.handleDomainError(w,
			fmt.Errorf("session %q: %w", sessionID, domain.ErrSessionNotFound))
		return
	}

	writeJSON(w, http.StatusOK, historyResponse{SessionID: sessionID, Messages: messages})
}

type sessionsResponse struct {
	Sessions []string `json:"sessions"`
}

// ListSessions handles GET /api/chat/sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.history.Sessions(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if sessions == nil {
		sessions = []string{}
	}

	writeJSON(w, http.StatusOK, sessionsResponse{Sessions: sessions})
}

// Root handles GET /.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "maya",
		"status":  "running",
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, report)
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyQuery,
		domain.ErrSessionNotFound,
		domain.ErrSchemeNotFound,
		domain.ErrRateLimited,
		domain.ErrProviderUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
