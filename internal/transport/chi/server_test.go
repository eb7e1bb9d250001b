package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/udyami-labs/maya/internal/domain"
	healthuc "github.com/udyami-labs/maya/internal/usecase/health"
)

// --- Mocks ---

type mockDispatcher struct {
	result domain.DispatchResult
	err    error
	calls  int
}

func (m *mockDispatcher) Dispatch(_ context.Context, _ string) (domain.DispatchResult, error) {
	m.calls++
	return m.result, m.err
}

type mockSearcher struct {
	ranked []domain.RankedScheme
	err    error
}

func (m *mockSearcher) Search(_ context.Context, _ string, _ int) ([]domain.RankedScheme, error) {
	return m.ranked, m.err
}

type appendedMessage struct {
	sessionID string
	role      string
	content   string
}

type mockHistory struct {
	appended  []appendedMessage
	appendErr error
	messages  []domain.Message
	listErr   error
	sessions  []string
}

func (m *mockHistory) Append(_ context.Context, sessionID, role, content string) error {
	m.appended = append(m.appended, appendedMessage{sessionID, role, content})
	return m.appendErr
}

func (m *mockHistory) List(_ context.Context, _ string) ([]domain.Message, error) {
	return m.messages, m.listErr
}

func (m *mockHistory) Sessions(_ context.Context) ([]string, error) {
	return m.sessions, nil
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report {
	return m.report
}

type serverMocks struct {
	dispatch *mockDispatcher
	search   *mockSearcher
	history  *mockHistory
	health   *mockHealth
}

func newTestServer() (*chi.Mux, *serverMocks) {
	mocks := &serverMocks{
		dispatch: &mockDispatcher{},
		search:   &mockSearcher{},
		history:  &mockHistory{},
		health: &mockHealth{report: healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK},
		}},
	}
	s := NewServer(mocks.dispatch, mocks.search, mocks.history, mocks.health, zap.NewNop())
	r := chi.NewRouter()
	s.Register(r)
	return r, mocks
}

func doJSON(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

// --- Tests ---

func TestChatAgent_Success(t *testing.T) {
	r, mocks := newTestServer()
	mocks.dispatch.result = domain.DispatchResult{
		Response: "Here are two schemes for your dairy business.",
		Category: domain.CategoryScheme,
	}

	rr := doJSON(t, r, "POST", "/api/chat/agent", chatRequest{Message: "schemes for dairy"})

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}

	var resp chatResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Response != mocks.dispatch.result.Response {
		t.Errorf("response = %q", resp.Response)
	}
	if resp.Agent != "scheme" {
		t.Errorf("agent = %q, want scheme", resp.Agent)
	}
	if len(mocks.history.appended) != 0 {
		t.Errorf("no session id, but %d messages appended", len(mocks.history.appended))
	}
}

func TestChatAgent_SessionHistory(t *testing.T) {
	r, mocks := newTestServer()
	mocks.dispatch.result = domain.DispatchResult{Response: "answer", Category: domain.CategoryGeneral}

	rr := doJSON(t, r, "POST", "/api/chat/agent", chatRequest{Message: "hello", SessionID: "s-1"})

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if len(mocks.history.appended) != 2 {
		t.Fatalf("appended %d messages, want 2", len(mocks.history.appended))
	}
	if mocks.history.appended[0].role != domain.RoleUser || mocks.history.appended[0].content != "hello" {
		t.Errorf("first append = %+v, want user message", mocks.history.appended[0])
	}
	if mocks.history.appended[1].role != domain.RoleAssistant || mocks.history.appended[1].content != "answer" {
		t.Errorf("second append = %+v, want assistant message", mocks.history.appended[1])
	}
}

func TestChatAgent_HistoryFailureDoesNotFailChat(t *testing.T) {
	r, mocks := newTestServer()
	mocks.dispatch.result = domain.DispatchResult{Response: "answer", Category: domain.CategoryGeneral}
	mocks.history.appendErr = errors.New("store down")

	rr := doJSON(t, r, "POST", "/api/chat/agent", chatRequest{Message: "hello", SessionID: "s-1"})

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 despite history failure", rr.Code)
	}
}

func TestChatAgent_EmptyMessage(t *testing.T) {
	r, mocks := newTestServer()

	rr := doJSON(t, r, "POST", "/api/chat/agent", chatRequest{Message: "   "})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if errResp.Code != CodeValidationFailed {
		t.Errorf("code = %q, want %q", errResp.Code, CodeValidationFailed)
	}
	if mocks.dispatch.calls != 0 {
		t.Errorf("dispatch called %d times for empty message", mocks.dispatch.calls)
	}
}

func TestChatAgent_DispatchFault(t *testing.T) {
	r, mocks := newTestServer()
	mocks.dispatch.err = fmt.Errorf("scheme handler: %w", errors.New("boom"))

	rr := doJSON(t, r, "POST", "/api/chat/agent", chatRequest{Message: "hello"})

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if errResp.Code != CodeInternalError {
		t.Errorf("code = %q, want %q", errResp.Code, CodeInternalError)
	}
	if errResp.Message != "internal error" {
		t.Errorf("message %q leaks internals", errResp.Message)
	}
}

func TestSearchSchemes(t *testing.T) {
	r, mocks := newTestServer()
	mocks.search.ranked = []domain.RankedScheme{
		{
			Scheme: domain.Scheme{
				ID:          "pmegp",
				Name:        "PMEGP",
				Description: "Credit-linked subsidy for new micro enterprises.",
				Benefits:    "Subsidy up to 35% of project cost.",
				Category:    "finance",
			},
			Distance: 0.12,
		},
	}

	rr := doJSON(t, r, "POST", "/api/chat/schemes", schemeSearchRequest{Message: "loans for a new unit"})

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}

	var resp schemeSearchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 1 || len(resp.Schemes) != 1 {
		t.Fatalf("count = %d, schemes = %d, want 1", resp.Count, len(resp.Schemes))
	}
	if resp.Schemes[0].ID != "pmegp" || resp.Schemes[0].Distance != 0.12 {
		t.Errorf("unexpected item: %+v", resp.Schemes[0])
	}
}

func TestSearchSchemes_EmptyResult(t *testing.T) {
	r, _ := newTestServer()

	rr := doJSON(t, r, "POST", "/api/chat/schemes", schemeSearchRequest{Message: "quantum farming"})

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp schemeSearchResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 0 {
		t.Errorf("count = %d, want 0", resp.Count)
	}
}

func TestGetHistory(t *testing.T) {
	r, mocks := newTestServer()
	now := time.Now().UTC()
	mocks.history.messages = []domain.Message{
		{SessionID: "s-1", Role: domain.RoleUser, Content: "hi", Timestamp: now},
		{SessionID: "s-1", Role: domain.RoleAssistant, Content: "hello", Timestamp: now},
	}

	rr := doJSON(t, r, "GET", "/api/chat/history/s-1", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp historyResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SessionID != "s-1" || len(resp.Messages) != 2 {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.Messages[0].Role != domain.RoleUser {
		t.Errorf("first message role = %q, want user", resp.Messages[0].Role)
	}
}

func TestGetHistory_UnknownSession(t *testing.T) {
	r, _ := newTestServer()

	rr := doJSON(t, r, "GET", "/api/chat/history/nope", nil)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	var errResp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if errResp.Code != CodeSessionNotFound {
		t.Errorf("code = %q, want %q", errResp.Code, CodeSessionNotFound)
	}
}

func TestListSessions(t *testing.T) {
	r, mocks := newTestServer()
	mocks.history.sessions = []string{"s-2", "s-1"}

	rr := doJSON(t, r, "GET", "/api/chat/sessions", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp sessionsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Sessions) != 2 || resp.Sessions[0] != "s-2" {
		t.Errorf("sessions = %v", resp.Sessions)
	}
}

func TestHealthCheck_Degraded(t *testing.T) {
	r, mocks := newTestServer()
	mocks.health.report = healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{
			"database": healthuc.CheckOK,
			"provider": healthuc.CheckError,
		},
	}

	rr := doJSON(t, r, "GET", "/health", nil)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
}

func TestRoot(t *testing.T) {
	r, _ := newTestServer()

	rr := doJSON(t, r, "GET", "/", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["service"] != "maya" {
		t.Errorf("service = %q, want maya", resp["service"])
	}
}
