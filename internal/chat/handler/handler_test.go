package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"buildvive_backend/internal/chat/service"
	"buildvive_backend/internal/chat/transport"
	"buildvive_backend/internal/escalation"
	"buildvive_backend/internal/sessions/repository"
	sessionsvc "buildvive_backend/internal/sessions/service"
	"buildvive_backend/internal/store"
	"buildvive_backend/internal/triage"
	"buildvive_backend/platform/logger"
	"buildvive_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.New("development")
	sessions := sessionsvc.New(repository.New(store.NewMemoryStore()), nil, log)
	coord := escalation.New(sessions, nil, nil, nil, log)
	lex := triage.NewLexicon()
	svc := service.New(triage.NewClassifier(lex), triage.NewResponder(lex, nil, log), sessions, nil, coord, log)

	r := gin.New()
	r.POST("/chat", NewHandler(svc, validator.New()).HandleChat)
	return r
}

func postChat(t *testing.T, r *gin.Engine, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestChatReturnsReply(t *testing.T) {
	r := newTestRouter(t)

	w := postChat(t, r, `{"message":"hello"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp transport.ChatResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Response == "" || resp.SessionID == "" {
		t.Errorf("incomplete response: %+v", resp)
	}
}

func TestChatEmptyMessageGetsClarification(t *testing.T) {
	r := newTestRouter(t)

	for _, body := range []string{`{"message":""}`, `{"message":"   "}`} {
		w := postChat(t, r, body)
		if w.Code != http.StatusOK {
			t.Fatalf("body %s: status = %d, want 200", body, w.Code)
		}

		var resp transport.ChatResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if !strings.Contains(resp.Response, "didn't quite catch") {
			t.Errorf("body %s: expected clarification prompt, got %q", body, resp.Response)
		}
		if resp.Escalate {
			t.Errorf("body %s: empty input escalated", body)
		}
	}
}

func TestChatOversizedMessageRejected(t *testing.T) {
	r := newTestRouter(t)

	w := postChat(t, r, `{"message":"`+strings.Repeat("a", 4001)+`"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestChatMalformedBodyRejected(t *testing.T) {
	r := newTestRouter(t)

	w := postChat(t, r, `{"message":`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
