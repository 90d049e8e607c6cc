package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"buildvive_backend/internal/sessions/repository"
	"buildvive_backend/internal/sessions/service"
	"buildvive_backend/internal/store"
	"buildvive_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T) (*gin.Engine, *service.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := service.New(repository.New(store.NewMemoryStore()), nil, logger.New("development"))
	h := NewHandler(svc, logger.New("development"))

	r := gin.New()
	r.POST("/call-webhook", h.HandleCallWebhook)
	return r, svc
}

func postWebhook(t *testing.T, r *gin.Engine, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(http.MethodPost, "/call-webhook", &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookRejectsMalformedBody(t *testing.T) {
	r, _ := newTestRouter(t)
	w := postWebhook(t, r, `{"message": `)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestWebhookUnknownTypeReturns200(t *testing.T) {
	r, _ := newTestRouter(t)
	w := postWebhook(t, r, map[string]any{
		"message": map[string]any{
			"type": "speech-update",
			"call": map[string]any{"id": "call-1"},
		},
	})
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestWebhookMissingCallIDReturns200(t *testing.T) {
	r, _ := newTestRouter(t)
	w := postWebhook(t, r, map[string]any{
		"message": map[string]any{"type": "status-update", "status": "started"},
	})
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestWebhookCallLifecycle(t *testing.T) {
	r, svc := newTestRouter(t)
	ctx := t.Context()

	w := postWebhook(t, r, map[string]any{
		"message": map[string]any{
			"type":   "status-update",
			"status": "started",
			"call": map[string]any{
				"id":       "call-9",
				"customer": map[string]any{"number": "+1 555 014 7300", "name": "Jordan"},
				"metadata": map[string]any{"quoteId": "q-77"},
			},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("start status = %d", w.Code)
	}

	w = postWebhook(t, r, map[string]any{
		"message": map[string]any{
			"type":       "transcript",
			"role":       "user",
			"transcript": "I have a question about my kitchen quote",
			"call":       map[string]any{"id": "call-9"},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("transcript status = %d", w.Code)
	}

	w = postWebhook(t, r, map[string]any{
		"message": map[string]any{
			"type":   "status-update",
			"status": "ended",
			"call":   map[string]any{"id": "call-9", "duration": 95.0},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("end status = %d", w.Code)
	}

	w = postWebhook(t, r, map[string]any{
		"message": map[string]any{
			"type":    "end-of-call-report",
			"summary": "Customer asked about the kitchen quote timeline.",
			"call":    map[string]any{"id": "call-9"},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("report status = %d", w.Code)
	}

	sessID := resolve(t, svc, "call-9")
	sess, err2 := svc.Get(ctx, sessID)
	if err2 != nil {
		t.Fatalf("load session: %v", err2)
	}
	if sess.Status != repository.StatusCompleted {
		t.Errorf("status = %s, want completed", sess.Status)
	}
	if sess.ParticipantName != "Jordan" {
		t.Errorf("participant name = %q", sess.ParticipantName)
	}
	if !sess.HasTag("quote:q-77") {
		t.Errorf("missing quote tag, tags = %v", sess.Tags)
	}
	if len(sess.Turns) != 1 || sess.Turns[0].Role != repository.RoleUser {
		t.Fatalf("turns = %+v", sess.Turns)
	}
	if sess.CallMeta == nil || sess.CallMeta.DurationSeconds != 95 || sess.CallMeta.Summary == "" {
		t.Errorf("call meta = %+v", sess.CallMeta)
	}
}

func TestWebhookMetadataAsEncodedString(t *testing.T) {
	r, svc := newTestRouter(t)

	w := postWebhook(t, r, map[string]any{
		"message": map[string]any{
			"type":   "status-update",
			"status": "started",
			"call": map[string]any{
				"id":       "call-str-meta",
				"metadata": `{"quoteId":"q-5"}`,
			},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	sess, err := svc.Get(t.Context(), resolve(t, svc, "call-str-meta"))
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if !sess.HasTag("quote:q-5") {
		t.Errorf("string-encoded metadata not decoded, tags = %v", sess.Tags)
	}
}

func TestWebhookReportBeforeStart(t *testing.T) {
	r, svc := newTestRouter(t)

	w := postWebhook(t, r, map[string]any{
		"message": map[string]any{
			"type":    "end-of-call-report",
			"summary": "Voicemail, no conversation.",
			"call":    map[string]any{"id": "call-early-report"},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	sess, err := svc.Get(t.Context(), resolve(t, svc, "call-early-report"))
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if !sess.HasTag(service.TagPlaceholder) {
		t.Error("expected placeholder session for early report")
	}
	if sess.CallMeta == nil || sess.CallMeta.Summary == "" {
		t.Error("report summary not stored")
	}
}

// resolve finds the session bound to a call ID through the active/known set.
func resolve(t *testing.T, svc *service.Service, callID string) string {
	t.Helper()
	ids, err := svc.ActiveIDs(t.Context())
	if err != nil {
		t.Fatalf("active ids: %v", err)
	}
	for _, id := range ids {
		sess, err := svc.Get(t.Context(), id)
		if err == nil && sess.ExternalCallID == callID {
			return sess.ID
		}
	}
	// Completed sessions leave the active index; fall back to a fresh
	// ensure, which resolves the existing binding.
	sess, err := svc.CreateForCall(t.Context(), callID, service.InitialMeta{})
	if err != nil {
		t.Fatalf("resolve %s: %v", callID, err)
	}
	return sess.ID
}
