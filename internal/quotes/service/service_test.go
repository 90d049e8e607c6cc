package service

import (
	"context"
	"testing"
	"time"

	"buildvive_backend/internal/quotes/repository"
	"buildvive_backend/internal/store"
	"buildvive_backend/platform/logger"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return New(repository.New(store.NewMemoryStore()), nil, logger.New("development"))
}

func submitAt(t *testing.T, svc *Service, at time.Time) *repository.Quote {
	t.Helper()
	svc.SetClock(func() time.Time { return at })
	q, err := svc.Submit(context.Background(), Submission{
		Name:        "Ana Torres",
		Email:       "ana@example.com",
		Phone:       "+1 555 014 0001",
		ProjectType: "Kitchen Remodel",
		Services:    []string{"cabinets", "countertops"},
		Urgency:     "standard",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return q
}

func TestSubmitCreatesPendingQuote(t *testing.T) {
	svc := newTestService(t)
	q := submitAt(t, svc, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	if q.Status != repository.StatusPending {
		t.Errorf("status = %s, want pending", q.Status)
	}
	if q.Phone != "+15550140001" {
		t.Errorf("phone not normalized: %q", q.Phone)
	}
	if q.ResponseTimeHours != nil {
		t.Error("responseTimeHours set at submission")
	}
}

func TestApproveComputesResponseTime(t *testing.T) {
	svc := newTestService(t)
	submitted := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	q := submitAt(t, svc, submitted)

	approved, err := svc.Approve(context.Background(), q.ID, "https://docs/quote.pdf", submitted.Add(45*time.Minute))
	if err != nil {
		t.Fatalf("approve: %v", err)
	}

	if approved.Status != repository.StatusApproved {
		t.Errorf("status = %s", approved.Status)
	}
	if approved.ResponseTimeHours == nil || *approved.ResponseTimeHours != 0.75 {
		t.Errorf("responseTimeHours = %v, want 0.75", approved.ResponseTimeHours)
	}
	if approved.DocumentURL != "https://docs/quote.pdf" {
		t.Errorf("documentURL = %q", approved.DocumentURL)
	}
	if len(approved.History) != 1 || approved.History[0].To != repository.StatusApproved {
		t.Errorf("history = %+v", approved.History)
	}
}

func TestReApproveIsSingleAssignment(t *testing.T) {
	svc := newTestService(t)
	submitted := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	q := submitAt(t, svc, submitted)

	first, err := svc.Approve(context.Background(), q.ID, "https://docs/v1.pdf", submitted.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	second, err := svc.Approve(context.Background(), q.ID, "https://docs/v2.pdf", submitted.Add(5*time.Hour))
	if err != nil {
		t.Fatalf("re-approve: %v", err)
	}

	if !second.ApprovedAt.Equal(*first.ApprovedAt) {
		t.Errorf("re-approve moved approvedAt: %v vs %v", second.ApprovedAt, first.ApprovedAt)
	}
	if *second.ResponseTimeHours != *first.ResponseTimeHours {
		t.Errorf("re-approve recomputed responseTimeHours: %v vs %v", *second.ResponseTimeHours, *first.ResponseTimeHours)
	}
	if second.DocumentURL != "https://docs/v1.pdf" {
		t.Errorf("re-approve replaced document URL: %q", second.DocumentURL)
	}
	if len(second.History) != 1 {
		t.Errorf("re-approve appended a transition: %d entries", len(second.History))
	}
}

func TestApproveOnRejectedIsNoOp(t *testing.T) {
	svc := newTestService(t)
	q := submitAt(t, svc, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	if _, err := svc.Reject(context.Background(), q.ID, "out of service area"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	after, err := svc.Approve(context.Background(), q.ID, "https://docs/quote.pdf", time.Now())
	if err != nil {
		t.Fatalf("approve on rejected: %v", err)
	}
	if after.Status != repository.StatusRejected {
		t.Errorf("approve overrode rejection: %s", after.Status)
	}
	if after.ResponseTimeHours != nil {
		t.Error("responseTimeHours set on rejected quote")
	}
}

func TestRequestMoreInfoRoundTrip(t *testing.T) {
	svc := newTestService(t)
	submitted := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	q := submitAt(t, svc, submitted)
	ctx := context.Background()

	if _, err := svc.Approve(ctx, q.ID, "https://docs/v1.pdf", submitted.Add(time.Hour)); err != nil {
		t.Fatalf("approve: %v", err)
	}

	svc.SetClock(func() time.Time { return submitted.Add(2 * time.Hour) })
	reopened, err := svc.RequestMoreInfo(ctx, q.ID, "customer changed the scope")
	if err != nil {
		t.Fatalf("request more info: %v", err)
	}
	if reopened.Status != repository.StatusPending {
		t.Errorf("status = %s, want pending", reopened.Status)
	}
	if reopened.ApprovedAt != nil || reopened.ResponseTimeHours != nil {
		t.Error("reopen did not clear approval fields")
	}

	again, err := svc.Approve(ctx, q.ID, "https://docs/v2.pdf", submitted.Add(3*time.Hour))
	if err != nil {
		t.Fatalf("second approve: %v", err)
	}
	if again.ResponseTimeHours == nil || *again.ResponseTimeHours != 3 {
		t.Errorf("second approval responseTimeHours = %v, want 3", again.ResponseTimeHours)
	}
	if again.DocumentURL != "https://docs/v2.pdf" {
		t.Errorf("second approval documentURL = %q", again.DocumentURL)
	}
	if len(again.History) != 3 {
		t.Errorf("history length = %d, want 3", len(again.History))
	}
}

func TestRequestMoreInfoRequiresNotes(t *testing.T) {
	svc := newTestService(t)
	q := submitAt(t, svc, time.Now())

	if _, err := svc.RequestMoreInfo(context.Background(), q.ID, ""); err == nil {
		t.Fatal("expected validation error for empty notes")
	}
}

func TestRequestMoreInfoOnPendingIsNoOp(t *testing.T) {
	svc := newTestService(t)
	q := submitAt(t, svc, time.Now())

	after, err := svc.RequestMoreInfo(context.Background(), q.ID, "already pending")
	if err != nil {
		t.Fatalf("request more info: %v", err)
	}
	if len(after.History) != 0 {
		t.Errorf("pending reopen recorded a transition: %+v", after.History)
	}
}

func TestDeleteRemovesQuote(t *testing.T) {
	svc := newTestService(t)
	q := submitAt(t, svc, time.Now())
	ctx := context.Background()

	if err := svc.Delete(ctx, q.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, q.ID); err == nil {
		t.Fatal("quote still readable after delete")
	}
	quotes, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(quotes) != 0 {
		t.Errorf("deleted quote still listed: %d entries", len(quotes))
	}
}

func TestContextForMissingQuoteIsNil(t *testing.T) {
	svc := newTestService(t)

	qc, err := svc.Context(context.Background(), "no-such-quote")
	if err != nil {
		t.Fatalf("context: %v", err)
	}
	if qc != nil {
		t.Errorf("expected nil context, got %+v", qc)
	}
}
