package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"flakewatch/internal/store"

	"github.com/google/uuid"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockNotificationStore struct {
	created []*store.Notification
	err     error
}

func (m *mockNotificationStore) CreateNotification(ctx context.Context, n *store.Notification) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, n)
	return nil
}

func TestSend_RecordsAndDelivers(t *testing.T) {
	var received map[string]any
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("bad webhook body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer webhook.Close()

	s := &mockNotificationStore{}
	n := NewWebhookNotifier(s, webhook.URL, testLogger())
	userID := uuid.New()

	err := n.Send(context.Background(), userID, store.NotificationDefectAssigned,
		"Defect assigned to you", "Automated test failure: login_test",
		map[string]any{"defect_id": uuid.NewString()}, store.PriorityHigh)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(s.created) != 1 {
		t.Fatalf("expected one stored notification, got %d", len(s.created))
	}
	if s.created[0].UserID != userID || s.created[0].Type != store.NotificationDefectAssigned {
		t.Errorf("unexpected notification: %+v", s.created[0])
	}

	if received["title"] != "Defect assigned to you" {
		t.Errorf("webhook title = %v", received["title"])
	}
	if received["user_id"] != userID.String() {
		t.Errorf("webhook user_id = %v, want %s", received["user_id"], userID)
	}
}

func TestSend_EmptyURLSkipsDelivery(t *testing.T) {
	s := &mockNotificationStore{}
	n := NewWebhookNotifier(s, "", testLogger())

	err := n.Send(context.Background(), uuid.New(), store.NotificationRuleTriggered,
		"t", "m", nil, store.PriorityLow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.created) != 1 {
		t.Error("record must be written even without delivery")
	}
}

func TestSend_WebhookErrorSurfaces(t *testing.T) {
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer webhook.Close()

	n := NewWebhookNotifier(&mockNotificationStore{}, webhook.URL, testLogger())

	err := n.Send(context.Background(), uuid.New(), store.NotificationRuleTriggered,
		"t", "m", nil, store.PriorityLow)
	if err == nil {
		t.Error("expected error on non-2xx webhook response")
	}
}

func TestSend_StoreErrorStopsDelivery(t *testing.T) {
	delivered := false
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		delivered = true
	}))
	defer webhook.Close()

	s := &mockNotificationStore{err: errors.New("insert failed")}
	n := NewWebhookNotifier(s, webhook.URL, testLogger())

	err := n.Send(context.Background(), uuid.New(), store.NotificationRuleTriggered,
		"t", "m", nil, store.PriorityLow)
	if err == nil {
		t.Error("expected error when the record cannot be written")
	}
	if delivered {
		t.Error("delivery must not happen without a durable record")
	}
}
