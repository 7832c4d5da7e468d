// Package notify creates notification records and hands them to the
// external delivery channel. Delivery is fire-and-forget from the core's
// perspective; the transport is not implemented here.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"flakewatch/internal/store"

	"github.com/google/uuid"
)

// Notifier delivers a message to one user.
type Notifier interface {
	Send(ctx context.Context, userID uuid.UUID, typ store.NotificationType,
		title, message string, payload map[string]any, priority store.Priority) error
}

// WebhookNotifier records the notification and posts it to a configured
// webhook. An empty webhook URL disables delivery; the record is still
// written so clients can poll it.
type WebhookNotifier struct {
	store      store.NotificationStore
	webhookURL string
	http       *http.Client
	log        *slog.Logger
}

// NewWebhookNotifier creates a notifier backed by the given store.
func NewWebhookNotifier(s store.NotificationStore, webhookURL string, log *slog.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		store:      s,
		webhookURL: webhookURL,
		http:       &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

func (n *WebhookNotifier) Send(ctx context.Context, userID uuid.UUID, typ store.NotificationType,
	title, message string, payload map[string]any, priority store.Priority) error {

	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		raw = b
	}

	notification := &store.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Message:   message,
		Payload:   raw,
		Priority:  priority,
		CreatedAt: time.Now().UTC(),
	}
	if err := n.store.CreateNotification(ctx, notification); err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}

	if n.webhookURL == "" {
		return nil
	}
	return n.deliver(ctx, notification)
}

func (n *WebhookNotifier) deliver(ctx context.Context, notification *store.Notification) error {
	body, err := json.Marshal(map[string]any{
		"user_id":  notification.UserID,
		"type":     notification.Type,
		"title":    notification.Title,
		"message":  notification.Message,
		"payload":  notification.Payload,
		"priority": notification.Priority,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook delivery status=%d body=%s", resp.StatusCode, string(respBody))
	}
	return nil
}
