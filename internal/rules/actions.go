package rules

import (
	"context"
	"fmt"
	"strings"

	"flakewatch/internal/store"

	"github.com/google/uuid"
)

// execute applies one rule action. Defect-mutating actions require the
// event to carry a defect id; send_notification requires a target user.
func (e *Engine) execute(ctx context.Context, action store.RuleAction, payload map[string]any, defectID *uuid.UUID) error {
	switch action.Type {
	case store.ActionAssignUser:
		if defectID == nil {
			return fmt.Errorf("assign_user: event has no defect")
		}
		if action.UserID == nil {
			return fmt.Errorf("assign_user: action has no user_id")
		}
		return e.defects.UpdateAssignee(ctx, *defectID, *action.UserID)

	case store.ActionAddLabel:
		if defectID == nil {
			return fmt.Errorf("add_label: event has no defect")
		}
		if action.Label == "" {
			return fmt.Errorf("add_label: action has no label")
		}
		return e.defects.AddLabel(ctx, *defectID, action.Label)

	case store.ActionSendNotification:
		userID, err := notificationTarget(action, payload)
		if err != nil {
			return err
		}
		message := expandTemplate(action.Template, payload)
		return e.notifier.Send(ctx, userID, store.NotificationRuleTriggered,
			"Automation rule triggered", message, payload, store.PriorityMedium)

	case store.ActionChangePriority:
		if defectID == nil {
			return fmt.Errorf("change_priority: event has no defect")
		}
		if action.Priority == "" {
			return fmt.Errorf("change_priority: action has no priority")
		}
		return e.defects.UpdatePriority(ctx, *defectID, action.Priority)

	default:
		return fmt.Errorf("unknown action type %q", action.Type)
	}
}

// notificationTarget picks the recipient: the action's explicit user if
// set, otherwise the assignee carried in the event payload.
func notificationTarget(action store.RuleAction, payload map[string]any) (uuid.UUID, error) {
	if action.UserID != nil {
		return *action.UserID, nil
	}
	if v, ok := payload["assignee_id"].(string); ok && v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return uuid.Nil, fmt.Errorf("send_notification: bad assignee_id in payload: %w", err)
		}
		return id, nil
	}
	return uuid.Nil, fmt.Errorf("send_notification: no target user")
}

// expandTemplate substitutes {key} placeholders with top-level payload
// values. Unknown keys are left as-is.
func expandTemplate(template string, payload map[string]any) string {
	if template == "" {
		return template
	}
	out := template
	for key, value := range payload {
		out = strings.ReplaceAll(out, "{"+key+"}", fmt.Sprintf("%v", value))
	}
	return out
}
