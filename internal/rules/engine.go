// Package rules implements the workflow rule engine: stored condition trees
// evaluated against event payloads, followed by an ordered action list.
package rules

import (
	"context"
	"log/slog"
	"strings"

	"flakewatch/internal/notify"
	"flakewatch/internal/store"

	"github.com/google/uuid"
)

// RuleSource provides the active rules for a trigger.
type RuleSource interface {
	ListActiveRulesByTrigger(ctx context.Context, trigger string) ([]store.WorkflowRule, error)
}

// DefectMutator is the subset of defect operations rule actions may perform.
type DefectMutator interface {
	UpdateAssignee(ctx context.Context, id, userID uuid.UUID) error
	AddLabel(ctx context.Context, id uuid.UUID, label string) error
	UpdatePriority(ctx context.Context, id uuid.UUID, priority store.Priority) error
}

// Engine evaluates workflow rules. It is stateless between invocations:
// each evaluation is a function of the stored rule set, the trigger and
// the payload at call time.
type Engine struct {
	rules    RuleSource
	defects  DefectMutator
	notifier notify.Notifier
	log      *slog.Logger
}

// New creates a rule engine.
func New(rules RuleSource, defects DefectMutator, notifier notify.Notifier, log *slog.Logger) *Engine {
	return &Engine{rules: rules, defects: defects, notifier: notifier, log: log}
}

// Evaluate runs all active rules registered for trigger against payload.
// Rules whose conditions match have their actions executed in list order.
// A failing action or rule is logged and skipped; it never aborts the
// remaining actions or rules. Returns the number of rules that fired.
func (e *Engine) Evaluate(ctx context.Context, trigger string, payload map[string]any, defectID *uuid.UUID) int {
	rules, err := e.rules.ListActiveRulesByTrigger(ctx, trigger)
	if err != nil {
		e.log.Error("failed to load rules", "trigger", trigger, "error", err)
		return 0
	}

	fired := 0
	for _, rule := range rules {
		if !EvalCondition(rule.Conditions, payload) {
			continue
		}
		fired++
		e.log.Info("rule fired", "rule", rule.Name, "trigger", trigger)

		for i, action := range rule.Actions {
			if err := e.execute(ctx, action, payload, defectID); err != nil {
				// Best-effort: one misconfigured action must not disable
				// the rest of the rule or unrelated rules.
				e.log.Error("rule action failed",
					"rule", rule.Name, "action", action.Type, "index", i, "error", err)
			}
		}
	}
	return fired
}

// EvalCondition evaluates one condition node against the payload.
// A node with no child rules and no field is unconditionally true.
func EvalCondition(node store.RuleCondition, payload map[string]any) bool {
	if len(node.Rules) > 0 {
		return evalGroup(node, payload)
	}
	if node.Field == "" {
		return true
	}
	return evalLeaf(node, payload)
}

func evalGroup(node store.RuleCondition, payload map[string]any) bool {
	switch strings.ToUpper(node.Operator) {
	case "OR":
		for _, child := range node.Rules {
			if EvalCondition(child, payload) {
				return true
			}
		}
		return false
	default: // AND
		for _, child := range node.Rules {
			if !EvalCondition(child, payload) {
				return false
			}
		}
		return true
	}
}

func evalLeaf(node store.RuleCondition, payload map[string]any) bool {
	value, found := lookupField(payload, node.Field)

	switch node.Operator {
	case "equals":
		return found && valuesEqual(value, node.Value)
	case "not_equals":
		// An absent field is not equal to anything.
		return !found || !valuesEqual(value, node.Value)
	case "contains":
		return found && valueContains(value, node.Value)
	case "greater_than":
		return found && compareNumeric(value, node.Value) > 0
	case "less_than":
		return found && compareNumeric(value, node.Value) < 0
	case "in":
		return found && valueIn(value, node.Value)
	default:
		return false
	}
}

// lookupField resolves a dot-path like "defect.severity" within the payload.
func lookupField(payload map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var current any = payload
	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
