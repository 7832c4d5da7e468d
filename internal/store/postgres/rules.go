package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"flakewatch/internal/store"
)

func (s *Store) ListActiveRulesByTrigger(ctx context.Context, trigger string) ([]store.WorkflowRule, error) {
	query := `
	SELECT id, name, trigger_event, conditions, actions, active, created_at
	FROM workflow_rules
	WHERE trigger_event = $1 AND active
	ORDER BY created_at
	`
	return s.queryRules(ctx, query, trigger)
}

func (s *Store) ListRules(ctx context.Context) ([]store.WorkflowRule, error) {
	query := `
	SELECT id, name, trigger_event, conditions, actions, active, created_at
	FROM workflow_rules
	ORDER BY created_at
	`
	return s.queryRules(ctx, query)
}

func (s *Store) queryRules(ctx context.Context, query string, args ...interface{}) ([]store.WorkflowRule, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []store.WorkflowRule
	for rows.Next() {
		var rule store.WorkflowRule
		var conditions, actions []byte
		if err := rows.Scan(&rule.ID, &rule.Name, &rule.Trigger, &conditions, &actions, &rule.Active, &rule.CreatedAt); err != nil {
			return nil, err
		}
		if len(conditions) > 0 {
			if err := json.Unmarshal(conditions, &rule.Conditions); err != nil {
				return nil, fmt.Errorf("rule %s has malformed conditions: %w", rule.ID, err)
			}
		}
		if len(actions) > 0 {
			if err := json.Unmarshal(actions, &rule.Actions); err != nil {
				return nil, fmt.Errorf("rule %s has malformed actions: %w", rule.ID, err)
			}
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}
