package triage

import (
	"testing"

	"flakewatch/internal/store"

	"github.com/google/uuid"
)

func candidate(id uuid.UUID, role, skills string, open int) Candidate {
	return Candidate{
		User:        store.User{ID: id, Role: role, Skills: skills},
		OpenDefects: open,
	}
}

func TestPickAssignee_EmptyPool(t *testing.T) {
	defect := &store.Defect{Severity: store.SeverityHigh}
	if got := PickAssignee(defect, nil); got != nil {
		t.Errorf("expected nil assignee for empty pool, got %s", got)
	}
}

func TestPickAssignee_LabelExpertiseWins(t *testing.T) {
	reactDev := uuid.New()
	idle := uuid.New()

	pool := []Candidate{
		candidate(idle, "QA Engineer", "manual testing", 0),
		candidate(reactDev, "QA Engineer", "React, JavaScript", 10),
	}
	defect := &store.Defect{
		Severity: store.SeverityHigh,
		Labels:   []string{"frontend"},
	}

	got := PickAssignee(defect, pool)
	if got == nil || *got != reactDev {
		t.Errorf("expected expertise match %s even with higher workload, got %v", reactDev, got)
	}
}

func TestPickAssignee_ExpertiseIsCaseInsensitive(t *testing.T) {
	dev := uuid.New()
	pool := []Candidate{candidate(dev, "QA", "POSTGRES tuning", 0)}
	defect := &store.Defect{Labels: []string{"Database"}}

	got := PickAssignee(defect, pool)
	if got == nil || *got != dev {
		t.Errorf("expected case-insensitive keyword match, got %v", got)
	}
}

func TestPickAssignee_SeverityEscalation(t *testing.T) {
	junior := uuid.New()
	senior := uuid.New()

	pool := []Candidate{
		candidate(junior, "QA Engineer", "", 0),
		candidate(senior, "Senior QA Engineer", "", 5),
	}
	defect := &store.Defect{Severity: store.SeverityBlocker}

	got := PickAssignee(defect, pool)
	if got == nil || *got != senior {
		t.Errorf("expected blocker to escalate to senior, got %v", got)
	}
}

func TestPickAssignee_EscalationViaPermission(t *testing.T) {
	manager := uuid.New()
	pool := []Candidate{
		{User: store.User{ID: manager, Role: "QA", Permissions: []string{PermissionManageTeam}}},
	}
	defect := &store.Defect{Severity: store.SeverityCritical}

	got := PickAssignee(defect, pool)
	if got == nil || *got != manager {
		t.Errorf("expected manage_team permission to qualify, got %v", got)
	}
}

func TestPickAssignee_NoEscalationForHighSeverity(t *testing.T) {
	senior := uuid.New()
	idle := uuid.New()

	pool := []Candidate{
		candidate(senior, "Senior QA Engineer", "", 5),
		candidate(idle, "QA Engineer", "", 0),
	}
	// High is below the escalation threshold; workload balancing applies.
	defect := &store.Defect{Severity: store.SeverityHigh}

	got := PickAssignee(defect, pool)
	if got == nil || *got != idle {
		t.Errorf("expected workload fallback to pick %s, got %v", idle, got)
	}
}

func TestPickAssignee_WorkloadTieBreakIsStable(t *testing.T) {
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

	pool := []Candidate{
		candidate(ids[0], "QA", "", 2),
		candidate(ids[1], "QA", "", 2),
		candidate(ids[2], "QA", "", 2),
	}
	defect := &store.Defect{Severity: store.SeverityLow}

	first := PickAssignee(defect, pool)
	if first == nil {
		t.Fatal("expected an assignee")
	}

	// Same pool in a different order must yield the same assignee.
	shuffled := []Candidate{pool[2], pool[0], pool[1]}
	second := PickAssignee(defect, shuffled)
	if second == nil || *second != *first {
		t.Errorf("assignment not deterministic: %v vs %v", first, second)
	}
}

func TestPickAssignee_Idempotent(t *testing.T) {
	pool := []Candidate{
		candidate(uuid.New(), "QA", "api testing", 1),
		candidate(uuid.New(), "Senior QA", "", 0),
	}
	defect := &store.Defect{Severity: store.SeverityCritical, Labels: []string{"backend"}}

	first := PickAssignee(defect, pool)
	for i := 0; i < 5; i++ {
		if got := PickAssignee(defect, pool); got == nil || first == nil || *got != *first {
			t.Fatalf("repeated invocation changed result: %v vs %v", first, got)
		}
	}
}
