// Package triage turns failed test executions into tracked defects: it
// deduplicates failures against open defects, classifies flaky tests and
// routes new defects to owners.
package triage

import (
	"sort"
	"strings"

	"flakewatch/internal/store"

	"github.com/google/uuid"
)

// labelExpertise maps defect labels to keywords looked up in a candidate's
// skills and bio.
var labelExpertise = map[string][]string{
	"frontend":    {"ui", "react", "javascript", "css"},
	"backend":     {"api", "server", "go", "java", "python"},
	"database":    {"sql", "postgres", "mysql", "migration"},
	"performance": {"performance", "profiling", "benchmark", "load"},
	"security":    {"security", "auth", "crypto"},
	"mobile":      {"android", "ios", "mobile"},
}

// PermissionManageTeam marks users who may receive escalated defects even
// without a matching role title.
const PermissionManageTeam = "manage_team"

// Candidate is one member of the assignment pool together with their
// current open-defect workload.
type Candidate struct {
	User        store.User
	OpenDefects int
}

// PickAssignee selects at most one assignee for the defect, trying
// label-expertise match, severity escalation and workload balancing in that
// order. It returns nil when the pool is empty or no strategy matches;
// an unassigned defect is a valid outcome, not an error.
//
// The pool is sorted by account id before any strategy runs, so the result
// is deterministic for a fixed pool regardless of input order.
func PickAssignee(defect *store.Defect, pool []Candidate) *uuid.UUID {
	if len(pool) == 0 {
		return nil
	}

	candidates := make([]Candidate, len(pool))
	copy(candidates, pool)
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].User.ID.String() < candidates[j].User.ID.String()
	})

	if id := byExpertise(defect.Labels, candidates); id != nil {
		return id
	}
	if id := bySeverity(defect.Severity, candidates); id != nil {
		return id
	}
	return byWorkload(candidates)
}

// byExpertise matches defect labels against the expertise keyword map.
// The first defect label with a mapping and a matching candidate wins.
func byExpertise(labels []string, candidates []Candidate) *uuid.UUID {
	for _, label := range labels {
		keywords, ok := labelExpertise[strings.ToLower(label)]
		if !ok {
			continue
		}
		for _, c := range candidates {
			haystack := strings.ToLower(c.User.Skills + " " + c.User.Bio)
			for _, keyword := range keywords {
				if strings.Contains(haystack, keyword) {
					id := c.User.ID
					return &id
				}
			}
		}
	}
	return nil
}

// bySeverity escalates critical and blocker defects to senior or lead
// responders.
func bySeverity(severity store.Severity, candidates []Candidate) *uuid.UUID {
	if severity != store.SeverityCritical && severity != store.SeverityBlocker {
		return nil
	}
	for _, c := range candidates {
		role := strings.ToLower(c.User.Role)
		if strings.Contains(role, "senior") || strings.Contains(role, "lead") ||
			c.User.HasPermission(PermissionManageTeam) {
			id := c.User.ID
			return &id
		}
	}
	return nil
}

// byWorkload picks the candidate with the fewest open defects. Ties go to
// the earlier candidate in the (sorted) pool.
func byWorkload(candidates []Candidate) *uuid.UUID {
	best := -1
	for i, c := range candidates {
		if best == -1 || c.OpenDefects < candidates[best].OpenDefects {
			best = i
		}
	}
	if best == -1 {
		return nil
	}
	id := candidates[best].User.ID
	return &id
}
