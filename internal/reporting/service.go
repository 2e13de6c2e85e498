package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sprintlite/internal/rbac"
	"sprintlite/internal/tasks"
)

type TaskCounter interface {
	Counts(ctx context.Context) ([]tasks.GroupCount, int, error)
}

type UserCounter interface {
	CountByRole(ctx context.Context) (map[string]int, error)
}

type Service struct {
	tasks TaskCounter
	users UserCounter
	clock func() time.Time
}

func NewService(t TaskCounter, u UserCounter) *Service {
	return &Service{tasks: t, users: u, clock: time.Now}
}

// Stats aggregates task and user counts. Every known status, priority and role appears in
// the result, with zero when nothing matches.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	if s.tasks == nil || s.users == nil {
		return Stats{}, errors.New("reporting: sources not configured")
	}

	groups, overdue, err := s.tasks.Counts(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("task counts: %w", err)
	}
	roles, err := s.users.CountByRole(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("user counts: %w", err)
	}

	ts := TaskStats{
		ByStatus: map[string]int{
			string(tasks.StatusTodo):       0,
			string(tasks.StatusInProgress): 0,
			string(tasks.StatusDone):       0,
		},
		ByPriority: map[string]int{
			string(tasks.PriorityLow):    0,
			string(tasks.PriorityMedium): 0,
			string(tasks.PriorityHigh):   0,
		},
		Overdue: overdue,
	}
	for _, g := range groups {
		ts.Total += g.Count
		ts.ByStatus[string(g.Status)] += g.Count
		ts.ByPriority[string(g.Priority)] += g.Count
	}
	if ts.Total > 0 {
		ts.CompletionRate = float64(ts.ByStatus[string(tasks.StatusDone)]) / float64(ts.Total)
	}

	us := UserStats{ByRole: map[string]int{}}
	for _, r := range rbac.Roles {
		us.ByRole[r] = 0
	}
	for r, n := range roles {
		us.ByRole[r] += n
		us.Total += n
	}

	return Stats{Tasks: ts, Users: us, GeneratedAt: s.clock().UTC()}, nil
}
