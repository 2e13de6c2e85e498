package reporting

import (
	"context"
	"errors"
	"testing"

	"sprintlite/internal/tasks"
)

type fakeTasks struct {
	groups  []tasks.GroupCount
	overdue int
	err     error
}

func (f fakeTasks) Counts(context.Context) ([]tasks.GroupCount, int, error) {
	return f.groups, f.overdue, f.err
}

type fakeUsers map[string]int

func (f fakeUsers) CountByRole(context.Context) (map[string]int, error) { return f, nil }

func TestStats_Aggregates(t *testing.T) {
	svc := NewService(fakeTasks{
		groups: []tasks.GroupCount{
			{Status: tasks.StatusTodo, Priority: tasks.PriorityHigh, Count: 2},
			{Status: tasks.StatusDone, Priority: tasks.PriorityHigh, Count: 1},
			{Status: tasks.StatusDone, Priority: tasks.PriorityLow, Count: 1},
		},
		overdue: 1,
	}, fakeUsers{"owner": 1, "member": 5})

	s, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if s.Tasks.Total != 4 || s.Tasks.ByStatus["done"] != 2 || s.Tasks.ByPriority["high"] != 3 || s.Tasks.Overdue != 1 {
		t.Fatalf("unexpected task stats %+v", s.Tasks)
	}
	if s.Tasks.ByStatus["in_progress"] != 0 || s.Tasks.ByPriority["medium"] != 0 {
		t.Fatalf("expected zero-filled buckets, got %+v", s.Tasks)
	}
	if s.Tasks.CompletionRate != 0.5 {
		t.Fatalf("expected completion 0.5, got %v", s.Tasks.CompletionRate)
	}
	if s.Users.Total != 6 || s.Users.ByRole["admin"] != 0 || s.Users.ByRole["member"] != 5 {
		t.Fatalf("unexpected user stats %+v", s.Users)
	}
}

func TestStats_EmptyAndErrors(t *testing.T) {
	s, err := NewService(fakeTasks{}, fakeUsers{}).Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if s.Tasks.CompletionRate != 0 || s.Tasks.Total != 0 {
		t.Fatalf("unexpected empty stats %+v", s.Tasks)
	}

	boom := errors.New("boom")
	if _, err := NewService(fakeTasks{err: boom}, fakeUsers{}).Stats(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := NewService(nil, nil).Stats(context.Background()); err == nil {
		t.Fatalf("expected configuration error")
	}
}
