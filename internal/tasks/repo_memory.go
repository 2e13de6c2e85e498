package tasks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repository for tests and local development.
type MemoryRepo struct {
	mu       sync.Mutex
	tasks    map[string]Task
	comments map[string][]Comment // by task id, oldest first
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{tasks: map[string]Task{}, comments: map[string][]Comment{}}
}

func (r *MemoryRepo) Create(ctx context.Context, t Task) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[t.ID] = t
	return t, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return Task{}, ErrNotFound
	}
	return t, nil
}

func (r *MemoryRepo) List(ctx context.Context, f ListFilter) ([]Task, int, error) {
	f = f.normalized()
	q := strings.ToLower(f.Query)

	r.mu.Lock()
	defer r.mu.Unlock()

	all := make([]Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Priority != "" && t.Priority != f.Priority {
			continue
		}
		if f.AssigneeID != "" && (t.AssigneeID == nil || *t.AssigneeID != f.AssigneeID) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(t.Title), q) && !strings.Contains(strings.ToLower(t.Description), q) {
			continue
		}
		all = append(all, t)
	}
	// Newest first.
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID > all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	start := min(f.offset(), total)
	end := min(start+f.Limit, total)
	return all[start:end], total, nil
}

func (r *MemoryRepo) Update(ctx context.Context, t Task) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[t.ID]; !ok {
		return Task{}, ErrNotFound
	}
	r.tasks[t.ID] = t
	return t, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(r.tasks, id)
	delete(r.comments, id)
	return nil
}

func (r *MemoryRepo) AddComment(ctx context.Context, c Comment) (Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[c.TaskID]; !ok {
		return Comment{}, ErrNotFound
	}
	r.comments[c.TaskID] = append(r.comments[c.TaskID], c)
	return c, nil
}

func (r *MemoryRepo) ListComments(ctx context.Context, taskID string) ([]Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[taskID]; !ok {
		return nil, ErrNotFound
	}
	out := make([]Comment, len(r.comments[taskID]))
	copy(out, r.comments[taskID])
	return out, nil
}

func (r *MemoryRepo) GetComment(ctx context.Context, taskID, commentID string) (Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.comments[taskID] {
		if c.ID == commentID {
			return c, nil
		}
	}
	return Comment{}, ErrCommentNotFound
}

func (r *MemoryRepo) DeleteComment(ctx context.Context, taskID, commentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.comments[taskID]
	for i, c := range list {
		if c.ID == commentID {
			r.comments[taskID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return ErrCommentNotFound
}

func (r *MemoryRepo) GroupCounts(ctx context.Context) ([]GroupCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	type key struct {
		s Status
		p Priority
	}
	counts := map[key]int{}
	for _, t := range r.tasks {
		counts[key{t.Status, t.Priority}]++
	}
	out := make([]GroupCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, GroupCount{Status: k.s, Priority: k.p, Count: n})
	}
	return out, nil
}

func (r *MemoryRepo) CountOverdue(ctx context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.tasks {
		if t.Status != StatusDone && t.DueDate != nil && t.DueDate.Before(now) {
			n++
		}
	}
	return n, nil
}
