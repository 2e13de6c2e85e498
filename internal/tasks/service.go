package tasks

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"sprintlite/internal/cache"
)

// UserLookup confirms that an assignee exists. users.Service satisfies it through Exists.
type UserLookup interface {
	Exists(ctx context.Context, id string) (bool, error)
}

var ErrUnknownAssignee = errors.New("tasks: assignee does not exist")

type Service struct {
	repo     Repository
	users    UserLookup
	cache    *cache.Cache
	cacheTTL time.Duration
	log      *slog.Logger
	clock    func() time.Time
}

// NewService wires the task service. users and c may be nil: without users assignees are
// not checked, without c listings are not cached.
func NewService(repo Repository, users UserLookup, c *cache.Cache, cacheTTL time.Duration, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, users: users, cache: c, cacheTTL: cacheTTL, log: log, clock: time.Now}
}

var listPrefix = cache.Key("tasks", "list") + ":"

// listKey is stable for equal normalized filters.
func listKey(f ListFilter) string {
	raw := strings.Join([]string{
		string(f.Status),
		string(f.Priority),
		f.AssigneeID,
		strings.ToLower(f.Query),
		fmt.Sprint(f.Page),
		fmt.Sprint(f.Limit),
	}, "\x1f")
	sum := sha256.Sum256([]byte(raw))
	return listPrefix + hex.EncodeToString(sum[:12])
}

// List returns a page of tasks. The bool reports whether it came from the cache.
func (s *Service) List(ctx context.Context, f ListFilter) (Page, bool, error) {
	f = f.normalized()
	load := func(ctx context.Context) (Page, error) {
		list, total, err := s.repo.List(ctx, f)
		if err != nil {
			return Page{}, err
		}
		return Page{Tasks: list, Total: total, Page: f.Page, Limit: f.Limit}, nil
	}
	if s.cache == nil {
		p, err := load(ctx)
		return p, false, err
	}
	return cache.Remember(ctx, s.cache, listKey(f), s.cacheTTL, load)
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, listPrefix)
	}
}

func (s *Service) checkAssignee(ctx context.Context, id *string) error {
	if id == nil || s.users == nil {
		return nil
	}
	ok, err := s.users.Exists(ctx, *id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnknownAssignee
	}
	return nil
}

func (s *Service) Create(ctx context.Context, createdBy string, in CreateInput) (Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || createdBy == "" {
		return Task{}, ErrInvalidArgument
	}
	if in.Status == "" {
		in.Status = StatusTodo
	}
	if in.Priority == "" {
		in.Priority = PriorityMedium
	}
	if !in.Status.Valid() || !in.Priority.Valid() {
		return Task{}, ErrInvalidArgument
	}
	if err := s.checkAssignee(ctx, in.AssigneeID); err != nil {
		return Task{}, err
	}

	now := s.clock().UTC()
	t, err := s.repo.Create(ctx, Task{
		ID:          uuid.NewString(),
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		AssigneeID:  in.AssigneeID,
		CreatedBy:   createdBy,
		DueDate:     in.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Task{}, err
	}
	s.invalidate(ctx)
	return t, nil
}

func (s *Service) Get(ctx context.Context, id string) (Task, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Task, error) {
	if in.empty() {
		return Task{}, ErrInvalidArgument
	}
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return Task{}, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return Task{}, ErrInvalidArgument
		}
		t.Title = title
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return Task{}, ErrInvalidArgument
		}
		t.Status = *in.Status
	}
	if in.Priority != nil {
		if !in.Priority.Valid() {
			return Task{}, ErrInvalidArgument
		}
		t.Priority = *in.Priority
	}
	switch {
	case in.ClearAssignee:
		t.AssigneeID = nil
	case in.AssigneeID != nil:
		if err := s.checkAssignee(ctx, in.AssigneeID); err != nil {
			return Task{}, err
		}
		t.AssigneeID = in.AssigneeID
	}
	switch {
	case in.ClearDueDate:
		t.DueDate = nil
	case in.DueDate != nil:
		t.DueDate = in.DueDate
	}
	t.UpdatedAt = s.clock().UTC()

	out, err := s.repo.Update(ctx, t)
	if err != nil {
		return Task{}, err
	}
	s.invalidate(ctx)
	return out, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *Service) AddComment(ctx context.Context, taskID, authorID string, in CommentInput) (Comment, error) {
	body := strings.TrimSpace(in.Body)
	if body == "" || authorID == "" {
		return Comment{}, ErrInvalidArgument
	}
	return s.repo.AddComment(ctx, Comment{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		AuthorID:  authorID,
		Body:      body,
		CreatedAt: s.clock().UTC(),
	})
}

func (s *Service) ListComments(ctx context.Context, taskID string) ([]Comment, error) {
	return s.repo.ListComments(ctx, taskID)
}

func (s *Service) GetComment(ctx context.Context, taskID, commentID string) (Comment, error) {
	return s.repo.GetComment(ctx, taskID, commentID)
}

func (s *Service) DeleteComment(ctx context.Context, taskID, commentID string) error {
	return s.repo.DeleteComment(ctx, taskID, commentID)
}

// Counts aggregates tasks by status and priority for reporting.
func (s *Service) Counts(ctx context.Context) ([]GroupCount, int, error) {
	groups, err := s.repo.GroupCounts(ctx)
	if err != nil {
		return nil, 0, err
	}
	overdue, err := s.repo.CountOverdue(ctx, s.clock().UTC())
	if err != nil {
		return nil, 0, err
	}
	return groups, overdue, nil
}
