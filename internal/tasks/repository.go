package tasks

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("tasks: not found")
	ErrCommentNotFound = errors.New("tasks: comment not found")
	ErrInvalidArgument = errors.New("tasks: invalid argument")
)

// Repository is the persistence contract for tasks and their comments.
// Deleting a task deletes its comments.
type Repository interface {
	Create(ctx context.Context, t Task) (Task, error)
	Get(ctx context.Context, id string) (Task, error)
	List(ctx context.Context, f ListFilter) ([]Task, int, error)
	Update(ctx context.Context, t Task) (Task, error)
	Delete(ctx context.Context, id string) error

	AddComment(ctx context.Context, c Comment) (Comment, error)
	ListComments(ctx context.Context, taskID string) ([]Comment, error)
	GetComment(ctx context.Context, taskID, commentID string) (Comment, error)
	DeleteComment(ctx context.Context, taskID, commentID string) error

	GroupCounts(ctx context.Context) ([]GroupCount, error)
	CountOverdue(ctx context.Context, now time.Time) (int, error)
}
