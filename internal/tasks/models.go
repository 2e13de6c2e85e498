package tasks

import (
	"strings"
	"time"
)

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is a unit of work. CreatedBy is the owner for the ownership override.
type Task struct {
	ID          string     `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Status      Status     `json:"status" db:"status"`
	Priority    Priority   `json:"priority" db:"priority"`
	AssigneeID  *string    `json:"assigneeId" db:"assignee_id"`
	CreatedBy   string     `json:"createdBy" db:"created_by"`
	DueDate     *time.Time `json:"dueDate" db:"due_date"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// Comment belongs to a task. AuthorID is the owner for the ownership override.
type Comment struct {
	ID        string    `json:"id" db:"id"`
	TaskID    string    `json:"taskId" db:"task_id"`
	AuthorID  string    `json:"authorId" db:"author_id"`
	Body      string    `json:"body" db:"body"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type CreateInput struct {
	Title       string     `json:"title" validate:"required,min=1,max=200"`
	Description string     `json:"description" validate:"max=5000"`
	Status      Status     `json:"status" validate:"omitempty,oneof=todo in_progress done"`
	Priority    Priority   `json:"priority" validate:"omitempty,oneof=low medium high"`
	AssigneeID  *string    `json:"assigneeId" validate:"omitempty,uuid"`
	DueDate     *time.Time `json:"dueDate"`
}

// UpdateInput is a partial update; nil fields are left unchanged.
// ClearAssignee and ClearDueDate unset the optional fields.
type UpdateInput struct {
	Title         *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description   *string    `json:"description" validate:"omitempty,max=5000"`
	Status        *Status    `json:"status" validate:"omitempty,oneof=todo in_progress done"`
	Priority      *Priority  `json:"priority" validate:"omitempty,oneof=low medium high"`
	AssigneeID    *string    `json:"assigneeId" validate:"omitempty,uuid"`
	DueDate       *time.Time `json:"dueDate"`
	ClearAssignee bool       `json:"clearAssignee"`
	ClearDueDate  bool       `json:"clearDueDate"`
}

func (in UpdateInput) empty() bool {
	return in.Title == nil && in.Description == nil && in.Status == nil && in.Priority == nil &&
		in.AssigneeID == nil && in.DueDate == nil && !in.ClearAssignee && !in.ClearDueDate
}

type CommentInput struct {
	Body string `json:"body" validate:"required,min=1,max=2000"`
}

// ListFilter narrows a task listing. Page is 1-based; Query matches title and description.
type ListFilter struct {
	Status     Status   `form:"status" validate:"omitempty,oneof=todo in_progress done"`
	Priority   Priority `form:"priority" validate:"omitempty,oneof=low medium high"`
	AssigneeID string   `form:"assigneeId" validate:"omitempty,uuid"`
	Query      string   `form:"q" validate:"max=200"`
	Page       int      `form:"page" validate:"gte=0,lte=1000000"`
	Limit      int      `form:"limit" validate:"gte=0,lte=100"`
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPage keeps (Page-1)*Limit far from int overflow.
	MaxPage = 1_000_000
)

func (f ListFilter) normalized() ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Page > MaxPage {
		f.Page = MaxPage
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	f.Query = strings.TrimSpace(f.Query)
	return f
}

func (f ListFilter) offset() int { return (f.Page - 1) * f.Limit }

type Page struct {
	Tasks []Task `json:"tasks"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}

// GroupCount is the number of tasks with a given status and priority.
type GroupCount struct {
	Status   Status
	Priority Priority
	Count    int
}
