package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"sprintlite/pkg/utils"
)

// PostgresRepo implements Repository on database/sql (pgx stdlib driver).
// Tables tasks and task_comments; comments cascade on task delete.
type PostgresRepo struct {
	db *sql.DB
}

var _ Repository = (*PostgresRepo)(nil)

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

const taskColumns = `id, title, description, status, priority, assignee_id, created_by, due_date, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (Task, error) {
	var (
		t        Task
		assignee sql.NullString
		due      sql.NullTime
	)
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &assignee, &t.CreatedBy, &due, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Task{}, ErrNotFound
		}
		return Task{}, err
	}
	if assignee.Valid {
		t.AssigneeID = &assignee.String
	}
	if due.Valid {
		t.DueDate = &due.Time
	}
	return t, nil
}

func (r *PostgresRepo) Create(ctx context.Context, t Task) (Task, error) {
	const q = `
INSERT INTO tasks (` + taskColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
RETURNING ` + taskColumns
	out, err := scanTask(r.db.QueryRowContext(ctx, q,
		t.ID,
		t.Title,
		t.Description,
		string(t.Status),
		string(t.Priority),
		t.AssigneeID,
		t.CreatedBy,
		t.DueDate,
		t.CreatedAt,
		t.UpdatedAt,
	))
	if err != nil {
		if utils.IsForeignKeyViolation(err) {
			return Task{}, ErrInvalidArgument
		}
		return Task{}, fmt.Errorf("insert task: %w", err)
	}
	return out, nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Task, error) {
	const q = `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	return scanTask(r.db.QueryRowContext(ctx, q, id))
}

// taskWhere builds the WHERE clause for f; args start at $1.
func taskWhere(f ListFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, strings.ReplaceAll(cond, "?", fmt.Sprintf("$%d", len(args))))
	}
	if f.Status != "" {
		add("status = ?", string(f.Status))
	}
	if f.Priority != "" {
		add("priority = ?", string(f.Priority))
	}
	if f.AssigneeID != "" {
		add("assignee_id = ?", f.AssigneeID)
	}
	if f.Query != "" {
		add(`(title ILIKE '%' || ? || '%' ESCAPE '\' OR description ILIKE '%' || ? || '%' ESCAPE '\')`, escapeLike(f.Query))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *PostgresRepo) List(ctx context.Context, f ListFilter) ([]Task, int, error) {
	f = f.normalized()
	where, args := taskWhere(f)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	q := fmt.Sprintf(`SELECT %s FROM tasks%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		taskColumns, where, len(args)+1, len(args)+2)
	rows, err := r.db.QueryContext(ctx, q, append(args, f.Limit, f.offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	out := make([]Task, 0, f.Limit)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *PostgresRepo) Update(ctx context.Context, t Task) (Task, error) {
	const q = `
UPDATE tasks
SET title = $2, description = $3, status = $4, priority = $5, assignee_id = $6, due_date = $7, updated_at = $8
WHERE id = $1
RETURNING ` + taskColumns
	out, err := scanTask(r.db.QueryRowContext(ctx, q,
		t.ID,
		t.Title,
		t.Description,
		string(t.Status),
		string(t.Priority),
		t.AssigneeID,
		t.DueDate,
		t.UpdatedAt,
	))
	if err != nil && utils.IsForeignKeyViolation(err) {
		return Task{}, ErrInvalidArgument
	}
	return out, err
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return expectOne(res, ErrNotFound)
}

const commentColumns = `id, task_id, author_id, body, created_at`

func scanComment(row rowScanner) (Comment, error) {
	var c Comment
	if err := row.Scan(&c.ID, &c.TaskID, &c.AuthorID, &c.Body, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Comment{}, ErrCommentNotFound
		}
		return Comment{}, err
	}
	return c, nil
}

func (r *PostgresRepo) AddComment(ctx context.Context, c Comment) (Comment, error) {
	const q = `
INSERT INTO task_comments (` + commentColumns + `)
VALUES ($1,$2,$3,$4,$5)
RETURNING ` + commentColumns
	out, err := scanComment(r.db.QueryRowContext(ctx, q, c.ID, c.TaskID, c.AuthorID, c.Body, c.CreatedAt))
	if err != nil {
		if utils.IsForeignKeyViolation(err) {
			return Comment{}, ErrNotFound
		}
		return Comment{}, fmt.Errorf("insert comment: %w", err)
	}
	return out, nil
}

func (r *PostgresRepo) ListComments(ctx context.Context, taskID string) ([]Comment, error) {
	if _, err := r.Get(ctx, taskID); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+commentColumns+` FROM task_comments WHERE task_id = $1 ORDER BY created_at, id`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	out := []Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) GetComment(ctx context.Context, taskID, commentID string) (Comment, error) {
	const q = `SELECT ` + commentColumns + ` FROM task_comments WHERE task_id = $1 AND id = $2`
	return scanComment(r.db.QueryRowContext(ctx, q, taskID, commentID))
}

func (r *PostgresRepo) DeleteComment(ctx context.Context, taskID, commentID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM task_comments WHERE task_id = $1 AND id = $2`, taskID, commentID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return expectOne(res, ErrCommentNotFound)
}

func (r *PostgresRepo) GroupCounts(ctx context.Context) ([]GroupCount, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, priority, COUNT(*) FROM tasks GROUP BY status, priority`)
	if err != nil {
		return nil, fmt.Errorf("group task counts: %w", err)
	}
	defer rows.Close()

	var out []GroupCount
	for rows.Next() {
		var g GroupCount
		if err := rows.Scan(&g.Status, &g.Priority, &g.Count); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) CountOverdue(ctx context.Context, now time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE status <> 'done' AND due_date IS NOT NULL AND due_date < $1`, now).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count overdue tasks: %w", err)
	}
	return n, nil
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
