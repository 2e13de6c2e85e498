package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var taskCols = []string{"id", "title", "description", "status", "priority", "assignee_id", "created_by", "due_date", "created_at", "updated_at"}

func TestTaskWhere(t *testing.T) {
	where, args := taskWhere(ListFilter{Status: StatusTodo, AssigneeID: "u1", Query: "50%"})
	assert.Equal(t, ` WHERE status = $1 AND assignee_id = $2 AND (title ILIKE '%' || $3 || '%' ESCAPE '\' OR description ILIKE '%' || $3 || '%' ESCAPE '\')`, where)
	assert.Equal(t, []any{"todo", "u1", `50\%`}, args)

	where, args = taskWhere(ListFilter{})
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestPostgresRepo_ListWithFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepo(db)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM tasks WHERE status = \$1 AND priority = \$2`).
		WithArgs("todo", "high").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`FROM tasks WHERE status = \$1 AND priority = \$2 ORDER BY created_at DESC, id DESC LIMIT \$3 OFFSET \$4`).
		WithArgs("todo", "high", 20, 0).
		WillReturnRows(sqlmock.NewRows(taskCols).AddRow("t1", "Fix", "", "todo", "high", nil, "u1", nil, now, now))

	list, total, err := repo.List(context.Background(), ListFilter{Status: StatusTodo, Priority: PriorityHigh})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].AssigneeID)
	assert.Nil(t, list[0].DueDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_GetScansOptionalFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .* FROM tasks WHERE id = \$1`).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows(taskCols).AddRow("t1", "Fix", "d", "done", "low", "u2", "u1", now, now, now))

	task, err := NewPostgresRepo(db).Get(context.Background(), "t1")
	require.NoError(t, err)
	require.NotNil(t, task.AssigneeID)
	assert.Equal(t, "u2", *task.AssigneeID)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, StatusDone, task.Status)
}

func TestPostgresRepo_AddCommentMissingTask(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO task_comments`).
		WillReturnError(&pgconn.PgError{Code: "23503"})

	_, err = NewPostgresRepo(db).AddComment(context.Background(), Comment{ID: "c1", TaskID: "missing", AuthorID: "u1", Body: "x", CreatedAt: time.Now()})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresRepo_DeleteCommentNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM task_comments WHERE task_id = \$1 AND id = \$2`).
		WithArgs("t1", "c1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, NewPostgresRepo(db).DeleteComment(context.Background(), "t1", "c1"), ErrCommentNotFound)
}
