package audit

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestPostgresRepo_Append(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectExec(`INSERT INTO audit_events`).
		WithArgs("e1", "login_succeeded", "u1", "member", "", "10.0.0.1", "ok", "", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = NewPostgresRepo(db).Append(context.Background(), Event{
		ID: "e1", Type: EventLoginSucceeded, ActorUserID: "u1", ActorRole: "member",
		IPAddress: "10.0.0.1", Message: "ok", CreatedAt: now,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
