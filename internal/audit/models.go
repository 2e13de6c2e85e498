package audit

import "time"

// Event is an immutable, append-only audit record of an auth or admin action.
//
// Actor and IP capture are best-effort; callers never block a request on an audit failure.
// In Postgres the audit_events table only ever receives INSERTs.
type Event struct {
	ID   string    `json:"id" db:"id"`
	Type EventType `json:"type" db:"type"`

	// ActorUserID is empty for failed logins, where no account was authenticated.
	ActorUserID string `json:"actorUserId,omitempty" db:"actor_user_id"`
	ActorRole   string `json:"actorRole,omitempty" db:"actor_role"`

	// TargetUserID is set for admin actions on another account.
	TargetUserID string `json:"targetUserId,omitempty" db:"target_user_id"`

	IPAddress string `json:"ipAddress,omitempty" db:"ip_address"`
	Message   string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type EventType string

const (
	EventLoginSucceeded EventType = "login_succeeded"
	EventLoginFailed    EventType = "login_failed"
	EventSignup         EventType = "signup"
	EventTokenRefreshed EventType = "token_refreshed"
	EventRefreshFailed  EventType = "refresh_failed"
	EventLogout         EventType = "logout"
	EventRoleChanged    EventType = "role_changed"
	EventUserDeleted    EventType = "user_deleted"
)
