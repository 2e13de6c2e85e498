package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events. It is append-only.
type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service records audit events. Records are internal and never returned to regular users.
type Service struct {
	repo  Repository
	log   *slog.Logger
	clock func() time.Time
}

func NewService(repo Repository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, log: log, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// LogAuth records a login, signup, refresh or logout outcome. Failures are logged, not returned.
func (s *Service) LogAuth(ctx context.Context, t EventType, userID, role, ip, message string) {
	s.record(ctx, Event{
		Type:        t,
		ActorUserID: userID,
		ActorRole:   role,
		IPAddress:   ip,
		Message:     message,
	})
}

// LogAdminAction records an action taken by actorID on targetID.
func (s *Service) LogAdminAction(ctx context.Context, t EventType, actorID, actorRole, targetID, ip, message, metadata string) {
	s.record(ctx, Event{
		Type:         t,
		ActorUserID:  actorID,
		ActorRole:    actorRole,
		TargetUserID: targetID,
		IPAddress:    ip,
		Message:      message,
		Metadata:     metadata,
	})
}

func (s *Service) record(ctx context.Context, e Event) {
	if err := s.Append(ctx, e); err != nil {
		s.log.WarnContext(ctx, "audit append failed", "type", string(e.Type), "err", err)
	}
}
