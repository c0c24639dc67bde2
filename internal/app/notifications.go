package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"hotel_gestion/internal/domain"
)

type NotificationService struct {
	repo domain.NotificationRepository
	hub  domain.Broadcaster
}

func NewNotificationService(repo domain.NotificationRepository, hub domain.Broadcaster) *NotificationService {
	return &NotificationService{repo: repo, hub: hub}
}

// Notify persists a notification and pushes it to connected staff sessions.
// Failures are logged, never propagated: a lost notification must not fail
// the domain action that produced it.
func (s *NotificationService) Notify(ctx context.Context, typ domain.NotificationType, title, message string) {
	n := domain.Notification{Type: typ, Title: title, Message: message, CreatedAt: time.Now()}
	if err := s.repo.CreateNotification(ctx, &n); err != nil {
		log.Error().Err(err).Str("type", string(typ)).Msg("persist notification failed")
		return
	}
	if s.hub != nil {
		s.hub.Broadcast(n)
	}
}

func (s *NotificationService) List(ctx context.Context, onlyUnread bool, limit int) ([]domain.Notification, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListNotifications(ctx, onlyUnread, limit)
}

func (s *NotificationService) MarkRead(ctx context.Context, id int64) error {
	return s.repo.MarkNotificationRead(ctx, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context) (int64, error) {
	return s.repo.MarkAllNotificationsRead(ctx)
}
