package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/theleywin/talentnest-connections/src/lib/apperr"
	"github.com/theleywin/talentnest-connections/src/models"
	"github.com/theleywin/talentnest-connections/src/store"
)

type NotificationService struct {
	store store.Store
	now   func() time.Time
}

func NewNotificationService(st store.Store) *NotificationService {
	return &NotificationService{store: st, now: time.Now}
}

// List returns user's notifications, newest first, with related users populated
func (s *NotificationService) List(ctx context.Context, user primitive.ObjectID) ([]models.NotificationView, error) {
	notifications, err := s.store.FindNotificationsForRecipient(ctx, user)
	if err != nil {
		return nil, apperr.Internal("Internal server error", err)
	}

	var related []primitive.ObjectID
	seen := make(map[primitive.ObjectID]struct{})
	for _, n := range notifications {
		if n.RelatedUser.IsZero() {
			continue
		}
		if _, ok := seen[n.RelatedUser]; !ok {
			seen[n.RelatedUser] = struct{}{}
			related = append(related, n.RelatedUser)
		}
	}

	profiles := make(map[primitive.ObjectID]models.UserDto, len(related))
	if len(related) > 0 {
		users, err := s.store.FindUsersByIDs(ctx, related)
		if err != nil {
			return nil, apperr.Internal("Internal server error", err)
		}
		for i := range users {
			profiles[users[i].Id] = users[i].PublicProfile()
		}
	}

	views := make([]models.NotificationView, 0, len(notifications))
	for _, n := range notifications {
		view := models.NotificationView{Notification: n}
		if profile, ok := profiles[n.RelatedUser]; ok {
			view.RelatedUserProfile = &profile
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id, user primitive.ObjectID) (*models.Notification, error) {
	n, err := s.store.MarkNotificationRead(ctx, id, user, s.now())
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("Notification not found")
	}
	if err != nil {
		return nil, apperr.Internal("Internal server error", err)
	}
	return n, nil
}

func (s *NotificationService) Delete(ctx context.Context, id, user primitive.ObjectID) error {
	err := s.store.DeleteNotification(ctx, id, user)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("Notification not found")
	}
	if err != nil {
		return apperr.Internal("Internal server error", err)
	}
	return nil
}
