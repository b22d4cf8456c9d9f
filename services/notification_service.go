package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/strawberrymilktea0604/HealthSync-sub001/logger"
	"github.com/strawberrymilktea0604/HealthSync-sub001/models"
)

const (
	NotifyGoalCompleted = "goal_completed"
	NotifyRoleChanged   = "role_changed"
	NotifyInfo          = "info"
)

// Notifier is what other services use to tell a user something happened.
type Notifier interface {
	Emit(ctx context.Context, userID uint, typ, message string)
}

// NotificationService persists a notification, then broadcasts it over the
// user's websockets and pushes it to their devices. Hub and push are optional.
type NotificationService struct {
	db   *gorm.DB
	hub  *RealtimeHub
	push *PushService
}

func NewNotificationService(db *gorm.DB, hub *RealtimeHub, push *PushService) *NotificationService {
	return &NotificationService{db: db, hub: hub, push: push}
}

func (s *NotificationService) Emit(ctx context.Context, userID uint, typ, message string) {
	n := &models.Notification{UserID: userID, Type: typ, Message: message, CreatedAt: time.Now()}
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		logger.Error("notification: persist", zap.Uint("user_id", userID), zap.String("type", typ), zap.Error(err))
		return
	}

	if s.hub != nil {
		s.hub.Broadcast(userID, map[string]any{
			"kind":         "notification.created",
			"notification": n,
		})
	}
	if s.push != nil {
		s.push.PushToUser(ctx, userID, "HealthSync", message, map[string]string{
			"type": typ, "notificationId": fmt.Sprintf("%d", n.ID),
		})
	}
}

func (s *NotificationService) List(ctx context.Context, userID uint, unreadOnly bool) ([]models.Notification, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	out := []models.Notification{}
	err := q.Order("created_at DESC").Limit(100).Find(&out).Error
	return out, err
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id uint) error {
	res := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("notification")
	}
	return nil
}
