package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"backoffice/internal/models"
	"backoffice/internal/repositories"
)

// NotificationService turns order events into admin notifications and
// serves the notification inbox.
type NotificationService struct {
	repo repositories.NotificationRepository
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(repo repositories.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// HandleOrderEvent processes one order.* message. Events that need no
// notification are acknowledged without side effects.
func (s *NotificationService) HandleOrderEvent(ctx context.Context, routingKey string, body []byte) error {
	var event models.OrderEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("failed to decode %s event: %w", routingKey, err)
	}

	var n *models.Notification
	switch routingKey {
	case models.EventOrderCreated:
		n = &models.Notification{
			Type:    models.NotificationNewOrder,
			Title:   "New order",
			Message: fmt.Sprintf("Order %s was placed for %s", event.OrderNumber, event.Total),
		}
	case models.EventOrderPaymentChange:
		if event.PaymentStatus != models.PaymentStatusPending {
			return nil
		}
		n = &models.Notification{
			Type:    models.NotificationPaymentPending,
			Title:   "Payment pending",
			Message: fmt.Sprintf("Order %s is waiting for payment of %s", event.OrderNumber, event.Total),
		}
	default:
		return nil
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	log.Printf("Created %s notification for order %s", n.Type, event.OrderNumber)
	return nil
}

// List returns the newest notifications.
func (s *NotificationService) List(ctx context.Context, unreadOnly bool, limit int) ([]models.Notification, error) {
	return s.repo.List(ctx, unreadOnly, limit)
}

// CountUnread returns the number of unread notifications.
func (s *NotificationService) CountUnread(ctx context.Context) (int64, error) {
	return s.repo.CountUnread(ctx)
}

// MarkRead flags one notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, id string) error {
	return s.repo.MarkRead(ctx, id)
}

// MarkAllRead flags every notification as read and returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context) (int64, error) {
	return s.repo.MarkAllRead(ctx)
}
