package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"backoffice/internal/models"
	"backoffice/internal/repositories"
)

// EventPublisher delivers domain events to the message broker.
type EventPublisher interface {
	PublishEvent(routingKey string, body []byte) error
}

// publishOrderEvent is best effort: the order is already committed, so a
// broker failure is logged and not returned.
func publishOrderEvent(publisher EventPublisher, eventType string, order *models.Order, previous models.OrderStatus) {
	if publisher == nil {
		log.Printf("Event publisher is not initialized. Skipping %s for order %s", eventType, order.ID)
		return
	}
	event := models.OrderEvent{
		Type:           eventType,
		OrderID:        order.ID,
		OrderNumber:    order.OrderNumber,
		CustomerID:     order.CustomerID,
		Status:         order.Status,
		PreviousStatus: previous,
		PaymentStatus:  order.PaymentStatus,
		Total:          order.Total.StringFixed(2),
		OccurredAt:     time.Now().UTC(),
	}
	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal %s event for order %s: %v", eventType, order.ID, err)
		return
	}
	if err := publisher.PublishEvent(eventType, body); err != nil {
		log.Printf("Warning: Failed to publish %s event for order %s: %v", eventType, order.ID, err)
		return
	}
	log.Printf("Successfully published %s event for order %s", eventType, order.ID)
}

// recordAudit appends an audit event; failures are logged.
func recordAudit(ctx context.Context, repo repositories.AuditRepository, actor string, action models.AuditAction, entity, entityID, description string) {
	if repo == nil {
		return
	}
	event := &models.AuditEvent{
		Actor:       actor,
		Action:      action,
		Entity:      entity,
		EntityID:    entityID,
		Description: description,
	}
	if err := repo.Append(ctx, event); err != nil {
		log.Printf("Warning: Failed to record audit event for %s %s: %v", entity, entityID, err)
	}
}
