package services

import (
	"context"

	"backoffice/internal/models"
	"backoffice/internal/repositories"
)

// AuditService exposes the audit trail to admins.
type AuditService struct {
	repo repositories.AuditRepository
}

// NewAuditService creates a new AuditService.
func NewAuditService(repo repositories.AuditRepository) *AuditService {
	return &AuditService{repo: repo}
}

// List returns the newest audit events, optionally for one entity type.
func (s *AuditService) List(ctx context.Context, entity string, limit int) ([]models.AuditEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.List(ctx, entity, limit)
}
