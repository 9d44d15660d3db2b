package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/noah-isme/school-admin-api/internal/models"
)

type auditRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// auditTrail records audit entries. Failures are logged and never surface to the caller.
type auditTrail struct {
	repo   auditRepository
	logger *zap.Logger
}

func (a auditTrail) record(ctx context.Context, actor models.Actor, action, resource, resourceID string, metadata map[string]interface{}) {
	if a.repo == nil {
		return
	}
	entry := &models.AuditLog{
		Action:    action,
		Resource:  resource,
		IPAddress: actor.IP,
		UserAgent: actor.UserAgent,
	}
	if actor.ID != "" {
		id, kind := actor.ID, string(actor.Kind)
		entry.ActorID = &id
		entry.ActorKind = &kind
	}
	if resourceID != "" {
		entry.ResourceID = &resourceID
	}
	if len(metadata) > 0 {
		if raw, err := json.Marshal(metadata); err == nil {
			entry.Metadata = raw
		}
	}
	if err := a.repo.Create(context.WithoutCancel(ctx), entry); err != nil {
		a.logger.Warn("failed to record audit log", zap.String("action", action), zap.String("resource", resource), zap.Error(err))
	}
}
