package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/school-admin-api/internal/models"
	"github.com/noah-isme/school-admin-api/pkg/jobs"
)

// AuditWriter persists audit entries on a background worker queue. It satisfies the audit
// repository contract expected by services.
type AuditWriter struct {
	queue *jobs.Queue[*models.AuditLog]
}

// NewAuditWriter wraps repo with a worker queue configured by cfg.
func NewAuditWriter(repo auditRepository, cfg jobs.QueueConfig) *AuditWriter {
	handler := func(ctx context.Context, job jobs.Job[*models.AuditLog]) error {
		return repo.Create(ctx, job.Payload)
	}
	return &AuditWriter{queue: jobs.NewQueue("audit", handler, cfg)}
}

// Start launches the workers.
func (w *AuditWriter) Start(ctx context.Context) {
	w.queue.Start(ctx)
}

// Stop flushes pending entries and stops the workers.
func (w *AuditWriter) Stop() {
	w.queue.Stop()
}

// Create stamps entry and enqueues it. It fails when the queue is full or not running.
func (w *AuditWriter) Create(_ context.Context, entry *models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return w.queue.Enqueue(jobs.Job[*models.AuditLog]{ID: entry.ID, Payload: entry})
}
