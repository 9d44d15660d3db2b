package service

import (
	"context"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-admin-api/internal/models"
)

type mockAuditRepo struct {
	mu   sync.Mutex
	logs []*models.AuditLog
	err  error
}

func (m *mockAuditRepo) Create(ctx context.Context, log *models.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.logs = append(m.logs, log)
	return nil
}

func (m *mockAuditRepo) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.logs))
	for _, l := range m.logs {
		out = append(out, l.Action)
	}
	return out
}

// fastHasher keeps bcrypt cheap in tests.
func fastHasher() *PasswordHasher {
	return NewPasswordHasher(bcrypt.MinCost)
}

func mustHash(h *PasswordHasher, plain string) string {
	digest, err := h.Hash(plain)
	if err != nil {
		panic(err)
	}
	return digest
}

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
