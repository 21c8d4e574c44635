package memory

import (
	"context"
	"sort"
	"sync"

	"pet-wellness/internal/domain/vaccinations"
)

type auditRepo struct {
	mu      sync.RWMutex
	entries []vaccinations.AuditEntry
}

func NewAuditRepo() vaccinations.AuditRepository {
	return &auditRepo{}
}

func (r *auditRepo) Append(ctx context.Context, e vaccinations.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, e)
	return nil
}

func (r *auditRepo) ListByVaccination(ctx context.Context, vaccinationID string) ([]vaccinations.AuditEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]vaccinations.AuditEntry, 0)
	for _, e := range r.entries {
		if e.VaccinationID == vaccinationID {
			out = append(out, e)
		}
	}

	// Revisión más nueva primero
	sort.Slice(out, func(i, j int) bool {
		return out[i].Revision > out[j].Revision
	})

	return out, nil
}
