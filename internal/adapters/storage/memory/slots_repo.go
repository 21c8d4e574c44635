package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pet-wellness/internal/domain/appointments"
)

type slotRepo struct {
	mu   sync.RWMutex
	byID map[string]appointments.Slot
}

func NewSlotRepo() appointments.SlotRepository {
	return &slotRepo{
		byID: make(map[string]appointments.Slot),
	}
}

func (r *slotRepo) Create(ctx context.Context, s appointments.Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(s.ID) == "" {
		return errors.New("slot id required")
	}
	if _, exists := r.byID[s.ID]; exists {
		return errors.New("slot already exists")
	}
	r.byID[s.ID] = s
	return nil
}

func (r *slotRepo) GetByID(ctx context.Context, id string) (appointments.Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok {
		return appointments.Slot{}, appointments.ErrSlotNotFound
	}
	return s, nil
}

func (r *slotRepo) Update(ctx context.Context, s appointments.Slot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[s.ID]; !exists {
		return appointments.ErrSlotNotFound
	}
	r.byID[s.ID] = s
	return nil
}

func (r *slotRepo) UpdateStatus(ctx context.Context, id string, from, to appointments.SlotStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[id]
	if !ok {
		return appointments.ErrSlotNotFound
	}
	if s.Status != from {
		return appointments.ErrConflict
	}
	s.Status = to
	r.byID[id] = s
	return nil
}

func (r *slotRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[id]; !exists {
		return appointments.ErrSlotNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *slotRepo) List(ctx context.Context) ([]appointments.Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]appointments.Slot, 0, len(r.byID))
	for _, s := range r.byID {
		out = append(out, s)
	}
	sortSlots(out)
	return out, nil
}

func (r *slotRepo) ListByStatus(ctx context.Context, status appointments.SlotStatus) ([]appointments.Slot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]appointments.Slot, 0)
	for _, s := range r.byID {
		if s.Status == status {
			out = append(out, s)
		}
	}
	sortSlots(out)
	return out, nil
}

// Orden por fecha y luego hora de inicio, para que el listado sea estable.
func sortSlots(items []appointments.Slot) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.Before(items[j].Date)
		}
		return items[i].StartTime < items[j].StartTime
	})
}
