package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"pet-wellness/internal/domain/vaccinations"
)

type vaccinationRepo struct {
	mu   sync.RWMutex
	byID map[string]vaccinations.Record
}

func NewVaccinationRepo() vaccinations.Repository {
	return &vaccinationRepo{
		byID: make(map[string]vaccinations.Record),
	}
}

func (r *vaccinationRepo) Create(ctx context.Context, rec vaccinations.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(rec.ID) == "" {
		return errors.New("vaccination id required")
	}
	if _, exists := r.byID[rec.ID]; exists {
		return errors.New("vaccination already exists")
	}
	r.byID[rec.ID] = rec
	return nil
}

func (r *vaccinationRepo) GetByID(ctx context.Context, id string) (vaccinations.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[id]
	if !ok {
		return vaccinations.Record{}, vaccinations.ErrNotFound
	}
	return rec, nil
}

func (r *vaccinationRepo) Update(ctx context.Context, rec vaccinations.Record) (vaccinations.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.byID[rec.ID]
	if !ok {
		return vaccinations.Record{}, vaccinations.ErrNotFound
	}
	if current.Version != rec.Version {
		return vaccinations.Record{}, vaccinations.ErrConflict
	}

	rec.Version++
	r.byID[rec.ID] = rec
	return rec, nil
}

func (r *vaccinationRepo) ListByPet(ctx context.Context, petID string) ([]vaccinations.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]vaccinations.Record, 0)
	for _, rec := range r.byID {
		if rec.PetID == petID {
			out = append(out, rec)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].NextDueDate.Before(out[j].NextDueDate)
	})

	return out, nil
}

func (r *vaccinationRepo) LatestDose(ctx context.Context, petID, vaccineName string) (vaccinations.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		best  vaccinations.Record
		found bool
	)
	for _, rec := range r.byID {
		if rec.PetID != petID || !strings.EqualFold(rec.VaccineName, vaccineName) {
			continue
		}
		if !found || rec.DoseNumber > best.DoseNumber {
			best = rec
			found = true
		}
	}
	if !found {
		return vaccinations.Record{}, vaccinations.ErrNotFound
	}
	return best, nil
}

func (r *vaccinationRepo) DueBetween(ctx context.Context, from, to time.Time) ([]vaccinations.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	from, to = day(from), day(to)

	out := make([]vaccinations.Record, 0)
	for _, rec := range r.byID {
		due := day(rec.NextDueDate)
		if due.Before(from) || due.After(to) {
			continue
		}
		out = append(out, rec)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].NextDueDate.Before(out[j].NextDueDate)
	})

	return out, nil
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
