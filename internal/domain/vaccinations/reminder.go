package vaccinations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pet-wellness/internal/domain/pets"
	"pet-wellness/internal/domain/users"
	"pet-wellness/internal/ports/notify"
	"pet-wellness/internal/reminder"
)

// ReminderSource adapta el módulo de vacunaciones al engine genérico de
// recordatorios. La fecha relevante es NextDueDate; la ventana temprana
// es de 2 días.
type ReminderSource struct {
	svc   *Service
	pets  *pets.Service
	users users.Repository
}

func NewReminderSource(svc *Service, petsSvc *pets.Service, usersRepo users.Repository) *ReminderSource {
	return &ReminderSource{svc: svc, pets: petsSvc, users: usersRepo}
}

func (rs *ReminderSource) Name() string { return "vaccinations" }

func (rs *ReminderSource) Window() (int, int) { return 2, 2 }

func (rs *ReminderSource) Candidates(ctx context.Context, from, to time.Time) ([]reminder.Candidate, error) {
	records, err := rs.svc.repo.DueBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	out := make([]reminder.Candidate, 0, len(records))
	for _, v := range records {
		out = append(out, reminder.Candidate{
			ID:      v.ID,
			DueDate: v.NextDueDate,
			Pending: CalculateStatus(v, from) != StatusCompleted,
			Flags:   flagsOf(v),
		})
	}
	return out, nil
}

func (rs *ReminderSource) Compose(ctx context.Context, id string, kind reminder.Kind) (notify.Message, error) {
	v, err := rs.svc.repo.GetByID(ctx, id)
	if err != nil {
		return notify.Message{}, err
	}

	p, err := rs.pets.GetByID(ctx, v.PetID)
	if err != nil {
		return notify.Message{}, fmt.Errorf("resolve pet %s: %w", v.PetID, err)
	}

	owner, err := rs.users.GetByID(ctx, p.OwnerUserID)
	if err != nil {
		return notify.Message{}, fmt.Errorf("resolve owner %s: %w", p.OwnerUserID, err)
	}
	if owner.Email == "" {
		return notify.Message{}, fmt.Errorf("owner %s has no email", owner.ID)
	}

	label := "due-date reminder"
	if kind == reminder.KindEarly {
		label = "2-day reminder"
	}

	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"This is a %s that your pet is due for a vaccination:\n\n"+
			"Pet Name: %s\n"+
			"Vaccine: %s\n"+
			"Due Date: %s\n\n"+
			"Please ensure your pet receives their vaccination on time to stay healthy.\n\n"+
			"Regards,\n"+
			"Pet Wellness System",
		owner.DisplayName(), label, p.Name, v.VaccineName, v.NextDueDate.Format("2006-01-02"),
	)

	return notify.Message{
		To:      owner.Email,
		Subject: "Vaccination Reminder – " + p.Name,
		Body:    body,
	}, nil
}

// CommitFlags persiste los flags de recordatorio con semántica
// compare-and-set, y pasa por updateAndAudit: también los guardados del
// batch producen su entrada de auditoría.
func (rs *ReminderSource) CommitFlags(ctx context.Context, id string, prev, next reminder.Flags) error {
	v, err := rs.svc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !flagsEqual(flagsOf(v), prev) {
		return reminder.ErrStale
	}

	v.ReminderSent = next.ReminderSent
	v.DueDateReminderSent = next.DueDateReminderSent
	v.ReminderCount = next.ReminderCount
	v.LastReminderDate = next.LastReminderDate

	if _, err := rs.svc.updateAndAudit(ctx, v); err != nil {
		if errors.Is(err, ErrConflict) {
			// Perdimos la carrera de versión contra otro escritor.
			return reminder.ErrStale
		}
		return err
	}
	return nil
}

func flagsOf(v Record) reminder.Flags {
	return reminder.Flags{
		ReminderSent:        v.ReminderSent,
		DueDateReminderSent: v.DueDateReminderSent,
		ReminderCount:       v.ReminderCount,
		LastReminderDate:    v.LastReminderDate,
	}
}

// flagsEqual compara por valor; LastReminderDate se compara a
// granularidad de día, no por identidad de puntero.
func flagsEqual(a, b reminder.Flags) bool {
	if a.ReminderSent != b.ReminderSent ||
		a.DueDateReminderSent != b.DueDateReminderSent ||
		a.ReminderCount != b.ReminderCount {
		return false
	}
	switch {
	case a.LastReminderDate == nil && b.LastReminderDate == nil:
		return true
	case a.LastReminderDate == nil || b.LastReminderDate == nil:
		return false
	default:
		return sameDay(*a.LastReminderDate, *b.LastReminderDate)
	}
}
