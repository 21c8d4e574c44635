package appointments

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

// ReminderSource adapta el módulo de citas al engine de recordatorios.
// La fecha relevante es la de la cita; la ventana temprana es de 1 día
// y el flag "due" significa same-day.
type ReminderSource struct {
	svc   *Service
	pets  *pets.Service
	users users.Repository
}

func NewReminderSource(svc *Service, petsSvc *pets.Service, usersRepo users.Repository) *ReminderSource {
	return &ReminderSource{svc: svc, pets: petsSvc, users: usersRepo}
}

func (rs *ReminderSource) Name() string { return "appointments" }

func (rs *ReminderSource) Window() (int, int) { return 1, 1 }

func (rs *ReminderSource) Candidates(ctx context.Context, from, to time.Time) ([]reminder.Candidate, error) {
	appts, err := rs.svc.appts.DateBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	out := make([]reminder.Candidate, 0, len(appts))
	for _, a := range appts {
		out = append(out, reminder.Candidate{
			ID:      a.ID,
			DueDate: a.Date,
			Pending: a.Status == StatusScheduled,
			Flags: reminder.Flags{
				ReminderSent:        a.ReminderSent,
				DueDateReminderSent: a.DueDateReminderSent,
				ReminderCount:       a.ReminderCount,
				LastReminderDate:    a.LastReminderDate,
			},
		})
	}
	return out, nil
}

func (rs *ReminderSource) Compose(ctx context.Context, id string, kind reminder.Kind) (notify.Message, error) {
	a, err := rs.svc.appts.GetByID(ctx, id)
	if err != nil {
		return notify.Message{}, err
	}

	p, err := rs.pets.GetByID(ctx, a.PetID)
	if err != nil {
		return notify.Message{}, fmt.Errorf("resolve pet %s: %w", a.PetID, err)
	}

	owner, err := rs.users.GetByID(ctx, a.UserID)
	if err != nil {
		return notify.Message{}, fmt.Errorf("resolve owner %s: %w", a.UserID, err)
	}
	if owner.Email == "" {
		return notify.Message{}, fmt.Errorf("owner %s has no email", owner.ID)
	}

	label := "same-day reminder"
	if kind == reminder.KindEarly {
		label = "1-day reminder"
	}

	body := fmt.Sprintf(
		"Dear %s,\n\n"+
			"This is a %s that your pet has an appointment scheduled:\n\n"+
			"Pet Name: %s\n"+
			"Veterinarian: %s\n"+
			"Date: %s\n"+
			"Time: %s\n"+
			"Type: %s\n\n"+
			"Please ensure you arrive on time for your consultation.\n\n"+
			"Regards,\n"+
			"Pet Wellness System",
		owner.DisplayName(), label, p.Name, a.VeterinarianName,
		a.Date.Format("2006-01-02"), a.StartTime, a.ConsultationType,
	)

	return notify.Message{
		To:      owner.Email,
		Subject: "Appointment Reminder – " + p.Name,
		Body:    body,
	}, nil
}

func (rs *ReminderSource) CommitFlags(ctx context.Context, id string, prev, next reminder.Flags) error {
	a, err := rs.svc.appts.GetByID(ctx, id)
	if err != nil {
		return err
	}

	current := reminder.Flags{
		ReminderSent:        a.ReminderSent,
		DueDateReminderSent: a.DueDateReminderSent,
		ReminderCount:       a.ReminderCount,
		LastReminderDate:    a.LastReminderDate,
	}
	if !flagsEqual(current, prev) {
		return reminder.ErrStale
	}

	a.ReminderSent = next.ReminderSent
	a.DueDateReminderSent = next.DueDateReminderSent
	a.ReminderCount = next.ReminderCount
	a.LastReminderDate = next.LastReminderDate
	a.UpdatedAt = rs.svc.now()

	if _, err := rs.svc.appts.Update(ctx, a); err != nil {
		if errors.Is(err, ErrConflict) {
			return reminder.ErrStale
		}
		return err
	}
	return nil
}

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
		return day(*a.LastReminderDate).Equal(day(*b.LastReminderDate))
	}
}
