package appointments

import (
	"context"
	"errors"
	"strings"
	"time"

	"pet-wellness/internal/platform/logger"

	"github.com/google/uuid"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("appointment not found")
	ErrSlotNotFound = errors.New("appointment slot not found")
	ErrPetNotFound  = errors.New("pet not found")
	ErrUnauthorized = errors.New("caller may not act on this appointment")
	ErrConflict     = errors.New("operation conflicts with current state")
)

// OwnerResolver resuelve el dueño de una mascota (pets.Service).
type OwnerResolver interface {
	OwnerOf(ctx context.Context, petID string) (string, error)
}

type Service struct {
	slots  SlotRepository
	appts  AppointmentRepository
	owners OwnerResolver
	log    logger.Logger
	now    func() time.Time
}

func NewService(slots SlotRepository, appts AppointmentRepository, owners OwnerResolver, log logger.Logger) *Service {
	return &Service{
		slots:  slots,
		appts:  appts,
		owners: owners,
		log:    log.With(map[string]any{"component": "appointments"}),
		now:    time.Now,
	}
}

type CreateSlotInput struct {
	Date             time.Time
	StartTime        string
	DurationMinutes  int
	ConsultationType ConsultationType
	VeterinarianName string
}

func (s *Service) CreateSlot(ctx context.Context, in CreateSlotInput) (Slot, error) {
	if in.Date.IsZero() || !validTime(in.StartTime) || in.DurationMinutes <= 0 {
		return Slot{}, ErrInvalidInput
	}
	if in.ConsultationType != ConsultationOnline && in.ConsultationType != ConsultationInClinic {
		return Slot{}, ErrInvalidInput
	}

	now := s.now()
	sl := Slot{
		ID:               uuid.NewString(),
		Date:             day(in.Date),
		StartTime:        in.StartTime,
		DurationMinutes:  in.DurationMinutes,
		ConsultationType: in.ConsultationType,
		VeterinarianName: strings.TrimSpace(in.VeterinarianName),
		Status:           SlotAvailable,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.slots.Create(ctx, sl); err != nil {
		return Slot{}, err
	}
	return sl, nil
}

type UpdateSlotInput struct {
	Date             *time.Time
	StartTime        *string
	DurationMinutes  *int
	ConsultationType *ConsultationType
	VeterinarianName *string
}

func (s *Service) UpdateSlot(ctx context.Context, id string, in UpdateSlotInput) (Slot, error) {
	sl, err := s.slots.GetByID(ctx, id)
	if err != nil {
		return Slot{}, err
	}

	if in.Date != nil {
		sl.Date = day(*in.Date)
	}
	if in.StartTime != nil {
		if !validTime(*in.StartTime) {
			return Slot{}, ErrInvalidInput
		}
		sl.StartTime = *in.StartTime
	}
	if in.DurationMinutes != nil {
		if *in.DurationMinutes <= 0 {
			return Slot{}, ErrInvalidInput
		}
		sl.DurationMinutes = *in.DurationMinutes
	}
	if in.ConsultationType != nil {
		sl.ConsultationType = *in.ConsultationType
	}
	if in.VeterinarianName != nil {
		sl.VeterinarianName = strings.TrimSpace(*in.VeterinarianName)
	}
	sl.UpdatedAt = s.now()

	if err := s.slots.Update(ctx, sl); err != nil {
		return Slot{}, err
	}
	return sl, nil
}

// DeleteSlot rechaza con ErrConflict mientras el slot esté reservado:
// primero hay que cancelar la cita.
func (s *Service) DeleteSlot(ctx context.Context, id string) error {
	sl, err := s.slots.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if sl.Status == SlotBooked {
		return ErrConflict
	}
	return s.slots.Delete(ctx, id)
}

func (s *Service) GetSlot(ctx context.Context, id string) (Slot, error) {
	return s.slots.GetByID(ctx, id)
}

func (s *Service) ListSlots(ctx context.Context) ([]Slot, error) {
	return s.slots.List(ctx)
}

func (s *Service) ListAvailableSlots(ctx context.Context) ([]Slot, error) {
	return s.slots.ListByStatus(ctx, SlotAvailable)
}

type BookInput struct {
	SlotID string
	PetID  string
	Notes  string
}

// Book reserva un slot. Las dos escrituras (slot y cita) se ordenan
// single-writer: primero el CAS AVAILABLE→BOOKED sobre el slot; si la
// creación de la cita falla, se compensa el slot de vuelta a AVAILABLE.
// Dos reservas concurrentes sobre el mismo slot terminan con exactamente
// un éxito y el resto en ErrConflict.
func (s *Service) Book(ctx context.Context, userID string, in BookInput) (Appointment, error) {
	if strings.TrimSpace(in.SlotID) == "" || strings.TrimSpace(in.PetID) == "" {
		return Appointment{}, ErrInvalidInput
	}

	sl, err := s.slots.GetByID(ctx, in.SlotID)
	if err != nil {
		return Appointment{}, ErrSlotNotFound
	}
	if sl.Status != SlotAvailable {
		return Appointment{}, ErrConflict
	}

	owner, err := s.owners.OwnerOf(ctx, in.PetID)
	if err != nil {
		return Appointment{}, ErrPetNotFound
	}
	if owner != userID {
		return Appointment{}, ErrUnauthorized
	}

	if err := s.slots.UpdateStatus(ctx, in.SlotID, SlotAvailable, SlotBooked); err != nil {
		return Appointment{}, err
	}

	now := s.now()
	a := Appointment{
		ID:     uuid.NewString(),
		UserID: userID,
		PetID:  in.PetID,
		SlotID: sl.ID,

		Date:             sl.Date,
		StartTime:        sl.StartTime,
		ConsultationType: sl.ConsultationType,
		VeterinarianName: sl.VeterinarianName,

		Status: StatusScheduled,
		Notes:  strings.TrimSpace(in.Notes),

		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.appts.Create(ctx, a); err != nil {
		// Compensación: liberar el slot que acabamos de tomar.
		if cerr := s.slots.UpdateStatus(ctx, in.SlotID, SlotBooked, SlotAvailable); cerr != nil {
			s.log.Error("slot compensation failed after booking error", map[string]any{
				"slot_id": in.SlotID,
				"err":     cerr.Error(),
			})
		}
		return Appointment{}, err
	}

	return a, nil
}

// Cancel transiciona la cita a CANCELLED y libera su slot. Solo el
// dueño de la cita o un admin pueden cancelarla, y solo mientras esté
// SCHEDULED.
func (s *Service) Cancel(ctx context.Context, id, callerID string, isAdmin bool) error {
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !isAdmin && a.UserID != callerID {
		return ErrUnauthorized
	}
	if a.Status != StatusScheduled {
		return ErrConflict
	}

	if err := s.appts.UpdateStatus(ctx, id, StatusScheduled, StatusCancelled); err != nil {
		return err
	}

	// El slot vuelve a ser reservable. Si ya no estaba BOOKED (estado
	// sucio), lo dejamos: la precondición evita pisarlo.
	if err := s.slots.UpdateStatus(ctx, a.SlotID, SlotBooked, SlotAvailable); err != nil && !errors.Is(err, ErrConflict) {
		// Compensación: la cita vuelve a SCHEDULED para no dejarla
		// cancelada con el slot todavía tomado. Espejo de Book.
		if cerr := s.appts.UpdateStatus(ctx, id, StatusCancelled, StatusScheduled); cerr != nil {
			s.log.Error("appointment compensation failed after slot release error", map[string]any{
				"appointment_id": id,
				"slot_id":        a.SlotID,
				"err":            cerr.Error(),
			})
		}
		return err
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, id, callerID string, isAdmin bool) (Appointment, error) {
	a, err := s.appts.GetByID(ctx, id)
	if err != nil {
		return Appointment{}, err
	}
	if !isAdmin && a.UserID != callerID {
		return Appointment{}, ErrUnauthorized
	}
	return a, nil
}

func (s *Service) MyAppointments(ctx context.Context, userID string) ([]Appointment, error) {
	return s.appts.ListByUser(ctx, userID)
}

func (s *Service) ListAll(ctx context.Context) ([]Appointment, error) {
	return s.appts.ListAll(ctx)
}

func validTime(v string) bool {
	_, err := time.Parse("15:04", v)
	return err == nil
}
