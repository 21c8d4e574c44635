package appointments

import (
	"context"
	"time"
)

type SlotRepository interface {
	Create(ctx context.Context, s Slot) error
	GetByID(ctx context.Context, id string) (Slot, error)

	// Update sobreescribe campos del slot (uso admin).
	Update(ctx context.Context, s Slot) error

	// UpdateStatus transiciona from→to con precondición: si el slot no
	// está en from devuelve ErrConflict. Es el CAS que garantiza que dos
	// reservas concurrentes sobre el mismo slot dejan exactamente un
	// ganador.
	UpdateStatus(ctx context.Context, id string, from, to SlotStatus) error

	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Slot, error)
	ListByStatus(ctx context.Context, status SlotStatus) ([]Slot, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, a Appointment) error
	GetByID(ctx context.Context, id string) (Appointment, error)

	// Update aplica concurrencia optimista sobre Version, igual que el
	// repo de vacunaciones.
	Update(ctx context.Context, a Appointment) (Appointment, error)

	// UpdateStatus transiciona from→to con precondición de estado.
	UpdateStatus(ctx context.Context, id string, from, to AppointmentStatus) error

	ListByUser(ctx context.Context, userID string) ([]Appointment, error)
	ListAll(ctx context.Context) ([]Appointment, error)

	// DateBetween devuelve citas con fecha en [from, to], inclusive.
	DateBetween(ctx context.Context, from, to time.Time) ([]Appointment, error)
}
