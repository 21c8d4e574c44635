package vaccinations

import (
	"context"
	"time"
)

type Repository interface {
	// Create persiste un registro nuevo (Version ya viene en 1).
	Create(ctx context.Context, r Record) error

	GetByID(ctx context.Context, id string) (Record, error)

	// Update aplica concurrencia optimista: solo escribe si la versión en
	// storage coincide con r.Version, y devuelve el registro con la
	// versión incrementada. Si no coincide devuelve ErrConflict.
	Update(ctx context.Context, r Record) (Record, error)

	// ListByPet devuelve los registros de una mascota, próximos
	// vencimientos primero.
	ListByPet(ctx context.Context, petID string) ([]Record, error)

	// LatestDose devuelve la dosis de mayor número para (pet, vacuna),
	// o ErrNotFound si no existe ninguna.
	LatestDose(ctx context.Context, petID, vaccineName string) (Record, error)

	// DueBetween devuelve registros con NextDueDate en [from, to],
	// ambos inclusive, a granularidad de día.
	DueBetween(ctx context.Context, from, to time.Time) ([]Record, error)
}

// AuditRepository es append-only: no existe update ni delete.
type AuditRepository interface {
	Append(ctx context.Context, e AuditEntry) error

	// ListByVaccination devuelve el historial, revisión más nueva primero.
	ListByVaccination(ctx context.Context, vaccinationID string) ([]AuditEntry, error)
}
