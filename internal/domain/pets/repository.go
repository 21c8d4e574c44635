package pets

import "context"

type Repository interface {
	Create(ctx context.Context, p Pet) error

	// GetByID devuelve ErrNotFound si el id no existe. Es la base de los
	// chequeos de pertenencia de vacunaciones y citas.
	GetByID(ctx context.Context, id string) (Pet, error)

	// ListByOwner devuelve las mascotas de un dueño, más antiguas primero.
	ListByOwner(ctx context.Context, ownerUserID string) ([]Pet, error)
}
