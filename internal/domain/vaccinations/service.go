package vaccinations

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
	ErrNotFound     = errors.New("vaccination record not found")
	ErrPetNotFound  = errors.New("pet not found")
	ErrUnauthorized = errors.New("pet does not belong to caller")
	ErrConflict     = errors.New("operation conflicts with current state")
)

// OwnerResolver resuelve el dueño de una mascota (lo implementa
// pets.Service). Evita ciclos de imports entre módulos.
type OwnerResolver interface {
	OwnerOf(ctx context.Context, petID string) (string, error)
}

type Service struct {
	repo   Repository
	audit  AuditRepository
	owners OwnerResolver
	log    logger.Logger
	now    func() time.Time
}

func NewService(repo Repository, audit AuditRepository, owners OwnerResolver, log logger.Logger) *Service {
	return &Service{
		repo:   repo,
		audit:  audit,
		owners: owners,
		log:    log.With(map[string]any{"component": "vaccinations"}),
		now:    time.Now,
	}
}

type AddDoseInput struct {
	PetID          string
	VaccineName    string
	DoctorName     string
	GivenDate      time.Time
	NextDueDate    time.Time
	AttachmentPath string
}

// AddDose crea la dosis 1 de una cadena (pet, vacuna). Rechaza con
// ErrConflict si existe una dosis previa sin completar: no puede abrirse
// una dosis nueva mientras hay una pendiente.
func (s *Service) AddDose(ctx context.Context, ownerID string, in AddDoseInput) (Record, error) {
	if strings.TrimSpace(in.PetID) == "" || strings.TrimSpace(in.VaccineName) == "" {
		return Record{}, ErrInvalidInput
	}
	if in.GivenDate.IsZero() || in.NextDueDate.IsZero() {
		return Record{}, ErrInvalidInput
	}
	if !day(in.NextDueDate).After(day(in.GivenDate)) {
		return Record{}, ErrInvalidInput
	}

	if err := s.authorize(ctx, in.PetID, ownerID); err != nil {
		return Record{}, err
	}

	prev, err := s.repo.LatestDose(ctx, in.PetID, strings.TrimSpace(in.VaccineName))
	switch {
	case err == nil:
		if CalculateStatus(prev, s.now()) != StatusCompleted {
			return Record{}, ErrConflict
		}
	case errors.Is(err, ErrNotFound):
		// primera dosis de esta vacuna
	default:
		return Record{}, err
	}

	v := Record{
		ID:          uuid.NewString(),
		PetID:       in.PetID,
		VaccineName: strings.TrimSpace(in.VaccineName),
		DoctorName:  strings.TrimSpace(in.DoctorName),
		DoseNumber:  1,
		GivenDate:   day(in.GivenDate),
		NextDueDate: day(in.NextDueDate),

		AttachmentPath: in.AttachmentPath,

		Version:   1,
		CreatedAt: s.now(),
	}

	if err := s.repo.Create(ctx, v); err != nil {
		return Record{}, err
	}
	s.capture(ctx, v)

	return v, nil
}

// ChainNextDose crea la dosis N+1 a partir de una dosis completada.
// Continuidad de la cadena: GivenDate nueva = NextDueDate previa,
// LastGivenDate nueva = GivenDate previa.
func (s *Service) ChainNextDose(ctx context.Context, ownerID, previousID string, newNextDueDate time.Time) (Record, error) {
	prev, err := s.repo.GetByID(ctx, previousID)
	if err != nil {
		return Record{}, err
	}

	if err := s.authorize(ctx, prev.PetID, ownerID); err != nil {
		return Record{}, err
	}

	if CalculateStatus(prev, s.now()) != StatusCompleted {
		return Record{}, ErrConflict
	}
	if newNextDueDate.IsZero() || !day(newNextDueDate).After(day(prev.NextDueDate)) {
		return Record{}, ErrInvalidInput
	}

	lastGiven := prev.GivenDate
	next := Record{
		ID:            uuid.NewString(),
		PetID:         prev.PetID,
		VaccineName:   prev.VaccineName,
		DoctorName:    prev.DoctorName,
		DoseNumber:    prev.DoseNumber + 1,
		LastGivenDate: &lastGiven,
		GivenDate:     day(prev.NextDueDate),
		NextDueDate:   day(newNextDueDate),

		Version:   1,
		CreatedAt: s.now(),
	}

	if err := s.repo.Create(ctx, next); err != nil {
		return Record{}, err
	}
	s.capture(ctx, next)

	return next, nil
}

// MarkCompleted persiste la transición terminal. La fecha real no puede
// ser futura ni anterior a la fecha programada. Resetea el ciclo de
// recordatorios: una dosis completada no necesita avisos, y la dosis
// encadenada arrancará el suyo.
func (s *Service) MarkCompleted(ctx context.Context, ownerID, id string, actualGivenDate time.Time) (Record, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Record{}, err
	}

	if err := s.authorize(ctx, v.PetID, ownerID); err != nil {
		return Record{}, err
	}

	if v.Completed {
		return Record{}, ErrConflict
	}
	if actualGivenDate.IsZero() {
		return Record{}, ErrInvalidInput
	}
	if day(actualGivenDate).After(day(s.now())) {
		return Record{}, ErrInvalidInput
	}
	if day(actualGivenDate).Before(day(v.GivenDate)) {
		return Record{}, ErrInvalidInput
	}

	scheduled := v.GivenDate
	v.LastGivenDate = &scheduled
	v.GivenDate = day(actualGivenDate)
	v.Completed = true
	v.ReminderSent = false
	v.DueDateReminderSent = false
	v.ReminderCount = 0
	v.LastReminderDate = nil

	return s.updateAndAudit(ctx, v)
}

// Reschedule corre la fecha de vencimiento de una dosis pendiente y
// reinicia la ventana de recordatorios.
func (s *Service) Reschedule(ctx context.Context, ownerID, id string, newNextDueDate time.Time) (Record, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Record{}, err
	}

	if err := s.authorize(ctx, v.PetID, ownerID); err != nil {
		return Record{}, err
	}

	if v.Completed {
		return Record{}, ErrConflict
	}
	if newNextDueDate.IsZero() || !day(newNextDueDate).After(day(v.GivenDate)) {
		return Record{}, ErrInvalidInput
	}

	v.NextDueDate = day(newNextDueDate)
	v.ReminderSent = false
	v.DueDateReminderSent = false
	v.ReminderCount = 0
	v.LastReminderDate = nil

	return s.updateAndAudit(ctx, v)
}

// CorrectDoctor es la única mutación permitida sobre un registro
// completado.
func (s *Service) CorrectDoctor(ctx context.Context, ownerID, id, doctorName string) (Record, error) {
	doctorName = strings.TrimSpace(doctorName)
	if doctorName == "" {
		return Record{}, ErrInvalidInput
	}

	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Record{}, err
	}

	if err := s.authorize(ctx, v.PetID, ownerID); err != nil {
		return Record{}, err
	}

	v.DoctorName = doctorName
	return s.updateAndAudit(ctx, v)
}

// ListByPet devuelve los registros de la mascota del caller.
func (s *Service) ListByPet(ctx context.Context, ownerID, petID string) ([]Record, error) {
	if err := s.authorize(ctx, petID, ownerID); err != nil {
		return nil, err
	}
	return s.repo.ListByPet(ctx, petID)
}

// History devuelve el audit trail del registro, revisión más nueva
// primero.
func (s *Service) History(ctx context.Context, ownerID, id string) ([]AuditEntry, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, v.PetID, ownerID); err != nil {
		return nil, err
	}
	return s.audit.ListByVaccination(ctx, id)
}

func (s *Service) authorize(ctx context.Context, petID, ownerID string) error {
	owner, err := s.owners.OwnerOf(ctx, petID)
	if err != nil {
		return ErrPetNotFound
	}
	if owner != ownerID {
		return ErrUnauthorized
	}
	return nil
}

// updateAndAudit es el único camino de escritura para updates: guarda con
// chequeo de versión y captura el snapshot de auditoría del estado
// exactamente escrito.
func (s *Service) updateAndAudit(ctx context.Context, v Record) (Record, error) {
	saved, err := s.repo.Update(ctx, v)
	if err != nil {
		return Record{}, err
	}
	s.capture(ctx, saved)
	return saved, nil
}

// capture agrega la entrada de auditoría. Un fallo acá se loguea y no
// revierte el guardado primario.
func (s *Service) capture(ctx context.Context, v Record) {
	kind := AuditMod
	if v.Version == 1 {
		kind = AuditAdd
	}

	e := AuditEntry{
		ID:            uuid.NewString(),
		VaccinationID: v.ID,
		PetID:         v.PetID,

		VaccineName:   v.VaccineName,
		DoctorName:    v.DoctorName,
		DoseNumber:    v.DoseNumber,
		LastGivenDate: v.LastGivenDate,
		GivenDate:     v.GivenDate,
		NextDueDate:   v.NextDueDate,
		Completed:     v.Completed,

		ReminderSent:  v.ReminderSent,
		ReminderCount: v.ReminderCount,

		AttachmentPath: v.AttachmentPath,

		Revision:   v.Version,
		Kind:       kind,
		CapturedAt: s.now(),
	}

	if err := s.audit.Append(ctx, e); err != nil {
		s.log.Error("audit append failed", map[string]any{
			"vaccination_id": v.ID,
			"revision":       v.Version,
			"err":            err.Error(),
		})
	}
}
