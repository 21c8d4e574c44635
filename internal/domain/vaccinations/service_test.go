package vaccinations

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"pet-wellness/internal/platform/logger"
)

// -------------------------
// Fakes (in-memory)
// -------------------------

type testRepo struct {
	byID map[string]Record
}

func newTestRepo() *testRepo {
	return &testRepo{byID: map[string]Record{}}
}

func (r *testRepo) Create(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		return errors.New("repo: id required")
	}
	if _, ok := r.byID[rec.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[rec.ID] = rec
	return nil
}

func (r *testRepo) GetByID(ctx context.Context, id string) (Record, error) {
	rec, ok := r.byID[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (r *testRepo) Update(ctx context.Context, rec Record) (Record, error) {
	current, ok := r.byID[rec.ID]
	if !ok {
		return Record{}, ErrNotFound
	}
	if current.Version != rec.Version {
		return Record{}, ErrConflict
	}
	rec.Version++
	r.byID[rec.ID] = rec
	return rec, nil
}

func (r *testRepo) ListByPet(ctx context.Context, petID string) ([]Record, error) {
	out := make([]Record, 0)
	for _, rec := range r.byID {
		if rec.PetID == petID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *testRepo) LatestDose(ctx context.Context, petID, vaccineName string) (Record, error) {
	var best Record
	found := false
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
		return Record{}, ErrNotFound
	}
	return best, nil
}

func (r *testRepo) DueBetween(ctx context.Context, from, to time.Time) ([]Record, error) {
	out := make([]Record, 0)
	for _, rec := range r.byID {
		d := day(rec.NextDueDate)
		if d.Before(day(from)) || d.After(day(to)) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

type testAudit struct {
	entries []AuditEntry
	fail    bool
}

func (a *testAudit) Append(ctx context.Context, e AuditEntry) error {
	if a.fail {
		return errors.New("audit: unavailable")
	}
	a.entries = append(a.entries, e)
	return nil
}

func (a *testAudit) ListByVaccination(ctx context.Context, vaccinationID string) ([]AuditEntry, error) {
	out := make([]AuditEntry, 0)
	for i := len(a.entries) - 1; i >= 0; i-- {
		if a.entries[i].VaccinationID == vaccinationID {
			out = append(out, a.entries[i])
		}
	}
	return out, nil
}

type testOwners struct {
	byPet map[string]string
}

func (o *testOwners) OwnerOf(ctx context.Context, petID string) (string, error) {
	owner, ok := o.byPet[petID]
	if !ok {
		return "", errors.New("owners: pet not found")
	}
	return owner, nil
}

func newTestService() (*Service, *testRepo, *testAudit) {
	repo := newTestRepo()
	audit := &testAudit{}
	owners := &testOwners{byPet: map[string]string{"pet-1": "owner-1"}}
	svc := NewService(repo, audit, owners, logger.NewNop())
	return svc, repo, audit
}

func fixedToday() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

// -------------------------
// Tests
// -------------------------

func TestService_AddDose_CreatesDoseOne_WithAuditAdd(t *testing.T) {
	svc, _, audit := newTestService()
	svc.now = fixedToday

	given := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	due := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)

	v, err := svc.AddDose(context.Background(), "owner-1", AddDoseInput{
		PetID:       "pet-1",
		VaccineName: "Rabia",
		DoctorName:  "Dra. Paz",
		GivenDate:   given,
		NextDueDate: due,
	})
	if err != nil {
		t.Fatalf("AddDose error: %v", err)
	}
	if v.DoseNumber != 1 {
		t.Fatalf("expected dose 1, got %d", v.DoseNumber)
	}
	if v.LastGivenDate != nil {
		t.Fatalf("dose 1 must not have LastGivenDate")
	}
	if v.Version != 1 {
		t.Fatalf("expected version 1, got %d", v.Version)
	}

	if len(audit.entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(audit.entries))
	}
	if audit.entries[0].Kind != AuditAdd || audit.entries[0].Revision != 1 {
		t.Fatalf("expected ADD revision 1, got %s rev %d", audit.entries[0].Kind, audit.entries[0].Revision)
	}
}

func TestService_AddDose_Validations(t *testing.T) {
	svc, _, _ := newTestService()
	svc.now = fixedToday

	given := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		in   AddDoseInput
		want error
	}{
		{
			name: "empty vaccine name",
			in:   AddDoseInput{PetID: "pet-1", GivenDate: given, NextDueDate: given.AddDate(0, 1, 0)},
			want: ErrInvalidInput,
		},
		{
			name: "due not after given",
			in:   AddDoseInput{PetID: "pet-1", VaccineName: "Rabia", GivenDate: given, NextDueDate: given},
			want: ErrInvalidInput,
		},
		{
			name: "zero dates",
			in:   AddDoseInput{PetID: "pet-1", VaccineName: "Rabia"},
			want: ErrInvalidInput,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AddDose(context.Background(), "owner-1", tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestService_AddDose_RejectsWhilePreviousDosePending(t *testing.T) {
	svc, _, _ := newTestService()
	svc.now = fixedToday

	given := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	due := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)

	_, err := svc.AddDose(context.Background(), "owner-1", AddDoseInput{
		PetID: "pet-1", VaccineName: "Rabia", GivenDate: given, NextDueDate: due,
	})
	if err != nil {
		t.Fatalf("AddDose #1 error: %v", err)
	}

	_, err = svc.AddDose(context.Background(), "owner-1", AddDoseInput{
		PetID: "pet-1", VaccineName: "rabia", GivenDate: given, NextDueDate: due,
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for pending previous dose, got %v", err)
	}
}

func TestService_Authorization(t *testing.T) {
	svc, _, _ := newTestService()
	svc.now = fixedToday

	given := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	in := AddDoseInput{PetID: "pet-1", VaccineName: "Rabia", GivenDate: given, NextDueDate: given.AddDate(0, 1, 0)}

	if _, err := svc.AddDose(context.Background(), "intruder", in); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	in.PetID = "ghost-pet"
	if _, err := svc.AddDose(context.Background(), "owner-1", in); !errors.Is(err, ErrPetNotFound) {
		t.Fatalf("expected ErrPetNotFound, got %v", err)
	}
}

func TestService_MarkCompleted_SetsDatesAndResetsReminders(t *testing.T) {
	svc, repo, audit := newTestService()
	svc.now = fixedToday

	given := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	v, err := svc.AddDose(context.Background(), "owner-1", AddDoseInput{
		PetID: "pet-1", VaccineName: "Rabia", GivenDate: given, NextDueDate: due,
	})
	if err != nil {
		t.Fatalf("AddDose error: %v", err)
	}

	// Simular flags de recordatorio ya enviados
	stored := repo.byID[v.ID]
	stored.ReminderSent = true
	stored.ReminderCount = 2
	lrd := given.AddDate(0, 0, -2)
	stored.LastReminderDate = &lrd
	repo.byID[v.ID] = stored

	actual := time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC)
	done, err := svc.MarkCompleted(context.Background(), "owner-1", v.ID, actual)
	if err != nil {
		t.Fatalf("MarkCompleted error: %v", err)
	}

	if !done.Completed {
		t.Fatalf("expected completed")
	}
	if !done.GivenDate.Equal(day(actual)) {
		t.Fatalf("expected GivenDate = actual date, got %v", done.GivenDate)
	}
	if done.LastGivenDate == nil || !done.LastGivenDate.Equal(day(given)) {
		t.Fatalf("expected LastGivenDate = scheduled date, got %v", done.LastGivenDate)
	}
	if done.ReminderSent || done.DueDateReminderSent || done.ReminderCount != 0 || done.LastReminderDate != nil {
		t.Fatalf("expected reminder state reset, got %+v", done)
	}
	if done.Version != 2 {
		t.Fatalf("expected version 2, got %d", done.Version)
	}

	// ADD + MOD
	if len(audit.entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(audit.entries))
	}
	if audit.entries[1].Kind != AuditMod || audit.entries[1].Revision != 2 {
		t.Fatalf("expected MOD revision 2, got %s rev %d", audit.entries[1].Kind, audit.entries[1].Revision)
	}
}

func TestService_MarkCompleted_Validations(t *testing.T) {
	svc, _, _ := newTestService()
	svc.now = fixedToday

	given := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	v, err := svc.AddDose(context.Background(), "owner-1", AddDoseInput{
		PetID: "pet-1", VaccineName: "Rabia", GivenDate: given, NextDueDate: due,
	})
	if err != nil {
		t.Fatalf("AddDose error: %v", err)
	}

	// fecha futura
	if _, err := svc.MarkCompleted(context.Background(), "owner-1", v.ID, fixedToday().AddDate(0, 0, 1)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for future date, got %v", err)
	}
	// antes de la fecha programada
	if _, err := svc.MarkCompleted(context.Background(), "owner-1", v.ID, given.AddDate(0, 0, -1)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for date before scheduled, got %v", err)
	}

	// doble completar
	if _, err := svc.MarkCompleted(context.Background(), "owner-1", v.ID, given); err != nil {
		t.Fatalf("MarkCompleted error: %v", err)
	}
	if _, err := svc.MarkCompleted(context.Background(), "owner-1", v.ID, given); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for double complete, got %v", err)
	}
}

func TestService_ChainNextDose_Continuity(t *testing.T) {
	svc, _, _ := newTestService()
	svc.now = fixedToday

	given := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	due := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	v, err := svc.AddDose(context.Background(), "owner-1", AddDoseInput{
		PetID: "pet-1", VaccineName: "Rabia", DoctorName: "Dra. Paz",
		GivenDate: given, NextDueDate: due,
	})
	if err != nil {
		t.Fatalf("AddDose error: %v", err)
	}

	// No se puede encadenar sobre una dosis pendiente
	if _, err := svc.ChainNextDose(context.Background(), "owner-1", v.ID, due.AddDate(0, 1, 0)); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict chaining on pending dose, got %v", err)
	}

	actual := time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC)
	done, err := svc.MarkCompleted(context.Background(), "owner-1", v.ID, actual)
	if err != nil {
		t.Fatalf("MarkCompleted error: %v", err)
	}

	newDue := due.AddDate(0, 1, 0)
	next, err := svc.ChainNextDose(context.Background(), "owner-1", v.ID, newDue)
	if err != nil {
		t.Fatalf("ChainNextDose error: %v", err)
	}

	if next.DoseNumber != 2 {
		t.Fatalf("expected dose 2, got %d", next.DoseNumber)
	}
	// GivenDate nueva = NextDueDate previa
	if !next.GivenDate.Equal(day(done.NextDueDate)) {
		t.Fatalf("expected GivenDate %v, got %v", done.NextDueDate, next.GivenDate)
	}
	// LastGivenDate nueva = GivenDate previa (la real)
	if next.LastGivenDate == nil || !next.LastGivenDate.Equal(done.GivenDate) {
		t.Fatalf("expected LastGivenDate %v, got %v", done.GivenDate, next.LastGivenDate)
	}
	if next.VaccineName != "Rabia" || next.DoctorName != "Dra. Paz" {
		t.Fatalf("expected vaccine/doctor carried over")
	}

	// Vencimiento nuevo debe ser posterior al previo
	if _, err := svc.ChainNextDose(context.Background(), "owner-1", v.ID, due); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for non-advancing due date, got %v", err)
	}
}

func TestService_Reschedule(t *testing.T) {
	svc, repo, _ := newTestService()
	svc.now = fixedToday

	given := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	due := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	v, err := svc.AddDose(context.Background(), "owner-1", AddDoseInput{
		PetID: "pet-1", VaccineName: "Rabia", GivenDate: given, NextDueDate: due,
	})
	if err != nil {
		t.Fatalf("AddDose error: %v", err)
	}

	stored := repo.byID[v.ID]
	stored.DueDateReminderSent = true
	repo.byID[v.ID] = stored

	newDue := due.AddDate(0, 0, 15)
	moved, err := svc.Reschedule(context.Background(), "owner-1", v.ID, newDue)
	if err != nil {
		t.Fatalf("Reschedule error: %v", err)
	}
	if !moved.NextDueDate.Equal(day(newDue)) {
		t.Fatalf("expected due %v, got %v", newDue, moved.NextDueDate)
	}
	if moved.DueDateReminderSent {
		t.Fatalf("expected reminder flags reset after reschedule")
	}

	// No se reprograma una completada
	if _, err := svc.MarkCompleted(context.Background(), "owner-1", v.ID, given); err != nil {
		t.Fatalf("MarkCompleted error: %v", err)
	}
	if _, err := svc.Reschedule(context.Background(), "owner-1", v.ID, newDue.AddDate(0, 1, 0)); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict rescheduling completed record, got %v", err)
	}
}

func TestService_CorrectDoctor_AllowedOnCompleted(t *testing.T) {
	svc, _, _ := newTestService()
	svc.now = fixedToday

	given := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	v, err := svc.AddDose(context.Background(), "owner-1", AddDoseInput{
		PetID: "pet-1", VaccineName: "Rabia", DoctorName: "Dra. Pas",
		GivenDate: given, NextDueDate: given.AddDate(0, 1, 0),
	})
	if err != nil {
		t.Fatalf("AddDose error: %v", err)
	}
	if _, err := svc.MarkCompleted(context.Background(), "owner-1", v.ID, given); err != nil {
		t.Fatalf("MarkCompleted error: %v", err)
	}

	fixed, err := svc.CorrectDoctor(context.Background(), "owner-1", v.ID, "Dra. Paz")
	if err != nil {
		t.Fatalf("CorrectDoctor error: %v", err)
	}
	if fixed.DoctorName != "Dra. Paz" {
		t.Fatalf("expected corrected doctor, got %s", fixed.DoctorName)
	}
	if !fixed.Completed {
		t.Fatalf("completion flag must survive the correction")
	}

	// Revisiones estrictamente crecientes: ADD(1), MOD(2), MOD(3)
	history, err := svc.History(context.Background(), "owner-1", v.ID)
	if err != nil {
		t.Fatalf("History error: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 revisions, got %d", len(history))
	}
	for i, want := range []int64{3, 2, 1} {
		if history[i].Revision != want {
			t.Fatalf("expected revision %d at position %d, got %d", want, i, history[i].Revision)
		}
	}
	if history[2].Kind != AuditAdd || history[0].Kind != AuditMod {
		t.Fatalf("expected ADD first revision and MOD afterwards")
	}
}

func TestService_AuditFailureDoesNotFailWrite(t *testing.T) {
	svc, _, audit := newTestService()
	svc.now = fixedToday
	audit.fail = true

	given := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	_, err := svc.AddDose(context.Background(), "owner-1", AddDoseInput{
		PetID: "pet-1", VaccineName: "Rabia", GivenDate: given, NextDueDate: given.AddDate(0, 1, 0),
	})
	if err != nil {
		t.Fatalf("expected write to succeed despite audit failure, got %v", err)
	}
}
