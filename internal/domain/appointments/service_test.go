package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"pet-wellness/internal/platform/logger"
)

// -------------------------
// Fakes (in-memory)
// -------------------------

type testSlotRepo struct {
	byID        map[string]Slot
	failRelease bool
}

func newTestSlotRepo() *testSlotRepo {
	return &testSlotRepo{byID: map[string]Slot{}}
}

func (r *testSlotRepo) Create(ctx context.Context, s Slot) error {
	if _, ok := r.byID[s.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[s.ID] = s
	return nil
}

func (r *testSlotRepo) GetByID(ctx context.Context, id string) (Slot, error) {
	s, ok := r.byID[id]
	if !ok {
		return Slot{}, ErrSlotNotFound
	}
	return s, nil
}

func (r *testSlotRepo) Update(ctx context.Context, s Slot) error {
	if _, ok := r.byID[s.ID]; !ok {
		return ErrSlotNotFound
	}
	r.byID[s.ID] = s
	return nil
}

func (r *testSlotRepo) UpdateStatus(ctx context.Context, id string, from, to SlotStatus) error {
	if r.failRelease && from == SlotBooked && to == SlotAvailable {
		return errors.New("repo: write failed")
	}
	s, ok := r.byID[id]
	if !ok {
		return ErrSlotNotFound
	}
	if s.Status != from {
		return ErrConflict
	}
	s.Status = to
	r.byID[id] = s
	return nil
}

func (r *testSlotRepo) Delete(ctx context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return ErrSlotNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *testSlotRepo) List(ctx context.Context) ([]Slot, error) {
	out := make([]Slot, 0, len(r.byID))
	for _, s := range r.byID {
		out = append(out, s)
	}
	return out, nil
}

func (r *testSlotRepo) ListByStatus(ctx context.Context, status SlotStatus) ([]Slot, error) {
	out := make([]Slot, 0)
	for _, s := range r.byID {
		if s.Status == status {
			out = append(out, s)
		}
	}
	return out, nil
}

type testApptRepo struct {
	byID       map[string]Appointment
	failCreate bool
}

func newTestApptRepo() *testApptRepo {
	return &testApptRepo{byID: map[string]Appointment{}}
}

func (r *testApptRepo) Create(ctx context.Context, a Appointment) error {
	if r.failCreate {
		return errors.New("repo: write failed")
	}
	if _, ok := r.byID[a.ID]; ok {
		return errors.New("repo: already exists")
	}
	r.byID[a.ID] = a
	return nil
}

func (r *testApptRepo) GetByID(ctx context.Context, id string) (Appointment, error) {
	a, ok := r.byID[id]
	if !ok {
		return Appointment{}, ErrNotFound
	}
	return a, nil
}

func (r *testApptRepo) Update(ctx context.Context, a Appointment) (Appointment, error) {
	current, ok := r.byID[a.ID]
	if !ok {
		return Appointment{}, ErrNotFound
	}
	if current.Version != a.Version {
		return Appointment{}, ErrConflict
	}
	a.Version++
	r.byID[a.ID] = a
	return a, nil
}

func (r *testApptRepo) UpdateStatus(ctx context.Context, id string, from, to AppointmentStatus) error {
	a, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	if a.Status != from {
		return ErrConflict
	}
	a.Status = to
	a.Version++
	r.byID[id] = a
	return nil
}

func (r *testApptRepo) ListByUser(ctx context.Context, userID string) ([]Appointment, error) {
	out := make([]Appointment, 0)
	for _, a := range r.byID {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *testApptRepo) ListAll(ctx context.Context) ([]Appointment, error) {
	out := make([]Appointment, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, a)
	}
	return out, nil
}

func (r *testApptRepo) DateBetween(ctx context.Context, from, to time.Time) ([]Appointment, error) {
	out := make([]Appointment, 0)
	for _, a := range r.byID {
		d := day(a.Date)
		if d.Before(day(from)) || d.After(day(to)) {
			continue
		}
		out = append(out, a)
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

func newTestService() (*Service, *testSlotRepo, *testApptRepo) {
	slots := newTestSlotRepo()
	appts := newTestApptRepo()
	owners := &testOwners{byPet: map[string]string{"pet-1": "user-1"}}
	svc := NewService(slots, appts, owners, logger.NewNop())
	return svc, slots, appts
}

func mustCreateSlot(t *testing.T, svc *Service) Slot {
	t.Helper()
	sl, err := svc.CreateSlot(context.Background(), CreateSlotInput{
		Date:             time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC),
		StartTime:        "10:30",
		DurationMinutes:  30,
		ConsultationType: ConsultationInClinic,
		VeterinarianName: "Dr. Ruiz",
	})
	if err != nil {
		t.Fatalf("CreateSlot error: %v", err)
	}
	return sl
}

// -------------------------
// Tests
// -------------------------

func TestService_CreateSlot_Validations(t *testing.T) {
	svc, _, _ := newTestService()

	cases := []struct {
		name string
		in   CreateSlotInput
	}{
		{"zero date", CreateSlotInput{StartTime: "10:00", DurationMinutes: 30, ConsultationType: ConsultationOnline}},
		{"bad time", CreateSlotInput{Date: time.Now(), StartTime: "25:99", DurationMinutes: 30, ConsultationType: ConsultationOnline}},
		{"zero duration", CreateSlotInput{Date: time.Now(), StartTime: "10:00", ConsultationType: ConsultationOnline}},
		{"bad type", CreateSlotInput{Date: time.Now(), StartTime: "10:00", DurationMinutes: 30, ConsultationType: "HOUSE_CALL"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateSlot(context.Background(), tc.in); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestService_Book_HappyPath(t *testing.T) {
	svc, slots, _ := newTestService()
	sl := mustCreateSlot(t, svc)

	a, err := svc.Book(context.Background(), "user-1", BookInput{SlotID: sl.ID, PetID: "pet-1", Notes: "control anual"})
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}

	if a.Status != StatusScheduled {
		t.Fatalf("expected SCHEDULED, got %s", a.Status)
	}
	// Denormalización del slot en la cita
	if !a.Date.Equal(sl.Date) || a.StartTime != sl.StartTime || a.VeterinarianName != sl.VeterinarianName {
		t.Fatalf("expected slot data copied into appointment")
	}
	if slots.byID[sl.ID].Status != SlotBooked {
		t.Fatalf("expected slot BOOKED, got %s", slots.byID[sl.ID].Status)
	}
}

func TestService_Book_DoubleBookingLeavesOneWinner(t *testing.T) {
	svc, _, _ := newTestService()
	sl := mustCreateSlot(t, svc)

	if _, err := svc.Book(context.Background(), "user-1", BookInput{SlotID: sl.ID, PetID: "pet-1"}); err != nil {
		t.Fatalf("Book #1 error: %v", err)
	}
	if _, err := svc.Book(context.Background(), "user-1", BookInput{SlotID: sl.ID, PetID: "pet-1"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on second booking, got %v", err)
	}
}

func TestService_Book_AuthzAndMissing(t *testing.T) {
	svc, _, _ := newTestService()
	sl := mustCreateSlot(t, svc)

	if _, err := svc.Book(context.Background(), "user-2", BookInput{SlotID: sl.ID, PetID: "pet-1"}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized booking someone else's pet, got %v", err)
	}
	if _, err := svc.Book(context.Background(), "user-1", BookInput{SlotID: sl.ID, PetID: "ghost"}); !errors.Is(err, ErrPetNotFound) {
		t.Fatalf("expected ErrPetNotFound, got %v", err)
	}
	if _, err := svc.Book(context.Background(), "user-1", BookInput{SlotID: "ghost", PetID: "pet-1"}); !errors.Is(err, ErrSlotNotFound) {
		t.Fatalf("expected ErrSlotNotFound, got %v", err)
	}
}

func TestService_Book_CompensatesSlotOnCreateFailure(t *testing.T) {
	svc, slots, appts := newTestService()
	sl := mustCreateSlot(t, svc)
	appts.failCreate = true

	if _, err := svc.Book(context.Background(), "user-1", BookInput{SlotID: sl.ID, PetID: "pet-1"}); err == nil {
		t.Fatalf("expected error from failing create")
	}
	if slots.byID[sl.ID].Status != SlotAvailable {
		t.Fatalf("expected slot released back to AVAILABLE, got %s", slots.byID[sl.ID].Status)
	}
}

func TestService_Cancel_ReleasesSlot_AndRejectsDoubleCancel(t *testing.T) {
	svc, slots, _ := newTestService()
	sl := mustCreateSlot(t, svc)

	a, err := svc.Book(context.Background(), "user-1", BookInput{SlotID: sl.ID, PetID: "pet-1"})
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}

	// Otro usuario no puede cancelar
	if err := svc.Cancel(context.Background(), a.ID, "user-2", false); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	if err := svc.Cancel(context.Background(), a.ID, "user-1", false); err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if slots.byID[sl.ID].Status != SlotAvailable {
		t.Fatalf("expected slot released, got %s", slots.byID[sl.ID].Status)
	}

	if err := svc.Cancel(context.Background(), a.ID, "user-1", false); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on double cancel, got %v", err)
	}

	// Admin puede cancelar citas ajenas
	sl2 := mustCreateSlot(t, svc)
	a2, err := svc.Book(context.Background(), "user-1", BookInput{SlotID: sl2.ID, PetID: "pet-1"})
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}
	if err := svc.Cancel(context.Background(), a2.ID, "admin-1", true); err != nil {
		t.Fatalf("admin Cancel error: %v", err)
	}
}

func TestService_Cancel_CompensatesAppointmentOnReleaseFailure(t *testing.T) {
	svc, slots, appts := newTestService()
	sl := mustCreateSlot(t, svc)

	a, err := svc.Book(context.Background(), "user-1", BookInput{SlotID: sl.ID, PetID: "pet-1"})
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}

	slots.failRelease = true
	if err := svc.Cancel(context.Background(), a.ID, "user-1", false); err == nil {
		t.Fatalf("expected error from failing slot release")
	}
	// La cita vuelve a SCHEDULED: nada queda cancelado con su slot tomado.
	if got := appts.byID[a.ID].Status; got != StatusScheduled {
		t.Fatalf("expected appointment back to SCHEDULED, got %s", got)
	}
	if slots.byID[sl.ID].Status != SlotBooked {
		t.Fatalf("expected slot still BOOKED, got %s", slots.byID[sl.ID].Status)
	}

	// Con el storage sano, el retry cancela y libera.
	slots.failRelease = false
	if err := svc.Cancel(context.Background(), a.ID, "user-1", false); err != nil {
		t.Fatalf("Cancel retry error: %v", err)
	}
	if appts.byID[a.ID].Status != StatusCancelled {
		t.Fatalf("expected CANCELLED after retry, got %s", appts.byID[a.ID].Status)
	}
	if slots.byID[sl.ID].Status != SlotAvailable {
		t.Fatalf("expected slot released after retry, got %s", slots.byID[sl.ID].Status)
	}
}

func TestService_DeleteSlot_RejectsWhileBooked(t *testing.T) {
	svc, _, _ := newTestService()
	sl := mustCreateSlot(t, svc)

	a, err := svc.Book(context.Background(), "user-1", BookInput{SlotID: sl.ID, PetID: "pet-1"})
	if err != nil {
		t.Fatalf("Book error: %v", err)
	}

	if err := svc.DeleteSlot(context.Background(), sl.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict deleting booked slot, got %v", err)
	}

	if err := svc.Cancel(context.Background(), a.ID, "user-1", false); err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if err := svc.DeleteSlot(context.Background(), sl.ID); err != nil {
		t.Fatalf("DeleteSlot error after cancel: %v", err)
	}
}

func TestIsPast(t *testing.T) {
	date := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
	a := Appointment{Date: date}

	if IsPast(a, date) {
		t.Fatalf("appointment is not past on its own day")
	}
	if !IsPast(a, date.AddDate(0, 0, 1)) {
		t.Fatalf("appointment must be past the day after")
	}
}
