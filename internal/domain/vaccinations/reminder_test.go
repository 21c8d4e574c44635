package vaccinations

import (
	"context"
	"errors"
	"testing"
	"time"

	"pet-wellness/internal/reminder"
)

func seedReminderRecord(t *testing.T, svc *Service) Record {
	t.Helper()
	v, err := svc.AddDose(context.Background(), "owner-1", AddDoseInput{
		PetID:       "pet-1",
		VaccineName: "Rabia",
		DoctorName:  "Dra. Paz",
		GivenDate:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		NextDueDate: time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("AddDose error: %v", err)
	}
	return v
}

func TestReminderSource_CommitFlags_PersistsAndAudits(t *testing.T) {
	svc, repo, audit := newTestService()
	svc.now = fixedToday
	v := seedReminderRecord(t, svc)

	rs := NewReminderSource(svc, nil, nil)

	today := day(fixedToday())
	prev := flagsOf(v)
	next := prev
	next.ReminderSent = true
	next.ReminderCount = 1
	next.LastReminderDate = &today

	if err := rs.CommitFlags(context.Background(), v.ID, prev, next); err != nil {
		t.Fatalf("CommitFlags error: %v", err)
	}

	saved := repo.byID[v.ID]
	if !saved.ReminderSent || saved.ReminderCount != 1 {
		t.Fatalf("expected flags persisted, got %+v", saved)
	}
	if saved.LastReminderDate == nil || !sameDay(*saved.LastReminderDate, today) {
		t.Fatalf("expected LastReminderDate = today, got %v", saved.LastReminderDate)
	}
	if saved.Version != 2 {
		t.Fatalf("expected version 2 after flag save, got %d", saved.Version)
	}

	// Los guardados del batch se auditan igual que cualquier escritura:
	// ADD rev 1 del alta + exactamente un MOD rev 2 por los flags.
	entries, err := audit.ListByVaccination(context.Background(), v.ID)
	if err != nil {
		t.Fatalf("history error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(entries))
	}
	if entries[0].Kind != AuditMod || entries[0].Revision != 2 {
		t.Fatalf("expected newest entry MOD rev 2, got %s rev %d", entries[0].Kind, entries[0].Revision)
	}
	if !entries[0].ReminderSent || entries[0].ReminderCount != 1 {
		t.Fatalf("expected flags captured in audit snapshot, got %+v", entries[0])
	}
}

func TestReminderSource_CommitFlags_StaleFlagsSkipWrite(t *testing.T) {
	svc, repo, audit := newTestService()
	svc.now = fixedToday
	v := seedReminderRecord(t, svc)

	rs := NewReminderSource(svc, nil, nil)

	today := day(fixedToday())
	stale := flagsOf(v)
	stale.ReminderCount = 5 // otro run ya escribió
	next := stale
	next.DueDateReminderSent = true
	next.LastReminderDate = &today

	if err := rs.CommitFlags(context.Background(), v.ID, stale, next); !errors.Is(err, reminder.ErrStale) {
		t.Fatalf("expected reminder.ErrStale, got %v", err)
	}

	saved := repo.byID[v.ID]
	if saved.DueDateReminderSent || saved.ReminderCount != 0 || saved.Version != 1 {
		t.Fatalf("expected record untouched on stale commit, got %+v", saved)
	}
	if len(audit.entries) != 1 {
		t.Fatalf("expected only the ADD audit entry, got %d", len(audit.entries))
	}
}

func TestReminderSource_Candidates_PendingFromComputedStatus(t *testing.T) {
	svc, _, _ := newTestService()
	svc.now = fixedToday
	v := seedReminderRecord(t, svc)

	rs := NewReminderSource(svc, nil, nil)

	from := day(fixedToday())
	cands, err := rs.Candidates(context.Background(), from, from.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("Candidates error: %v", err)
	}
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(cands))
	}
	if !cands[0].Pending || cands[0].ID != v.ID {
		t.Fatalf("expected pending candidate for %s, got %+v", v.ID, cands[0])
	}

	// Completada => deja de ser candidata pendiente.
	if _, err := svc.MarkCompleted(context.Background(), "owner-1", v.ID, fixedToday()); err != nil {
		t.Fatalf("MarkCompleted error: %v", err)
	}
	cands, err = rs.Candidates(context.Background(), from, from.AddDate(0, 0, 2))
	if err != nil {
		t.Fatalf("Candidates error: %v", err)
	}
	if len(cands) != 1 || cands[0].Pending {
		t.Fatalf("expected completed record to be non-pending, got %+v", cands)
	}
}
