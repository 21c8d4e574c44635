package reminder

import (
	"context"
	"errors"
	"testing"
	"time"

	"pet-wellness/internal/platform/logger"
	"pet-wellness/internal/ports/notify"
)

// -------------------------
// Fakes
// -------------------------

type fakeRecord struct {
	due     time.Time
	pending bool
	flags   Flags
}

type fakeSource struct {
	name        string
	horizon     int
	earlyOffset int
	records     map[string]*fakeRecord

	composeErr error
	staleOnce  bool
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		name:        "vaccinations",
		horizon:     2,
		earlyOffset: 2,
		records:     map[string]*fakeRecord{},
	}
}

func (s *fakeSource) Name() string                            { return s.name }
func (s *fakeSource) Window() (horizon, earlyOffset int)      { return s.horizon, s.earlyOffset }
func (s *fakeSource) Candidates(ctx context.Context, from, to time.Time) ([]Candidate, error) {
	out := make([]Candidate, 0)
	for id, r := range s.records {
		if day(r.due).Before(day(from)) || day(r.due).After(day(to)) {
			continue
		}
		out = append(out, Candidate{ID: id, DueDate: r.due, Pending: r.pending, Flags: r.flags})
	}
	return out, nil
}

func (s *fakeSource) Compose(ctx context.Context, id string, kind Kind) (notify.Message, error) {
	if s.composeErr != nil {
		return notify.Message{}, s.composeErr
	}
	return notify.Message{To: "owner@example.com", Subject: "Reminder " + id, Body: string(kind)}, nil
}

func (s *fakeSource) CommitFlags(ctx context.Context, id string, prev, next Flags) error {
	if s.staleOnce {
		s.staleOnce = false
		return ErrStale
	}
	r, ok := s.records[id]
	if !ok {
		return errors.New("source: unknown record")
	}
	if r.flags.ReminderSent != prev.ReminderSent ||
		r.flags.DueDateReminderSent != prev.DueDateReminderSent ||
		r.flags.ReminderCount != prev.ReminderCount {
		return ErrStale
	}
	r.flags = next
	return nil
}

type fakeNotifier struct {
	sent []notify.Message
	err  error
}

func (n *fakeNotifier) Send(ctx context.Context, msg notify.Message) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func newTestEngine(src *fakeSource, n *fakeNotifier) *Engine {
	return NewEngine(src, n, logger.NewNop(), nil)
}

var testToday = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

// -------------------------
// Tests
// -------------------------

func TestEngine_EarlyWindowSendsAndCommits(t *testing.T) {
	src := newFakeSource()
	src.records["v1"] = &fakeRecord{due: testToday.AddDate(0, 0, 2), pending: true}
	n := &fakeNotifier{}

	sum := newTestEngine(src, n).Run(context.Background(), testToday)

	if sum.Sent != 1 || sum.Failed != 0 {
		t.Fatalf("expected 1 sent, got %+v", sum)
	}
	if len(n.sent) != 1 || n.sent[0].Body != string(KindEarly) {
		t.Fatalf("expected early reminder, got %+v", n.sent)
	}

	f := src.records["v1"].flags
	if !f.ReminderSent || f.DueDateReminderSent {
		t.Fatalf("expected only early flag set, got %+v", f)
	}
	if f.ReminderCount != 1 {
		t.Fatalf("expected count 1, got %d", f.ReminderCount)
	}
	if f.LastReminderDate == nil || !f.LastReminderDate.Equal(testToday) {
		t.Fatalf("expected LastReminderDate = today, got %v", f.LastReminderDate)
	}
}

func TestEngine_DueDaySendsDueKind(t *testing.T) {
	src := newFakeSource()
	src.records["v1"] = &fakeRecord{due: testToday, pending: true}
	n := &fakeNotifier{}

	sum := newTestEngine(src, n).Run(context.Background(), testToday)

	if sum.Sent != 1 {
		t.Fatalf("expected 1 sent, got %+v", sum)
	}
	if n.sent[0].Body != string(KindDue) {
		t.Fatalf("expected due reminder, got %s", n.sent[0].Body)
	}
	if !src.records["v1"].flags.DueDateReminderSent {
		t.Fatalf("expected due flag set")
	}
}

func TestEngine_RepeatedRunSameDayIsIdempotent(t *testing.T) {
	src := newFakeSource()
	src.records["v1"] = &fakeRecord{due: testToday.AddDate(0, 0, 2), pending: true}
	src.records["v2"] = &fakeRecord{due: testToday, pending: true}
	n := &fakeNotifier{}
	eng := newTestEngine(src, n)

	first := eng.Run(context.Background(), testToday)
	if first.Sent != 2 {
		t.Fatalf("expected 2 sent on first run, got %+v", first)
	}

	for i := 0; i < 3; i++ {
		again := eng.Run(context.Background(), testToday)
		if again.Sent != 0 {
			t.Fatalf("expected 0 sent on repeated run, got %+v", again)
		}
	}
	if len(n.sent) != 2 {
		t.Fatalf("expected exactly 2 notifications total, got %d", len(n.sent))
	}
}

func TestEngine_SkipsNonPending(t *testing.T) {
	src := newFakeSource()
	src.records["v1"] = &fakeRecord{due: testToday, pending: false}
	n := &fakeNotifier{}

	sum := newTestEngine(src, n).Run(context.Background(), testToday)

	if sum.Sent != 0 || sum.Skipped != 1 {
		t.Fatalf("expected terminal record skipped, got %+v", sum)
	}
	if len(n.sent) != 0 {
		t.Fatalf("expected no notifications")
	}
}

func TestEngine_OutsideWindowSkips(t *testing.T) {
	src := newFakeSource()
	// dentro del horizonte pero ni el día early ni el due
	src.records["v1"] = &fakeRecord{due: testToday.AddDate(0, 0, 1), pending: true}
	n := &fakeNotifier{}

	sum := newTestEngine(src, n).Run(context.Background(), testToday)

	if sum.Sent != 0 || sum.Skipped != 1 {
		t.Fatalf("expected no-window skip, got %+v", sum)
	}
}

func TestEngine_ComposeFailureSkipsWithoutCommit(t *testing.T) {
	src := newFakeSource()
	src.records["v1"] = &fakeRecord{due: testToday, pending: true}
	src.composeErr = errors.New("pet not found")
	n := &fakeNotifier{}

	sum := newTestEngine(src, n).Run(context.Background(), testToday)

	if sum.Failed != 1 || sum.Sent != 0 {
		t.Fatalf("expected compose failure counted, got %+v", sum)
	}

	// Flags intactos: el registro sigue elegible cuando el dato se arregle
	f := src.records["v1"].flags
	if f.DueDateReminderSent || f.ReminderCount != 0 || f.LastReminderDate != nil {
		t.Fatalf("expected flags untouched after compose failure, got %+v", f)
	}
}

func TestEngine_SendFailureLeavesFlagsUncommitted(t *testing.T) {
	src := newFakeSource()
	src.records["v1"] = &fakeRecord{due: testToday, pending: true}
	n := &fakeNotifier{err: errors.New("smtp down")}

	sum := newTestEngine(src, n).Run(context.Background(), testToday)

	if sum.Failed != 1 {
		t.Fatalf("expected send failure counted, got %+v", sum)
	}
	if src.records["v1"].flags.DueDateReminderSent {
		t.Fatalf("flags must not commit when send fails")
	}

	// Con el notifier recuperado, el mismo registro vuelve a salir
	n.err = nil
	again := newTestEngine(src, n).Run(context.Background(), testToday)
	if again.Sent != 1 {
		t.Fatalf("expected retry to send, got %+v", again)
	}
}

func TestEngine_StaleCommitCountsAsSkip(t *testing.T) {
	src := newFakeSource()
	src.records["v1"] = &fakeRecord{due: testToday, pending: true}
	src.staleOnce = true
	n := &fakeNotifier{}

	sum := newTestEngine(src, n).Run(context.Background(), testToday)

	if sum.Sent != 0 || sum.Skipped != 1 || sum.Failed != 0 {
		t.Fatalf("expected stale commit as skip, got %+v", sum)
	}
}

func TestEngine_CancelledContextStopsBetweenRecords(t *testing.T) {
	src := newFakeSource()
	src.records["v1"] = &fakeRecord{due: testToday.AddDate(0, 0, 2), pending: true}
	src.records["v2"] = &fakeRecord{due: testToday.AddDate(0, 0, 2), pending: true}
	n := &fakeNotifier{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum := newTestEngine(src, n).Run(ctx, testToday)

	if sum.Sent != 0 || len(n.sent) != 0 {
		t.Fatalf("expected no sends with cancelled context, got %+v", sum)
	}
	for id, r := range src.records {
		if r.flags.ReminderSent {
			t.Fatalf("expected no flags committed for %s", id)
		}
	}
}
