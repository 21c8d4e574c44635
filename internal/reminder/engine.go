package reminder

import (
	"context"
	"errors"
	"time"

	"pet-wellness/internal/platform/logger"
	"pet-wellness/internal/ports/notify"
	"pet-wellness/internal/reminder/metrics"
)

// Kind identifica la ventana de recordatorio. Cada kind tiene su propio
// flag de enviado, independiente del otro.
type Kind string

const (
	KindEarly Kind = "early" // N días antes del vencimiento
	KindDue   Kind = "due"   // el día del vencimiento
)

// ErrStale lo devuelve CommitFlags cuando los flags cambiaron entre la
// lectura y la escritura (otro run ganó la carrera). El engine lo trata
// como skip, nunca como fallo: el CAS es lo que garantiza un solo envío.
var ErrStale = errors.New("reminder flags changed concurrently")

// Flags es el estado de deduplicación persistido por registro.
type Flags struct {
	ReminderSent        bool
	DueDateReminderSent bool
	ReminderCount       int
	LastReminderDate    *time.Time
}

// Candidate es la proyección mínima de un registro que el engine
// necesita para decidir si corresponde un recordatorio.
type Candidate struct {
	ID      string
	DueDate time.Time
	Pending bool // false => estado terminal, se saltea
	Flags   Flags
}

// Source adapta un dominio (vacunaciones, citas) al engine genérico.
type Source interface {
	Name() string

	// Window devuelve el horizonte de búsqueda y el offset del
	// recordatorio temprano, en días. Vacunaciones: (2, 2).
	// Citas: (1, 1). Quedan como parámetros por dominio.
	Window() (horizonDays, earlyOffsetDays int)

	// Candidates devuelve registros con fecha relevante en [from, to].
	Candidates(ctx context.Context, from, to time.Time) ([]Candidate, error)

	// Compose arma el mensaje resolviendo mascota y dueño. Un error acá
	// hace skip de ese registro, nunca aborta el run.
	Compose(ctx context.Context, id string, kind Kind) (notify.Message, error)

	// CommitFlags persiste next solo si el estado actual coincide con
	// prev (compare-and-set). Stale => ErrStale.
	CommitFlags(ctx context.Context, id string, prev, next Flags) error
}

// Summary resume un run para logs y para la respuesta del trigger manual.
type Summary struct {
	Domain     string `json:"domain"`
	Candidates int    `json:"candidates"`
	Sent       int    `json:"sent"`
	Skipped    int    `json:"skipped"`
	Failed     int    `json:"failed"`
}

// Engine es el driver idempotente del batch diario de recordatorios.
// Run puede ejecutarse todas las veces que sea en el mismo día: los
// flags por registro garantizan a lo sumo un envío por registro, por
// kind, por día calendario.
type Engine struct {
	src      Source
	notifier notify.Notifier
	log      logger.Logger
	metrics  *metrics.Metrics
}

func NewEngine(src Source, notifier notify.Notifier, log logger.Logger, m *metrics.Metrics) *Engine {
	return &Engine{
		src:      src,
		notifier: notifier,
		log:      log.With(map[string]any{"component": "reminder", "domain": src.Name()}),
		metrics:  m,
	}
}

func (e *Engine) Name() string { return e.src.Name() }

// Run procesa una pasada para la fecha dada. `today` viene por parámetro
// (no de un reloj global) para que el scheduler, el trigger manual y los
// tests invoquen exactamente la misma función.
//
// El run es read-then-write por registro, no transaccional entre
// registros: un crash a mitad deja los ya procesados marcados y los
// demás elegibles en el próximo run (at-least-once, acotado por flags).
func (e *Engine) Run(ctx context.Context, today time.Time) Summary {
	started := time.Now()
	today = day(today)

	horizon, earlyOffset := e.src.Window()
	sum := Summary{Domain: e.src.Name()}

	e.log.Info("reminder run started", map[string]any{"today": today.Format("2006-01-02")})

	cands, err := e.src.Candidates(ctx, today, today.AddDate(0, 0, horizon))
	if err != nil {
		e.log.Error("candidate query failed", map[string]any{"err": err.Error()})
		e.metrics.ObserveRun(e.src.Name(), "error", time.Since(started))
		return sum
	}
	sum.Candidates = len(cands)

	for _, c := range cands {
		// El trigger manual corre con el contexto del request: si se
		// cancela, se corta acá. Lo ya enviado quedó commiteado y el
		// resto es elegible en el próximo run.
		if err := ctx.Err(); err != nil {
			e.log.Warn("reminder run cancelled", map[string]any{"err": err.Error()})
			e.metrics.ObserveRun(e.src.Name(), "cancelled", time.Since(started))
			return sum
		}

		// Estado terminal: completada / cancelada.
		if !c.Pending {
			sum.Skipped++
			e.metrics.IncSkipped(e.src.Name(), "not_pending")
			continue
		}

		// A lo sumo un email por registro por día, sin importar cuántas
		// veces corra el batch hoy.
		if c.Flags.LastReminderDate != nil && sameDay(*c.Flags.LastReminderDate, today) {
			sum.Skipped++
			e.metrics.IncSkipped(e.src.Name(), "already_today")
			continue
		}

		var kind Kind
		next := c.Flags
		switch {
		case sameDay(today, c.DueDate.AddDate(0, 0, -earlyOffset)) && !c.Flags.ReminderSent:
			kind = KindEarly
			next.ReminderSent = true
		case sameDay(today, c.DueDate) && !c.Flags.DueDateReminderSent:
			kind = KindDue
			next.DueDateReminderSent = true
		default:
			sum.Skipped++
			e.metrics.IncSkipped(e.src.Name(), "no_window")
			continue
		}

		msg, err := e.src.Compose(ctx, c.ID, kind)
		if err != nil {
			// Mascota o dueño irresolubles: se saltea este registro y
			// el run sigue con el resto.
			sum.Failed++
			e.metrics.IncSkipped(e.src.Name(), "compose_failed")
			e.log.Warn("compose failed, skipping record", map[string]any{
				"id":  c.ID,
				"err": err.Error(),
			})
			continue
		}

		if err := e.notifier.Send(ctx, msg); err != nil {
			// Flags sin commitear: el registro queda elegible mañana.
			sum.Failed++
			e.metrics.IncSkipped(e.src.Name(), "send_failed")
			e.log.Error("notification send failed", map[string]any{
				"id":  c.ID,
				"err": err.Error(),
			})
			continue
		}

		next.ReminderCount++
		t := today
		next.LastReminderDate = &t

		if err := e.src.CommitFlags(ctx, c.ID, c.Flags, next); err != nil {
			if errors.Is(err, ErrStale) {
				sum.Skipped++
				e.metrics.IncSkipped(e.src.Name(), "stale_flags")
				e.log.Debug("flags committed by a concurrent run", map[string]any{"id": c.ID})
				continue
			}
			sum.Failed++
			e.metrics.IncSkipped(e.src.Name(), "commit_failed")
			e.log.Error("flag commit failed", map[string]any{"id": c.ID, "err": err.Error()})
			continue
		}

		sum.Sent++
		e.metrics.IncSent(e.src.Name(), string(kind))
	}

	e.metrics.ObserveRun(e.src.Name(), "ok", time.Since(started))
	e.log.Info("reminder run completed", map[string]any{
		"candidates": sum.Candidates,
		"sent":       sum.Sent,
		"skipped":    sum.Skipped,
		"failed":     sum.Failed,
	})

	return sum
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sameDay(a, b time.Time) bool {
	return day(a).Equal(day(b))
}
