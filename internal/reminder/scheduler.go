package reminder

import (
	"context"
	"time"

	"pet-wellness/internal/platform/logger"
)

// Scheduler dispara una pasada diaria de cada engine a la hora
// configurada. Es un caller fino: el trigger manual del admin invoca
// exactamente los mismos Run, así que no hay lock de run-level — la
// seguridad ante corridas duplicadas viene de los flags por registro.
type Scheduler struct {
	engines []*Engine
	log     logger.Logger
	hour    int // 0-23, hora local
	now     func() time.Time
}

func NewScheduler(hour int, log logger.Logger, engines ...*Engine) *Scheduler {
	return &Scheduler{
		engines: engines,
		log:     log.With(map[string]any{"component": "scheduler"}),
		hour:    hour,
		now:     time.Now,
	}
}

// Start bloquea hasta que ctx se cancele. Pensado para correr en su
// propia goroutine desde main.
func (s *Scheduler) Start(ctx context.Context) {
	for {
		next := s.nextRun(s.now())
		s.log.Info("next reminder batch scheduled", map[string]any{
			"at": next.Format(time.RFC3339),
		})

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.RunAll(ctx, s.now())
		}
	}
}

// RunAll corre todos los engines para la fecha dada y devuelve los
// resúmenes. Lo comparten el tick diario y el endpoint manual.
func (s *Scheduler) RunAll(ctx context.Context, today time.Time) []Summary {
	out := make([]Summary, 0, len(s.engines))
	for _, e := range s.engines {
		out = append(out, e.Run(ctx, today))
	}
	return out
}

func (s *Scheduler) nextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
