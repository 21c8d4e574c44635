package router

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	mem "pet-wellness/internal/adapters/storage/memory"
	pg "pet-wellness/internal/adapters/storage/postgres"
	"pet-wellness/internal/domain/appointments"
	"pet-wellness/internal/domain/pets"
	"pet-wellness/internal/domain/users"
	"pet-wellness/internal/domain/vaccinations"
	"pet-wellness/internal/middleware"
	"pet-wellness/internal/platform/logger"
	"pet-wellness/internal/ports/auth"
	"pet-wellness/internal/ports/files"
	"pet-wellness/internal/ports/notify"
	"pet-wellness/internal/reminder"
	"pet-wellness/internal/reminder/metrics"

	_ "pet-wellness/docs"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	Log logger.Logger

	AuthVerifier auth.AuthVerifier // puede ser nil (modo dev)

	// Opcional: si viene, usa Postgres. Si no, in-memory.
	DB *sql.DB

	Notifier    notify.Notifier
	Attachments files.Store

	// Hora local de la corrida diaria de recordatorios.
	ReminderHour int
}

// NewRouter arma repos, services y rutas. Devuelve además el scheduler
// de recordatorios para que main lo arranque.
func NewRouter(opts Options) (http.Handler, *reminder.Scheduler) {
	log := opts.Log
	if log == nil {
		log = logger.NewNop()
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Use(middleware.AuthContext(opts.AuthVerifier))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler())

	var (
		petRepo   pets.Repository
		userRepo  users.Repository
		vacRepo   vaccinations.Repository
		auditRepo vaccinations.AuditRepository
		slotRepo  appointments.SlotRepository
		apptRepo  appointments.AppointmentRepository
	)

	if opts.DB != nil {
		petRepo = pg.NewPetsRepo(opts.DB)
		userRepo = pg.NewUsersRepo(opts.DB)
		vacRepo = pg.NewVaccinationsRepo(opts.DB)
		auditRepo = pg.NewAuditRepo(opts.DB)
		slotRepo = pg.NewSlotsRepo(opts.DB)
		apptRepo = pg.NewAppointmentsRepo(opts.DB)
	} else {
		petRepo = mem.NewPetRepo()
		userRepo = mem.NewUserRepo()
		vacRepo = mem.NewVaccinationRepo()
		auditRepo = mem.NewAuditRepo()
		slotRepo = mem.NewSlotRepo()
		apptRepo = mem.NewAppointmentRepo()
	}

	// Services por módulo
	petsSvc := pets.NewService(petRepo)
	vacSvc := vaccinations.NewService(vacRepo, auditRepo, petsSvc, log)
	apptSvc := appointments.NewService(slotRepo, apptRepo, petsSvc, log)

	// Rutas por módulo
	users.RegisterRoutes(r, userRepo)
	pets.RegisterRoutes(r, petsSvc)
	vaccinations.RegisterRoutes(r, vacSvc, opts.Attachments)
	appointments.RegisterRoutes(r, apptSvc)

	// Recordatorios: un engine por dominio sobre el mismo notifier.
	m := metrics.New()
	engines := []*reminder.Engine{
		reminder.NewEngine(vaccinations.NewReminderSource(vacSvc, petsSvc, userRepo), opts.Notifier, log, m),
		reminder.NewEngine(appointments.NewReminderSource(apptSvc, petsSvc, userRepo), opts.Notifier, log, m),
	}
	sched := reminder.NewScheduler(opts.ReminderHour, log, engines...)

	r.Post("/admin/reminders/run", runRemindersHandler(sched))

	return r, sched
}

// runRemindersHandler godoc
// @Summary Disparar la corrida de recordatorios (admin)
// @Description Corre ambos engines para la fecha dada (default: hoy).
// @Tags admin
// @Produce json
// @Param date query string false "YYYY-MM-DD"
// @Success 200 {array} reminder.Summary
// @Failure 403 {string} string "forbidden"
// @Router /admin/reminders/run [post]
func runRemindersHandler(sched *reminder.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || !claims.IsAdmin {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		today := time.Now()
		if v := r.URL.Query().Get("date"); v != "" {
			parsed, err := time.Parse("2006-01-02", v)
			if err != nil {
				http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			today = parsed
		}

		summaries := sched.RunAll(r.Context(), today)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(summaries)
	}
}
