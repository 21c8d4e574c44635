package vaccinations

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-wellness/internal/middleware"
	"pet-wellness/internal/ports/files"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, attachments files.Store) {
	r.Route("/pets/{petID}/vaccinations", func(vr chi.Router) {
		vr.Post("/", addDoseHandler(svc, attachments))
		vr.Get("/", listByPetHandler(svc))
	})

	r.Route("/vaccinations/{id}", func(vr chi.Router) {
		vr.Post("/complete", markCompletedHandler(svc))
		vr.Post("/reschedule", rescheduleHandler(svc))
		vr.Post("/next-dose", chainNextDoseHandler(svc))
		vr.Patch("/doctor", correctDoctorHandler(svc))
		vr.Get("/history", historyHandler(svc))
	})
}

type addDoseRequest struct {
	VaccineName string `json:"vaccine_name"`
	DoctorName  string `json:"doctor_name"`
	GivenDate   string `json:"given_date"`    // YYYY-MM-DD
	NextDueDate string `json:"next_due_date"` // YYYY-MM-DD
}

type recordResponse struct {
	ID    string `json:"id"`
	PetID string `json:"pet_id"`

	VaccineName string `json:"vaccine_name"`
	DoctorName  string `json:"doctor_name"`
	DoseNumber  int    `json:"dose_number"`

	LastGivenDate *string `json:"last_given_date,omitempty"`
	GivenDate     string  `json:"given_date"`
	NextDueDate   string  `json:"next_due_date"`

	Status Status `json:"status"`

	ReminderSent  bool `json:"reminder_sent"`
	ReminderCount int  `json:"reminder_count"`

	AttachmentPath string    `json:"attachment_path,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type auditEntryResponse struct {
	Revision   int64     `json:"revision"`
	Kind       AuditKind `json:"kind"`
	CapturedAt time.Time `json:"captured_at"`

	VaccineName string `json:"vaccine_name"`
	DoctorName  string `json:"doctor_name"`
	DoseNumber  int    `json:"dose_number"`
	GivenDate   string `json:"given_date"`
	NextDueDate string `json:"next_due_date"`
	Completed   bool   `json:"completed"`

	ReminderSent  bool `json:"reminder_sent"`
	ReminderCount int  `json:"reminder_count"`
}

// addDoseHandler godoc
// @Summary Registrar dosis de vacuna
// @Description Crea la dosis 1 de una cadena (pet, vacuna). Acepta JSON o multipart/form-data con un archivo `attachment` opcional (carnet escaneado).
// @Tags vaccinations
// @Accept json,mpfd
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 201 {object} recordResponse
// @Failure 400 {string} string "fechas inválidas"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Failure 409 {string} string "dosis previa sin completar"
// @Router /pets/{petID}/vaccinations [post]
func addDoseHandler(svc *Service, attachments files.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		petID := chi.URLParam(r, "petID")

		var req addDoseRequest
		var attachmentPath string

		ct := r.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "multipart/form-data") {
			if err := r.ParseMultipartForm(10 << 20); err != nil {
				http.Error(w, "invalid multipart form", http.StatusBadRequest)
				return
			}
			req.VaccineName = r.FormValue("vaccine_name")
			req.DoctorName = r.FormValue("doctor_name")
			req.GivenDate = r.FormValue("given_date")
			req.NextDueDate = r.FormValue("next_due_date")

			if file, header, err := r.FormFile("attachment"); err == nil {
				defer file.Close()
				path, err := attachments.Save(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
				if err != nil {
					http.Error(w, "attachment upload failed", http.StatusInternalServerError)
					return
				}
				attachmentPath = path
			}
		} else {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "invalid json", http.StatusBadRequest)
				return
			}
		}

		given, err := parseDate(req.GivenDate)
		if err != nil {
			http.Error(w, "given_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		due, err := parseDate(req.NextDueDate)
		if err != nil {
			http.Error(w, "next_due_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		v, err := svc.AddDose(r.Context(), claims.UserID, AddDoseInput{
			PetID:          petID,
			VaccineName:    req.VaccineName,
			DoctorName:     req.DoctorName,
			GivenDate:      given,
			NextDueDate:    due,
			AttachmentPath: attachmentPath,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toRecordResponse(v, time.Now()))
	}
}

// listByPetHandler godoc
// @Summary Listar vacunaciones de una mascota
// @Tags vaccinations
// @Produce json
// @Param petID path string true "ID de la mascota"
// @Success 200 {array} recordResponse
// @Router /pets/{petID}/vaccinations [get]
func listByPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByPet(r.Context(), claims.UserID, chi.URLParam(r, "petID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		now := time.Now()
		out := make([]recordResponse, 0, len(items))
		for _, v := range items {
			out = append(out, toRecordResponse(v, now))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type markCompletedRequest struct {
	GivenDate string `json:"given_date"` // fecha real de aplicación, YYYY-MM-DD
}

// markCompletedHandler godoc
// @Summary Marcar dosis como aplicada
// @Tags vaccinations
// @Accept json
// @Produce json
// @Param id path string true "ID del registro"
// @Success 200 {object} recordResponse
// @Failure 400 {string} string "fecha futura o anterior a la programada"
// @Failure 409 {string} string "ya completada"
// @Router /vaccinations/{id}/complete [post]
func markCompletedHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req markCompletedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		given, err := parseDate(req.GivenDate)
		if err != nil {
			http.Error(w, "given_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		v, err := svc.MarkCompleted(r.Context(), claims.UserID, chi.URLParam(r, "id"), given)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRecordResponse(v, time.Now()))
	}
}

type rescheduleRequest struct {
	NextDueDate string `json:"next_due_date"` // YYYY-MM-DD
}

// rescheduleHandler godoc
// @Summary Reprogramar vencimiento de una dosis pendiente
// @Tags vaccinations
// @Accept json
// @Produce json
// @Param id path string true "ID del registro"
// @Success 200 {object} recordResponse
// @Failure 409 {string} string "registro completado"
// @Router /vaccinations/{id}/reschedule [post]
func rescheduleHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req rescheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		due, err := parseDate(req.NextDueDate)
		if err != nil {
			http.Error(w, "next_due_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		v, err := svc.Reschedule(r.Context(), claims.UserID, chi.URLParam(r, "id"), due)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRecordResponse(v, time.Now()))
	}
}

type chainNextDoseRequest struct {
	NextDueDate string `json:"next_due_date"` // YYYY-MM-DD
}

// chainNextDoseHandler godoc
// @Summary Encadenar la próxima dosis
// @Description Crea la dosis N+1 a partir de una dosis completada.
// @Tags vaccinations
// @Accept json
// @Produce json
// @Param id path string true "ID de la dosis previa"
// @Success 201 {object} recordResponse
// @Failure 409 {string} string "dosis previa sin completar"
// @Router /vaccinations/{id}/next-dose [post]
func chainNextDoseHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req chainNextDoseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		due, err := parseDate(req.NextDueDate)
		if err != nil {
			http.Error(w, "next_due_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		v, err := svc.ChainNextDose(r.Context(), claims.UserID, chi.URLParam(r, "id"), due)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toRecordResponse(v, time.Now()))
	}
}

type correctDoctorRequest struct {
	DoctorName string `json:"doctor_name"`
}

// correctDoctorHandler godoc
// @Summary Corregir nombre del veterinario
// @Description Única mutación permitida sobre registros completados.
// @Tags vaccinations
// @Accept json
// @Produce json
// @Param id path string true "ID del registro"
// @Success 200 {object} recordResponse
// @Router /vaccinations/{id}/doctor [patch]
func correctDoctorHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req correctDoctorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		v, err := svc.CorrectDoctor(r.Context(), claims.UserID, chi.URLParam(r, "id"), req.DoctorName)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRecordResponse(v, time.Now()))
	}
}

// historyHandler godoc
// @Summary Historial de auditoría de un registro
// @Description Snapshot por cada guardado, revisión más nueva primero.
// @Tags vaccinations
// @Produce json
// @Param id path string true "ID del registro"
// @Success 200 {array} auditEntryResponse
// @Router /vaccinations/{id}/history [get]
func historyHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		entries, err := svc.History(r.Context(), claims.UserID, chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}

		out := make([]auditEntryResponse, 0, len(entries))
		for _, e := range entries {
			out = append(out, auditEntryResponse{
				Revision:      e.Revision,
				Kind:          e.Kind,
				CapturedAt:    e.CapturedAt,
				VaccineName:   e.VaccineName,
				DoctorName:    e.DoctorName,
				DoseNumber:    e.DoseNumber,
				GivenDate:     e.GivenDate.Format("2006-01-02"),
				NextDueDate:   e.NextDueDate.Format("2006-01-02"),
				Completed:     e.Completed,
				ReminderSent:  e.ReminderSent,
				ReminderCount: e.ReminderCount,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func toRecordResponse(v Record, today time.Time) recordResponse {
	resp := recordResponse{
		ID:             v.ID,
		PetID:          v.PetID,
		VaccineName:    v.VaccineName,
		DoctorName:     v.DoctorName,
		DoseNumber:     v.DoseNumber,
		GivenDate:      v.GivenDate.Format("2006-01-02"),
		NextDueDate:    v.NextDueDate.Format("2006-01-02"),
		Status:         CalculateStatus(v, today),
		ReminderSent:   v.ReminderSent,
		ReminderCount:  v.ReminderCount,
		AttachmentPath: v.AttachmentPath,
		CreatedAt:      v.CreatedAt,
	}
	if v.LastGivenDate != nil {
		s := v.LastGivenDate.Format("2006-01-02")
		resp.LastGivenDate = &s
	}
	return resp
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", strings.TrimSpace(s))
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound) || errors.Is(err, ErrPetNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrUnauthorized):
		http.Error(w, err.Error(), http.StatusForbidden)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
