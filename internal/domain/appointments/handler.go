package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-wellness/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/slots", func(sr chi.Router) {
		sr.Post("/", createSlotHandler(svc))
		sr.Get("/", listSlotsHandler(svc))
		sr.Get("/available", listAvailableSlotsHandler(svc))
		sr.Get("/{id}", getSlotHandler(svc))
		sr.Put("/{id}", updateSlotHandler(svc))
		sr.Delete("/{id}", deleteSlotHandler(svc))
	})

	r.Route("/appointments", func(ar chi.Router) {
		ar.Post("/", bookHandler(svc))
		ar.Get("/", myAppointmentsHandler(svc))
		ar.Get("/{id}", getAppointmentHandler(svc))
		ar.Post("/{id}/cancel", cancelHandler(svc))
	})
}

type slotRequest struct {
	Date             string `json:"date"`       // YYYY-MM-DD
	StartTime        string `json:"start_time"` // HH:MM
	DurationMinutes  int    `json:"duration_minutes"`
	ConsultationType string `json:"consultation_type" enums:"ONLINE,IN_CLINIC"`
	VeterinarianName string `json:"veterinarian_name"`
}

type slotResponse struct {
	ID               string     `json:"id"`
	Date             string     `json:"date"`
	StartTime        string     `json:"start_time"`
	DurationMinutes  int        `json:"duration_minutes"`
	ConsultationType string     `json:"consultation_type"`
	VeterinarianName string     `json:"veterinarian_name"`
	Status           SlotStatus `json:"status"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

type bookRequest struct {
	SlotID string `json:"slot_id"`
	PetID  string `json:"pet_id"`
	Notes  string `json:"notes"`
}

type appointmentResponse struct {
	ID     string `json:"id"`
	UserID string `json:"user_id"`
	PetID  string `json:"pet_id"`
	SlotID string `json:"slot_id"`

	Date             string `json:"date"`
	StartTime        string `json:"start_time"`
	ConsultationType string `json:"consultation_type"`
	VeterinarianName string `json:"veterinarian_name"`

	Status AppointmentStatus `json:"status"`
	Past   bool              `json:"past"`
	Notes  string            `json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// createSlotHandler godoc
// @Summary Publicar turno (admin)
// @Tags slots
// @Accept json
// @Produce json
// @Param payload body slotRequest true "Datos del turno"
// @Success 201 {object} slotResponse
// @Failure 403 {string} string "forbidden"
// @Router /slots [post]
func createSlotHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || !claims.IsAdmin {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req slotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		sl, err := svc.CreateSlot(r.Context(), CreateSlotInput{
			Date:             date,
			StartTime:        req.StartTime,
			DurationMinutes:  req.DurationMinutes,
			ConsultationType: ConsultationType(req.ConsultationType),
			VeterinarianName: req.VeterinarianName,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toSlotResponse(sl))
	}
}

// listSlotsHandler godoc
// @Summary Listar todos los turnos
// @Tags slots
// @Produce json
// @Success 200 {array} slotResponse
// @Router /slots [get]
func listSlotsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListSlots(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, toSlotResponses(items))
	}
}

// listAvailableSlotsHandler godoc
// @Summary Listar turnos disponibles
// @Tags slots
// @Produce json
// @Success 200 {array} slotResponse
// @Router /slots/available [get]
func listAvailableSlotsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := svc.ListAvailableSlots(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, toSlotResponses(items))
	}
}

// getSlotHandler godoc
// @Summary Detalle de un turno
// @Tags slots
// @Produce json
// @Param id path string true "ID del turno"
// @Success 200 {object} slotResponse
// @Failure 404 {string} string "slot not found"
// @Router /slots/{id} [get]
func getSlotHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sl, err := svc.GetSlot(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSlotResponse(sl))
	}
}

// updateSlotHandler godoc
// @Summary Editar turno (admin)
// @Tags slots
// @Accept json
// @Produce json
// @Param id path string true "ID del turno"
// @Success 200 {object} slotResponse
// @Router /slots/{id} [put]
func updateSlotHandler(svc *Service) http.HandlerFunc {
	type updateSlotRequest struct {
		Date             *string `json:"date"`
		StartTime        *string `json:"start_time"`
		DurationMinutes  *int    `json:"duration_minutes"`
		ConsultationType *string `json:"consultation_type"`
		VeterinarianName *string `json:"veterinarian_name"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || !claims.IsAdmin {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var req updateSlotRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := UpdateSlotInput{
			StartTime:        req.StartTime,
			DurationMinutes:  req.DurationMinutes,
			VeterinarianName: req.VeterinarianName,
		}
		if req.Date != nil {
			d, err := time.Parse("2006-01-02", *req.Date)
			if err != nil {
				http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			in.Date = &d
		}
		if req.ConsultationType != nil {
			ct := ConsultationType(*req.ConsultationType)
			in.ConsultationType = &ct
		}

		sl, err := svc.UpdateSlot(r.Context(), chi.URLParam(r, "id"), in)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSlotResponse(sl))
	}
}

// deleteSlotHandler godoc
// @Summary Eliminar turno (admin)
// @Description Falla con 409 mientras el turno esté reservado.
// @Tags slots
// @Param id path string true "ID del turno"
// @Success 204 {string} string ""
// @Failure 409 {string} string "slot reservado"
// @Router /slots/{id} [delete]
func deleteSlotHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || !claims.IsAdmin {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		if err := svc.DeleteSlot(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// bookHandler godoc
// @Summary Reservar una cita
// @Tags appointments
// @Accept json
// @Produce json
// @Param payload body bookRequest true "Slot y mascota"
// @Success 201 {object} appointmentResponse
// @Failure 409 {string} string "slot no disponible"
// @Router /appointments [post]
func bookHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req bookRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		a, err := svc.Book(r.Context(), claims.UserID, BookInput{
			SlotID: req.SlotID,
			PetID:  req.PetID,
			Notes:  req.Notes,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toAppointmentResponse(a, time.Now()))
	}
}

// myAppointmentsHandler godoc
// @Summary Mis citas
// @Description Con ?all=true un admin ve las citas de todos los usuarios.
// @Tags appointments
// @Produce json
// @Param all query bool false "Listar todas (solo admin)"
// @Success 200 {array} appointmentResponse
// @Router /appointments [get]
func myAppointmentsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var (
			items []Appointment
			err   error
		)
		if r.URL.Query().Get("all") == "true" && claims.IsAdmin {
			items, err = svc.ListAll(r.Context())
		} else {
			items, err = svc.MyAppointments(r.Context(), claims.UserID)
		}
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		now := time.Now()
		out := make([]appointmentResponse, 0, len(items))
		for _, a := range items {
			out = append(out, toAppointmentResponse(a, now))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getAppointmentHandler godoc
// @Summary Detalle de una cita
// @Tags appointments
// @Produce json
// @Param id path string true "ID de la cita"
// @Success 200 {object} appointmentResponse
// @Failure 403 {string} string "forbidden"
// @Router /appointments/{id} [get]
func getAppointmentHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		a, err := svc.GetByID(r.Context(), chi.URLParam(r, "id"), claims.UserID, claims.IsAdmin)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAppointmentResponse(a, time.Now()))
	}
}

// cancelHandler godoc
// @Summary Cancelar una cita
// @Description La cita pasa a CANCELLED y su turno vuelve a AVAILABLE.
// @Tags appointments
// @Param id path string true "ID de la cita"
// @Success 204 {string} string ""
// @Failure 409 {string} string "cita no SCHEDULED"
// @Router /appointments/{id}/cancel [post]
func cancelHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.Cancel(r.Context(), chi.URLParam(r, "id"), claims.UserID, claims.IsAdmin); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func toSlotResponse(s Slot) slotResponse {
	return slotResponse{
		ID:               s.ID,
		Date:             s.Date.Format("2006-01-02"),
		StartTime:        s.StartTime,
		DurationMinutes:  s.DurationMinutes,
		ConsultationType: string(s.ConsultationType),
		VeterinarianName: s.VeterinarianName,
		Status:           s.Status,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

func toSlotResponses(items []Slot) []slotResponse {
	out := make([]slotResponse, 0, len(items))
	for _, s := range items {
		out = append(out, toSlotResponse(s))
	}
	return out
}

func toAppointmentResponse(a Appointment, today time.Time) appointmentResponse {
	return appointmentResponse{
		ID:               a.ID,
		UserID:           a.UserID,
		PetID:            a.PetID,
		SlotID:           a.SlotID,
		Date:             a.Date.Format("2006-01-02"),
		StartTime:        a.StartTime,
		ConsultationType: string(a.ConsultationType),
		VeterinarianName: a.VeterinarianName,
		Status:           a.Status,
		Past:             IsPast(a, today),
		Notes:            a.Notes,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound) || errors.Is(err, ErrSlotNotFound) || errors.Is(err, ErrPetNotFound):
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
