package users

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-wellness/internal/middleware"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, repo Repository) {
	r.Route("/me", func(mr chi.Router) {
		mr.Get("/", getMeHandler(repo))
		mr.Put("/", putMeHandler(repo))
	})
}

type profileRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
}

type profileResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	CreatedAt time.Time `json:"created_at"`
}

// getMeHandler godoc
// @Summary Mi perfil
// @Tags users
// @Produce json
// @Success 200 {object} profileResponse
// @Failure 404 {string} string "sin perfil"
// @Router /me [get]
func getMeHandler(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		u, err := repo.GetByID(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				http.Error(w, "profile not found", http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, toProfileResponse(u))
	}
}

// putMeHandler godoc
// @Summary Crear o actualizar mi perfil
// @Description El email del perfil es el destino de los recordatorios.
// @Tags users
// @Accept json
// @Produce json
// @Param payload body profileRequest true "Datos del perfil"
// @Success 200 {object} profileResponse
// @Router /me [put]
func putMeHandler(repo Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetClaims(r.Context())
		if !ok || strings.TrimSpace(claims.UserID) == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req profileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Email) == "" {
			http.Error(w, "email required", http.StatusBadRequest)
			return
		}

		u, err := repo.GetByID(r.Context(), claims.UserID)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			u = User{ID: claims.UserID, CreatedAt: time.Now().UTC()}
		}

		u.Username = strings.TrimSpace(req.Username)
		u.Email = strings.TrimSpace(req.Email)
		u.FirstName = strings.TrimSpace(req.FirstName)

		if err := repo.Save(r.Context(), u); err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, toProfileResponse(u))
	}
}

func toProfileResponse(u User) profileResponse {
	return profileResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		CreatedAt: u.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
