package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"mathclub/internal/activity"
	"mathclub/internal/security"
	"mathclub/internal/service"
)

// StudentReports is the report service as seen by the admin routes
type StudentReports interface {
	ListStudents(ctx context.Context, page service.Page) ([]service.StudentView, error)
	GetStudent(ctx context.Context, studentID int64) (*service.StudentView, error)
	Overview(ctx context.Context) (*activity.Overview, error)
}

// AdminHandler handles admin-specific routes
type AdminHandler struct {
	reports StudentReports
	limiter *security.RateLimiter
	version string
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(reports StudentReports, limiter *security.RateLimiter, version string) *AdminHandler {
	return &AdminHandler{
		reports: reports,
		limiter: limiter,
		version: version,
	}
}

// RegisterRoutes wires the admin and health routes into mux
func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /admin/students", h.limited(h.ListStudents))
	mux.HandleFunc("GET /admin/students/{id}", h.limited(h.GetStudent))
	mux.HandleFunc("GET /admin/overview", h.limited(h.Overview))
	mux.HandleFunc("GET /healthz", h.Healthz)
}

func (h *AdminHandler) limited(next http.HandlerFunc) http.HandlerFunc {
	if h.limiter == nil {
		return next
	}
	return RateLimit(h.limiter, next)
}

// ListStudents returns one page of student views
func (h *AdminHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	skip, err := queryInt(r, "skip")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid skip parameter", "", nil)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid limit parameter", "", nil)
		return
	}

	views, err := h.reports.ListStudents(r.Context(), service.Page{Skip: skip, Limit: limit})
	if err != nil {
		if errors.Is(err, service.ErrInvalidPage) {
			respondWithError(w, http.StatusBadRequest, "skip and limit must not be negative", "", nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to load students", "Error listing students", err)
		return
	}

	if views == nil {
		views = []service.StudentView{}
	}
	writeJSON(w, http.StatusOK, views)
}

// GetStudent returns the view of a single student
func (h *AdminHandler) GetStudent(w http.ResponseWriter, r *http.Request) {
	studentID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || studentID <= 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid student ID", "", nil)
		return
	}

	view, err := h.reports.GetStudent(r.Context(), studentID)
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			respondWithError(w, http.StatusNotFound, "Student not found", "", nil)
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Failed to load student", "Error loading student", err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// Overview returns the dashboard statistics across the whole roster
func (h *AdminHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.reports.Overview(r.Context())
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to build overview", "Error building overview", err)
		return
	}
	writeJSON(w, http.StatusOK, overview)
}

// Healthz reports liveness
func (h *AdminHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.version,
	})
}

// queryInt parses an optional integer query parameter; absent means zero
func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
