package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mergington/announcements/internal/services"
	"github.com/mergington/announcements/types"
	"go.uber.org/zap"
)

const maxAnnouncementBodyBytes = 64 << 10

// AnnouncementHandler provides HTTP handlers for announcements.
type AnnouncementHandler struct {
	announcements *services.AnnouncementService
	logger        *zap.Logger
}

func NewAnnouncementHandler(announcements *services.AnnouncementService, logger *zap.Logger) *AnnouncementHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementHandler{announcements: announcements, logger: logger}
}

// AnnouncementRouter registers announcement routes on the given router.
// Listing active announcements is public; everything else needs auth.
func AnnouncementRouter(r chi.Router, handler *AnnouncementHandler, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/", handler.ListActive)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/all", handler.ListAll)
		r.Post("/", handler.Create)
		r.Put("/{announcementID}", handler.Update)
		r.Delete("/{announcementID}", handler.Delete)
	})
}

func (h *AnnouncementHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	items, err := h.announcements.ListActive(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(items))
}

func (h *AnnouncementHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	items, err := h.announcements.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(items))
}

func (h *AnnouncementHandler) Create(w http.ResponseWriter, r *http.Request) {
	teacher, ok := teacherFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "Not authenticated")
		return
	}

	var input services.CreateAnnouncementInput
	if !decodeBody(w, r, &input) {
		return
	}

	created, err := h.announcements.Create(r.Context(), teacher, input)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, created)
}

func (h *AnnouncementHandler) Update(w http.ResponseWriter, r *http.Request) {
	teacher, ok := teacherFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "Not authenticated")
		return
	}

	var patch types.AnnouncementPatch
	if !decodeBody(w, r, &patch) {
		return
	}

	updated, err := h.announcements.Update(r.Context(), teacher, chi.URLParam(r, "announcementID"), patch)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *AnnouncementHandler) Delete(w http.ResponseWriter, r *http.Request) {
	teacher, ok := teacherFromContext(r.Context())
	if !ok {
		writeUnauthorized(w, "Not authenticated")
		return
	}

	if err := h.announcements.Delete(r.Context(), teacher, chi.URLParam(r, "announcementID")); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Announcement deleted successfully"})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxAnnouncementBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func nonNil(items []types.Announcement) []types.Announcement {
	if items == nil {
		return []types.Announcement{}
	}
	return items
}
