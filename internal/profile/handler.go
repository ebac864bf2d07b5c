package profile

import (
	"net/http"

	"github.com/gorilla/mux"

	"grandpa/infrastructure"
	"grandpa/internal/auth"
	"grandpa/internal/files"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserIDFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}

	profiles, err := h.service.List(r.Context(), userID)
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, profiles)
}

func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserIDFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}

	var req CreateProfileInput
	if err := infrastructure.DecodeJSON(r, &req); err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}

	p, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserIDFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	profileID, err := infrastructure.PathID(r, "id")
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}

	f, fh, err := files.FormFile(w, r)
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	defer f.Close()

	p, err := h.service.UploadAvatar(r.Context(), userID, profileID, fh.Filename, f)
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, p)
}

func SetupJSONRoutes(r *mux.Router, h *Handler) {
	r.HandleFunc("/profiles/", h.ListProfiles).Methods(http.MethodGet)
	r.HandleFunc("/profiles/", h.CreateProfile).Methods(http.MethodPost)
	r.HandleFunc("/profiles/{id:[0-9]+}/avatar/", h.UploadAvatar).Methods(http.MethodPost)
}
