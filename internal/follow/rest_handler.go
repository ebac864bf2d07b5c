package follow

import (
	"net/http"

	"github.com/gorilla/mux"

	"grandpa/infrastructure"
	"grandpa/internal/auth"
)

type JSONHandler struct {
	useCase *UseCase
}

func NewJSONHandler(useCase *UseCase) *JSONHandler {
	return &JSONHandler{useCase: useCase}
}

func (h *JSONHandler) Follow(w http.ResponseWriter, r *http.Request) {
	callerID, err := auth.GetUserIDFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}

	var req struct {
		UserID uint `json:"user_id"`
	}
	if err := infrastructure.DecodeJSON(r, &req); err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}

	created, err := h.useCase.Follow(r.Context(), callerID, req.UserID)
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	infrastructure.WriteJSON(w, status, map[string]any{"user_id": req.UserID, "following": true})
}

func (h *JSONHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	callerID, err := auth.GetUserIDFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	targetID, err := infrastructure.PathID(r, "id")
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}

	if err := h.useCase.Unfollow(r.Context(), callerID, targetID); err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func SetupJSONRoutes(r *mux.Router, h *JSONHandler) {
	r.HandleFunc("/users/follow/", h.Follow).Methods(http.MethodPost)
	r.HandleFunc("/users/follow/{id:[0-9]+}/", h.Unfollow).Methods(http.MethodDelete)
}
