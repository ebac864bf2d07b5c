package user

import (
	"net/http"

	"github.com/gorilla/mux"

	"grandpa/infrastructure"
	"grandpa/internal/auth"
)

type JSONHandler struct {
	userUseCase *AccountUseCase
}

func NewJSONHandler(userUseCase *AccountUseCase) *JSONHandler {
	return &JSONHandler{
		userUseCase: userUseCase,
	}
}

func (h *JSONHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterInput
	if err := infrastructure.DecodeJSON(r, &req); err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}

	user, err := h.userUseCase.Register(r.Context(), req)
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}

	infrastructure.WriteJSON(w, http.StatusCreated, user)
}

func (h *JSONHandler) Search(w http.ResponseWriter, r *http.Request) {
	callerID, err := auth.GetUserIDFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}

	users, err := h.userUseCase.Search(r.Context(), callerID, r.URL.Query().Get("q"))
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}

	infrastructure.WriteJSON(w, http.StatusOK, users)
}

// SetupJSONRoutes registers registration on the public router and search on
// the authenticated one.
func SetupJSONRoutes(public, protected *mux.Router, h *JSONHandler) {
	public.HandleFunc("/register/", h.Register).Methods(http.MethodPost)
	protected.HandleFunc("/users/search/", h.Search).Methods(http.MethodGet)
}
