package auth

import (
	"net/http"

	"github.com/gorilla/mux"

	"grandpa/infrastructure"
)

type JSONHandler struct {
	authUseCase UseCase
}

func NewJSONAuthHandler(authUseCase UseCase) *JSONHandler {
	return &JSONHandler{
		authUseCase: authUseCase,
	}
}

func (h *JSONHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := infrastructure.DecodeJSON(r, &req); err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}

	tokens, err := h.authUseCase.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}

	infrastructure.WriteJSON(w, http.StatusOK, map[string]string{
		"access":  tokens.AccessToken,
		"refresh": tokens.RefreshToken,
	})
}

func (h *JSONHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := infrastructure.DecodeJSON(r, &req); err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}

	tokens, err := h.authUseCase.RefreshToken(r.Context(), req.Refresh)
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}

	infrastructure.WriteJSON(w, http.StatusOK, map[string]string{"access": tokens.AccessToken})
}

// SetupJSONAuthRoutes registers the token endpoints. They are public.
func SetupJSONAuthRoutes(r *mux.Router, h *JSONHandler) {
	r.HandleFunc("/token/", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/token/refresh/", h.RefreshToken).Methods(http.MethodPost)
}
