package journal

import (
	"net/http"

	"github.com/gorilla/mux"

	"grandpa/infrastructure"
	"grandpa/internal/auth"
	"grandpa/internal/files"
)

type JSONHandler struct {
	service *Service
}

func NewJSONHandler(service *Service) *JSONHandler {
	return &JSONHandler{service: service}
}

// ids resolves the caller and the profile id from the route.
func ids(r *http.Request) (userID, profileID uint, err error) {
	if userID, err = auth.GetUserIDFromContext(r.Context()); err != nil {
		return 0, 0, err
	}
	if profileID, err = infrastructure.PathID(r, "id"); err != nil {
		return 0, 0, err
	}
	return userID, profileID, nil
}

func (h *JSONHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	userID, profileID, err := ids(r)
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}

	entry, err := h.service.Get(r.Context(), userID, profileID, r.URL.Query().Get("date"))
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, entry)
}

func (h *JSONHandler) UpsertEntry(w http.ResponseWriter, r *http.Request) {
	userID, profileID, err := ids(r)
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}

	var req UpsertInput
	if err := infrastructure.DecodeJSON(r, &req); err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}

	entry, err := h.service.Upsert(r.Context(), userID, profileID, req)
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusCreated, entry)
}

func (h *JSONHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	userID, profileID, err := ids(r)
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	entryID, err := infrastructure.PathID(r, "eid")
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

	att, err := h.service.Upload(r.Context(), userID, profileID, entryID, fh.Filename, f)
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusCreated, att)
}

func (h *JSONHandler) GenerateSummary(w http.ResponseWriter, r *http.Request) {
	userID, profileID, err := ids(r)
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	entryID, err := infrastructure.PathID(r, "eid")
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}

	var req struct {
		Style string `json:"style"`
	}
	if r.ContentLength != 0 {
		if err := infrastructure.DecodeJSON(r, &req); err != nil {
			infrastructure.WriteError(w, r, err)
			return
		}
	}

	text, err := h.service.Summarize(r.Context(), userID, profileID, entryID, req.Style)
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, map[string]string{"summary": text})
}

func (h *JSONHandler) ListDates(w http.ResponseWriter, r *http.Request) {
	userID, profileID, err := ids(r)
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}

	dates, err := h.service.Dates(r.Context(), userID, profileID, r.URL.Query().Get("limit"))
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, dates)
}

func SetupJSONRoutes(r *mux.Router, h *JSONHandler) {
	s := r.PathPrefix("/profiles/{id:[0-9]+}").Subrouter()
	s.HandleFunc("/entries/", h.GetEntry).Methods(http.MethodGet)
	s.HandleFunc("/entries/", h.UpsertEntry).Methods(http.MethodPost)
	s.HandleFunc("/entries/dates/", h.ListDates).Methods(http.MethodGet)
	s.HandleFunc("/entries/{eid:[0-9]+}/upload/", h.UploadPhoto).Methods(http.MethodPost)
	s.HandleFunc("/entries/{eid:[0-9]+}/summary/", h.GenerateSummary).Methods(http.MethodPost)
}
