package files

import (
	"io/fs"
	"net/http"

	"github.com/gorilla/mux"

	"grandpa/infrastructure"
	"grandpa/internal/auth"
)

type JSONHandler struct {
	service *AttachmentService
}

func NewJSONHandler(service *AttachmentService) *JSONHandler {
	return &JSONHandler{service: service}
}

// UploadAttachment stores a chat image for the caller to reference from a
// message.
func (h *JSONHandler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.GetUserIDFromContext(r.Context())
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}

	f, fh, err := FormFile(w, r)
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	defer f.Close()

	att, err := h.service.Upload(r.Context(), AttachmentOwner{UploaderID: userID}, fh.Filename, f)
	if err != nil {
		infrastructure.WriteError(w, r, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusCreated, NewAttachment(att))
}

func SetupJSONRoutes(r *mux.Router, h *JSONHandler) {
	r.HandleFunc("/attachments/", h.UploadAttachment).Methods(http.MethodPost)
}

// MediaHandler serves stored files. Directories answer 404 so upload
// keys cannot be enumerated.
func MediaHandler(storage *LocalStorage, prefix string) http.Handler {
	return http.StripPrefix(prefix, http.FileServer(filesOnly{http.Dir(storage.Root())}))
}

type filesOnly struct {
	http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.FileSystem.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, fs.ErrNotExist
	}
	return file, nil
}
