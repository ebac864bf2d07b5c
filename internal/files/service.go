package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"grandpa/infrastructure"
	"grandpa/internal/database"
)

const maxUploadSize = 32 << 20

var ErrFileRequired = infrastructure.NewValidationError("file", "file required")

// FormFile returns the "file" part of a multipart request.
func FormFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, infrastructure.NewValidationError("file", "file too large")
		}
		return nil, nil, ErrFileRequired
	}
	f, fh, err := r.FormFile("file")
	if err != nil {
		return nil, nil, ErrFileRequired
	}
	return f, fh, nil
}

// AttachmentOwner says who an attachment belongs to. Zero fields are left
// unset.
type AttachmentOwner struct {
	UploaderID     uint
	OwnerProfileID uint
	DayEntryID     uint
}

type Attachment struct {
	ID        uint   `json:"id"`
	URL       string `json:"url"`
	CreatedAt string `json:"created_at"`
}

func NewAttachment(a *database.Attachment) *Attachment {
	return &Attachment{
		ID:        a.ID,
		URL:       a.URL,
		CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

type AttachmentService struct {
	db      *database.Database
	storage Storage
}

func NewAttachmentService(db *database.Database, storage Storage) *AttachmentService {
	return &AttachmentService{db: db, storage: storage}
}

// Upload stores the file and records an attachment row for it. The stored
// file is removed again if the row cannot be written.
func (s *AttachmentService) Upload(ctx context.Context, owner AttachmentOwner, filename string, src io.Reader) (*database.Attachment, error) {
	key, url, err := s.storage.Save(ctx, DirAttachments, filename, src)
	if err != nil {
		return nil, err
	}

	att := &database.Attachment{StorageKey: key, URL: url}
	if owner.UploaderID != 0 {
		att.UploaderID = &owner.UploaderID
	}
	if owner.OwnerProfileID != 0 {
		att.OwnerProfileID = &owner.OwnerProfileID
	}
	if owner.DayEntryID != 0 {
		att.DayEntryID = &owner.DayEntryID
	}

	err = infrastructure.TimeOperation(ctx, "files.CreateAttachment", func() error {
		return s.db.WithContext(ctx).Create(att).Error
	})
	if err != nil {
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			slog.WarnContext(ctx, "failed to remove orphaned upload", "key", key, "err", delErr)
		}
		return nil, fmt.Errorf("failed to create attachment: %w", err)
	}
	return att, nil
}

// ReadFile returns the stored bytes behind an attachment, capped at limit.
func (s *AttachmentService) ReadFile(ctx context.Context, a *database.Attachment, limit int64) ([]byte, error) {
	rc, err := s.storage.Open(ctx, a.StorageKey)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, limit))
}

// SaveFile stores a file without an attachment row and returns its URL.
func (s *AttachmentService) SaveFile(ctx context.Context, dir, filename string, src io.Reader) (string, error) {
	_, url, err := s.storage.Save(ctx, dir, filename, src)
	return url, err
}
