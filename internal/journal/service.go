// Package journal keeps one entry per profile and calendar day, with its
// note, photos and generated summary.
package journal

import (
	"context"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strconv"
	"time"
	"unicode/utf8"

	"grandpa/infrastructure"
	"grandpa/internal/database"
	"grandpa/internal/files"
	"grandpa/internal/profile"
	"grandpa/internal/summary"
)

const (
	dateLayout    = "2006-01-02"
	defaultLimit  = 30
	maxLimit      = 366
	previewLength = 80
	maxImageBytes = 8 << 20
	summaryImages = 5
)

type Entry struct {
	ID          uint                `json:"id"`
	Date        string              `json:"date"`
	Note        string              `json:"note"`
	SummaryText string              `json:"summary_text"`
	Attachments []*files.Attachment `json:"attachments"`
	CreatedAt   string              `json:"created_at"`
	UpdatedAt   string              `json:"updated_at"`
}

func newEntry(e *database.DayEntry) *Entry {
	out := &Entry{
		ID:          e.ID,
		Date:        e.Day,
		Note:        e.Note,
		SummaryText: e.SummaryText,
		Attachments: make([]*files.Attachment, len(e.Attachments)),
		CreatedAt:   e.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:   e.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	for i := range e.Attachments {
		out.Attachments[i] = files.NewAttachment(&e.Attachments[i])
	}
	return out
}

type EntryDate struct {
	EntryID          uint   `json:"entry_id"`
	Date             string `json:"date"`
	AttachmentsCount int    `json:"attachments_count"`
	NotePreview      string `json:"note_preview"`
}

// UpsertInput leaves the note untouched when Note is nil.
type UpsertInput struct {
	Date string  `json:"date"`
	Note *string `json:"note"`
}

type Service struct {
	repo     *Repository
	profiles *profile.Service
	files    *files.AttachmentService
	summary  *summary.Service
	now      func() time.Time
}

func NewService(repo *Repository, profiles *profile.Service, files *files.AttachmentService, summary *summary.Service) *Service {
	return &Service{repo: repo, profiles: profiles, files: files, summary: summary, now: time.Now}
}

// parseDay turns an optional ISO date into the stored day key. Empty means
// today in server local time.
func (s *Service) parseDay(value string) (string, error) {
	if value == "" {
		return s.now().Format(dateLayout), nil
	}
	d, err := time.Parse(dateLayout, value)
	if err != nil {
		return "", infrastructure.NewValidationError("date", "Date has wrong format. Use one of these formats instead: YYYY-MM-DD.")
	}
	return d.Format(dateLayout), nil
}

func (s *Service) Get(ctx context.Context, ownerID, profileID uint, date string) (*Entry, error) {
	p, err := s.profiles.Owned(ctx, ownerID, profileID)
	if err != nil {
		return nil, err
	}
	day, err := s.parseDay(date)
	if err != nil {
		return nil, err
	}
	entry, err := s.repo.GetOrCreate(ctx, p.ID, day)
	if err != nil {
		return nil, err
	}
	return newEntry(entry), nil
}

func (s *Service) Upsert(ctx context.Context, ownerID, profileID uint, input UpsertInput) (*Entry, error) {
	p, err := s.profiles.Owned(ctx, ownerID, profileID)
	if err != nil {
		return nil, err
	}
	day, err := s.parseDay(input.Date)
	if err != nil {
		return nil, err
	}
	entry, err := s.repo.GetOrCreate(ctx, p.ID, day)
	if err != nil {
		return nil, err
	}
	if input.Note != nil {
		if err := s.repo.UpdateNote(ctx, entry, *input.Note); err != nil {
			return nil, err
		}
		entry.Note = *input.Note
	}
	return newEntry(entry), nil
}

func (s *Service) Upload(ctx context.Context, ownerID, profileID, entryID uint, filename string, src io.Reader) (*files.Attachment, error) {
	p, err := s.profiles.Owned(ctx, ownerID, profileID)
	if err != nil {
		return nil, err
	}
	entry, err := s.repo.Get(ctx, p.ID, entryID)
	if err != nil {
		return nil, err
	}

	att, err := s.files.Upload(ctx, files.AttachmentOwner{
		UploaderID:     ownerID,
		OwnerProfileID: p.ID,
		DayEntryID:     entry.ID,
	}, filename, src)
	if err != nil {
		return nil, err
	}
	return files.NewAttachment(att), nil
}

// Summarize writes the entry's summary in the given style and stores it.
func (s *Service) Summarize(ctx context.Context, ownerID, profileID, entryID uint, style string) (string, error) {
	st, err := summary.ParseStyle(style)
	if err != nil {
		return "", err
	}
	p, err := s.profiles.Owned(ctx, ownerID, profileID)
	if err != nil {
		return "", err
	}
	entry, err := s.repo.Get(ctx, p.ID, entryID)
	if err != nil {
		return "", err
	}

	text := s.summary.Summarize(ctx, summary.Request{
		Note:       entry.Note,
		PhotoCount: len(entry.Attachments),
		Images:     s.loadImages(ctx, entry.Attachments),
		Style:      st,
	})
	if err := s.repo.UpdateSummary(ctx, entry, text); err != nil {
		return "", err
	}
	return text, nil
}

func (s *Service) loadImages(ctx context.Context, attachments []database.Attachment) []summary.Image {
	var images []summary.Image
	for i := range attachments {
		if len(images) == summaryImages {
			break
		}
		data, err := s.files.ReadFile(ctx, &attachments[i], maxImageBytes)
		if err != nil {
			slog.WarnContext(ctx, "skipping unreadable attachment", "attachment_id", attachments[i].ID, "err", err)
			continue
		}
		mimeType := mime.TypeByExtension(path.Ext(attachments[i].StorageKey))
		if mimeType == "" {
			mimeType = http.DetectContentType(data)
		}
		images = append(images, summary.Image{MimeType: mimeType, Data: data})
	}
	return images
}

// Dates lists the most recent entries of a profile. limit is the raw query
// value; empty means 30.
func (s *Service) Dates(ctx context.Context, ownerID, profileID uint, limit string) ([]*EntryDate, error) {
	n := defaultLimit
	if limit != "" {
		v, err := strconv.Atoi(limit)
		if err != nil || v < 1 {
			return nil, infrastructure.NewValidationError("limit", "A valid positive integer is required.")
		}
		n = min(v, maxLimit)
	}

	p, err := s.profiles.Owned(ctx, ownerID, profileID)
	if err != nil {
		return nil, err
	}
	entries, counts, err := s.repo.Recent(ctx, p.ID, n)
	if err != nil {
		return nil, err
	}

	out := make([]*EntryDate, len(entries))
	for i, e := range entries {
		out[i] = &EntryDate{
			EntryID:          e.ID,
			Date:             e.Day,
			AttachmentsCount: counts[e.ID],
			NotePreview:      preview(e.Note),
		}
	}
	return out, nil
}

func preview(note string) string {
	if utf8.RuneCountInString(note) <= previewLength {
		return note
	}
	return string([]rune(note)[:previewLength]) + "…"
}
