package journal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"grandpa/config"
	"grandpa/infrastructure"
	"grandpa/internal/auth"
	"grandpa/internal/database"
	"grandpa/internal/database/dbtest"
	"grandpa/internal/files"
	"grandpa/internal/profile"
	"grandpa/internal/summary"
)

type fixture struct {
	db      *database.Database
	service *Service
	owner   *database.User
	other   *database.User
	profile *profile.Profile
}

func newFixture(t *testing.T, gen summary.Generator) *fixture {
	t.Helper()
	db := dbtest.New(t)
	cfg := &config.Config{MediaRoot: t.TempDir(), MediaURL: "/media/", SummaryTimeout: time.Second}
	attachments := files.NewAttachmentService(db, files.NewLocalStorage(cfg))
	profiles := profile.NewService(profile.NewRepository(db), attachments)

	s := NewService(NewRepository(db), profiles, attachments, summary.NewService(gen, cfg))
	s.now = func() time.Time { return time.Date(2024, 5, 17, 12, 0, 0, 0, time.Local) }

	owner := dbtest.CreateUser(t, db, "alice")
	other := dbtest.CreateUser(t, db, "bob")
	p, err := profiles.Create(context.Background(), owner.ID, profile.CreateProfileInput{Name: "Grandpa"})
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}
	return &fixture{db: db, service: s, owner: owner, other: other, profile: p}
}

func TestGetCreatesTodayOnce(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	first, err := f.service.Get(ctx, f.owner.ID, f.profile.ID, "")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if first.Date != "2024-05-17" || first.Attachments == nil {
		t.Errorf("entry = %+v", first)
	}

	again, err := f.service.Get(ctx, f.owner.ID, f.profile.ID, "2024-05-17")
	if err != nil {
		t.Fatalf("Get again: %v", err)
	}
	if again.ID != first.ID {
		t.Errorf("second Get id = %d, want %d", again.ID, first.ID)
	}

	if _, err := f.service.Get(ctx, f.owner.ID, f.profile.ID, "17/05/2024"); !errors.Is(err, infrastructure.ErrInvalidInput) {
		t.Errorf("bad date err = %v", err)
	}
	if _, err := f.service.Get(ctx, f.other.ID, f.profile.ID, ""); !errors.Is(err, infrastructure.ErrNotFound) {
		t.Errorf("foreign profile err = %v, want not found", err)
	}
}

func TestUpsertOnlyTouchesNoteWhenPresent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	note := "Went fishing."
	e, err := f.service.Upsert(ctx, f.owner.ID, f.profile.ID, UpsertInput{Date: "2024-05-01", Note: &note})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if e.Note != note {
		t.Errorf("note = %q", e.Note)
	}

	e2, err := f.service.Upsert(ctx, f.owner.ID, f.profile.ID, UpsertInput{Date: "2024-05-01"})
	if err != nil {
		t.Fatalf("Upsert without note: %v", err)
	}
	if e2.ID != e.ID || e2.Note != note {
		t.Errorf("entry after empty upsert = %+v", e2)
	}

	empty := ""
	e3, err := f.service.Upsert(ctx, f.owner.ID, f.profile.ID, UpsertInput{Date: "2024-05-01", Note: &empty})
	if err != nil {
		t.Fatalf("Upsert blank note: %v", err)
	}
	if e3.Note != "" {
		t.Errorf("note = %q, want cleared", e3.Note)
	}
}

func TestDates(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	long := strings.Repeat("a", 100)
	for i, day := range []string{"2024-05-01", "2024-05-03", "2024-05-02"} {
		note := fmt.Sprintf("note %d", i)
		if day == "2024-05-03" {
			note = long
		}
		if _, err := f.service.Upsert(ctx, f.owner.ID, f.profile.ID, UpsertInput{Date: day, Note: &note}); err != nil {
			t.Fatalf("Upsert %s: %v", day, err)
		}
	}
	e, _ := f.service.Get(ctx, f.owner.ID, f.profile.ID, "2024-05-03")
	for i := 0; i < 2; i++ {
		if _, err := f.service.Upload(ctx, f.owner.ID, f.profile.ID, e.ID, "p.jpg", strings.NewReader("jpg")); err != nil {
			t.Fatalf("Upload: %v", err)
		}
	}

	dates, err := f.service.Dates(ctx, f.owner.ID, f.profile.ID, "2")
	if err != nil {
		t.Fatalf("Dates: %v", err)
	}
	if len(dates) != 2 || dates[0].Date != "2024-05-03" || dates[1].Date != "2024-05-02" {
		t.Fatalf("dates = %+v", dates)
	}
	if dates[0].AttachmentsCount != 2 || dates[1].AttachmentsCount != 0 {
		t.Errorf("counts = %d, %d", dates[0].AttachmentsCount, dates[1].AttachmentsCount)
	}
	if dates[0].NotePreview != strings.Repeat("a", 80)+"…" {
		t.Errorf("preview = %q", dates[0].NotePreview)
	}

	if _, err := f.service.Dates(ctx, f.owner.ID, f.profile.ID, "zero"); !errors.Is(err, infrastructure.ErrInvalidInput) {
		t.Errorf("bad limit err = %v", err)
	}
}

func TestUploadRequiresOwnEntry(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	e, _ := f.service.Get(ctx, f.owner.ID, f.profile.ID, "")
	other, err := profile.NewService(profile.NewRepository(f.db), nil).Create(ctx, f.other.ID, profile.CreateProfileInput{Name: "Bob"})
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}

	if _, err := f.service.Upload(ctx, f.other.ID, other.ID, e.ID, "x.png", strings.NewReader("x")); !errors.Is(err, infrastructure.ErrNotFound) {
		t.Errorf("entry of another profile err = %v", err)
	}

	att, err := f.service.Upload(ctx, f.owner.ID, f.profile.ID, e.ID, "x.png", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	var stored database.Attachment
	f.db.First(&stored, att.ID)
	if stored.DayEntryID == nil || *stored.DayEntryID != e.ID || stored.OwnerProfileID == nil || *stored.OwnerProfileID != f.profile.ID {
		t.Errorf("stored = %+v", stored)
	}
}

type recordingGenerator struct {
	got  summary.Request
	text string
}

func (g *recordingGenerator) Generate(ctx context.Context, req summary.Request) (string, error) {
	g.got = req
	return g.text, nil
}

func TestSummarize(t *testing.T) {
	gen := &recordingGenerator{text: "I fed the ducks."}
	f := newFixture(t, gen)
	ctx := context.Background()

	note := "Ducks."
	e, _ := f.service.Upsert(ctx, f.owner.ID, f.profile.ID, UpsertInput{Note: &note})
	for i := 0; i < 6; i++ {
		if _, err := f.service.Upload(ctx, f.owner.ID, f.profile.ID, e.ID, "duck.png", strings.NewReader("png")); err != nil {
			t.Fatalf("Upload: %v", err)
		}
	}

	text, err := f.service.Summarize(ctx, f.owner.ID, f.profile.ID, e.ID, "cheerful")
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if text != "I fed the ducks." {
		t.Errorf("text = %q", text)
	}
	if gen.got.PhotoCount != 6 || len(gen.got.Images) != 5 || gen.got.Note != note || gen.got.Style != summary.StyleCheerful {
		t.Errorf("request = note %q, photos %d, images %d, style %q", gen.got.Note, gen.got.PhotoCount, len(gen.got.Images), gen.got.Style)
	}
	if gen.got.Images[0].MimeType != "image/png" || string(gen.got.Images[0].Data) != "png" {
		t.Errorf("image = %+v", gen.got.Images[0])
	}

	stored, _ := f.service.Get(ctx, f.owner.ID, f.profile.ID, "")
	if stored.SummaryText != text {
		t.Errorf("stored summary = %q", stored.SummaryText)
	}

	if _, err := f.service.Summarize(ctx, f.owner.ID, f.profile.ID, e.ID, "angry"); !errors.Is(err, infrastructure.ErrInvalidInput) {
		t.Errorf("bad style err = %v", err)
	}
}

func TestSummaryRouteFallsBackToTemplate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	e, _ := f.service.Get(ctx, f.owner.ID, f.profile.ID, "")

	r := mux.NewRouter()
	SetupJSONRoutes(r, NewJSONHandler(f.service))

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/profiles/%d/entries/%d/summary/", f.profile.ID, e.ID), strings.NewReader(`{}`))
	req = req.WithContext(auth.WithUserID(req.Context(), f.owner.ID))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["summary"] != "Today’s moments: Feeling grateful." {
		t.Errorf("summary = %q", body["summary"])
	}
}

func TestUploadRouteRequiresFile(t *testing.T) {
	f := newFixture(t, nil)
	e, _ := f.service.Get(context.Background(), f.owner.ID, f.profile.ID, "")

	r := mux.NewRouter()
	SetupJSONRoutes(r, NewJSONHandler(f.service))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("caption", "no file")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/profiles/%d/entries/%d/upload/", f.profile.ID, e.ID), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = req.WithContext(auth.WithUserID(req.Context(), f.owner.ID))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "file required") {
		t.Errorf("status = %d, body = %s", rec.Code, rec.Body)
	}
}
