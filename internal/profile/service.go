// Package profile manages the named profiles under one account. Each
// account has at most one default profile.
package profile

import (
	"context"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"grandpa/infrastructure"
	"grandpa/internal/database"
	"grandpa/internal/files"
)

const maxNameLength = 40

type Profile struct {
	ID        uint    `json:"id"`
	Name      string  `json:"name"`
	AvatarURL *string `json:"avatar_url"`
	IsDefault bool    `json:"is_default"`
	CreatedAt string  `json:"created_at"`
}

func newProfile(p *database.Profile) *Profile {
	out := &Profile{
		ID:        p.ID,
		Name:      p.Name,
		IsDefault: p.IsDefault,
		CreatedAt: p.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if p.AvatarURL != "" {
		url := p.AvatarURL
		out.AvatarURL = &url
	}
	return out
}

type CreateProfileInput struct {
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
	Pin       string `json:"pin"`
}

type Service struct {
	repo  *Repository
	files *files.AttachmentService
}

func NewService(repo *Repository, files *files.AttachmentService) *Service {
	return &Service{repo: repo, files: files}
}

func (s *Service) List(ctx context.Context, ownerID uint) ([]*Profile, error) {
	profiles, err := s.repo.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	out := make([]*Profile, len(profiles))
	for i := range profiles {
		out[i] = newProfile(&profiles[i])
	}
	return out, nil
}

func (s *Service) Create(ctx context.Context, ownerID uint, input CreateProfileInput) (*Profile, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, infrastructure.NewValidationError("name", "name required")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return nil, infrastructure.NewValidationError("name", "Ensure this field has no more than 40 characters.")
	}
	if utf8.RuneCountInString(input.Pin) > 4 {
		return nil, infrastructure.NewValidationError("pin", "Ensure this field has no more than 4 characters.")
	}

	p := &database.Profile{
		OwnerID:   ownerID,
		Name:      name,
		Pin:       input.Pin,
		IsDefault: input.IsDefault,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return newProfile(p), nil
}

// Owned returns the caller's profile. Profiles of other accounts are
// reported as missing.
func (s *Service) Owned(ctx context.Context, ownerID, profileID uint) (*database.Profile, error) {
	return s.repo.GetOwned(ctx, ownerID, profileID)
}

func (s *Service) UploadAvatar(ctx context.Context, ownerID, profileID uint, filename string, src io.Reader) (*Profile, error) {
	p, err := s.repo.GetOwned(ctx, ownerID, profileID)
	if err != nil {
		return nil, err
	}

	url, err := s.files.SaveFile(ctx, files.DirAvatars, filename, src)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateAvatar(ctx, p, url); err != nil {
		return nil, err
	}
	p.AvatarURL = url
	return newProfile(p), nil
}
