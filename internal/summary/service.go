package summary

import (
	"context"
	"log/slog"
	"time"

	"grandpa/config"
)

type Image struct {
	MimeType string
	Data     []byte
}

type Request struct {
	Note       string
	PhotoCount int
	Images     []Image
	Style      Style
}

type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Service never fails: any generator problem falls back to Template.
type Service struct {
	generator Generator
	timeout   time.Duration
}

func NewService(generator Generator, cfg *config.Config) *Service {
	return &Service{generator: generator, timeout: cfg.SummaryTimeout}
}

func (s *Service) Summarize(ctx context.Context, req Request) string {
	if s.generator == nil {
		return Template(req)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	text, err := s.generator.Generate(ctx, req)
	if err != nil || text == "" {
		slog.WarnContext(ctx, "summary generator failed, using template", "style", req.Style, "err", err)
		return Template(req)
	}
	return text
}
