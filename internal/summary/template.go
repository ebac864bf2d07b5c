// Package summary writes the short story for a journal day, either through
// a chat-completion model or from a fixed template.
package summary

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"grandpa/infrastructure"
)

type Style string

const (
	StyleShort     Style = "short"
	StyleCheerful  Style = "cheerful"
	StyleNostalgic Style = "nostalgic"
)

const noteLimit = 220

var styles = map[Style]struct {
	opener  string
	closing string
	prompt  string
}{
	StyleShort: {
		opener:  "Today’s moments:",
		closing: "Feeling grateful.",
		prompt:  "Write a brief, simple 1–2 sentence summary",
	},
	StyleCheerful: {
		opener:  "What a lovely day!",
		closing: "Hope this brings a smile 😊",
		prompt:  "Write an upbeat, happy 2–3 sentence summary with positive energy and enthusiasm",
	},
	StyleNostalgic: {
		opener:  "Another day to remember.",
		closing: "Thinking of the good old times.",
		prompt:  "Write a warm, reflective 2–3 sentence summary that captures memories and sentiment",
	},
}

// ParseStyle accepts the known styles. An empty value means StyleShort.
func ParseStyle(s string) (Style, error) {
	if s == "" {
		return StyleShort, nil
	}
	style := Style(s)
	if _, ok := styles[style]; !ok {
		return "", infrastructure.NewValidationError("style", fmt.Sprintf("%q is not a valid choice.", s))
	}
	return style, nil
}

// Template builds the summary without any model.
func Template(req Request) string {
	st, ok := styles[req.Style]
	if !ok {
		st = styles[StyleShort]
	}

	parts := []string{st.opener}
	if n := req.PhotoCount; n > 0 {
		noun := "photos"
		if n == 1 {
			noun = "photo"
		}
		parts = append(parts, fmt.Sprintf("I snapped %d %s.", n, noun))
	}
	if note := strings.TrimSpace(req.Note); note != "" {
		parts = append(parts, truncate(note, noteLimit))
	}
	parts = append(parts, st.closing)
	return strings.Join(parts, " ")
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "…"
}
