package email

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"gopkg.in/gomail.v2"

	"grandpa/config"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	d.sent = append(d.sent, m...)
	return d.err
}

func TestSendWelcomeEmail(t *testing.T) {
	d := &fakeDialer{}
	s := &Sender{dialer: d, from: "noreply@example.com"}

	if err := s.SendWelcomeEmail("alice@example.com", "<alice>"); err != nil {
		t.Fatalf("SendWelcomeEmail: %v", err)
	}
	if len(d.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(d.sent))
	}

	m := d.sent[0]
	if got := m.GetHeader("To"); len(got) != 1 || got[0] != "alice@example.com" {
		t.Errorf("To = %v", got)
	}
	if got := m.GetHeader("From"); len(got) != 1 || got[0] != "noreply@example.com" {
		t.Errorf("From = %v", got)
	}

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if !strings.Contains(buf.String(), "&lt;alice&gt;") {
		t.Errorf("body does not contain escaped username:\n%s", buf.String())
	}
}

func TestSendWelcomeEmailError(t *testing.T) {
	s := &Sender{dialer: &fakeDialer{err: errors.New("smtp down")}, from: "x@example.com"}
	if err := s.SendWelcomeEmail("a@example.com", "a"); err == nil {
		t.Fatal("expected error")
	}
}

func TestProvideNotifier(t *testing.T) {
	if n := ProvideNotifier(&config.Config{}); n != nil {
		t.Errorf("notifier without SMTP = %v, want nil", n)
	}
	if n := ProvideNotifier(&config.Config{SMTPHost: "smtp.example.com", SMTPPort: 587}); n == nil {
		t.Error("notifier with SMTP is nil")
	}
}
