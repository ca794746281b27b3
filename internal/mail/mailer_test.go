package mail

import (
	"context"
	"errors"
	"strings"
	"testing"

	"maraude-bknd/internal/config"
)

func TestBuildMessage(t *testing.T) {
	msg := buildMessage(
		"noreply@maraude.org",
		[]string{"coord@asso.org", "admin@asso.org"},
		"Rapport de maraude du 15/01/2026",
		"12 bénéficiaires rencontrés.",
	)

	header, body, found := strings.Cut(msg, "\r\n\r\n")
	if !found {
		t.Fatal("message has no blank line between headers and body")
	}
	for _, want := range []string{
		"From: noreply@maraude.org",
		"To: coord@asso.org, admin@asso.org",
		"Subject: Rapport de maraude du 15/01/2026",
		"Content-Type: text/plain; charset=UTF-8",
	} {
		if !strings.Contains(header, want) {
			t.Errorf("headers missing %q:\n%s", want, header)
		}
	}
	if !strings.Contains(body, "12 bénéficiaires rencontrés.") {
		t.Errorf("body missing content:\n%s", body)
	}
}

func TestSendWithoutHostFails(t *testing.T) {
	s := NewSMTPSender(&config.Config{})
	err := s.Send(context.Background(), []string{"a@b.org"}, "s", "b")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}
