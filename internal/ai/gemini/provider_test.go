package gemini

import (
	"context"
	"testing"

	"github.com/galiprandi/dimensions/internal/ai"
	"google.golang.org/genai"
)

func TestAvailabilityWithoutClient(t *testing.T) {
	var p *Provider

	availability, err := p.Availability(context.Background(), ai.SessionOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if availability != ai.Unavailable {
		t.Fatalf("expected unavailable, got %s", availability)
	}

	empty := &Provider{}
	availability, err = empty.Availability(context.Background(), ai.SessionOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if availability != ai.Unavailable {
		t.Fatalf("expected unavailable for client-less provider, got %s", availability)
	}
}

func TestCreateWithoutClientFails(t *testing.T) {
	empty := &Provider{}

	if _, err := empty.Create(context.Background(), ai.SessionOptions{}, nil); err != ai.ErrModelUnavailable {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestCollectTextJoinsCandidateParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []*genai.Part{
						{Text: "  first "},
						{Text: ""},
						{Text: "second"},
					},
				},
			},
			nil,
		},
	}

	got := collectText(resp)
	if got != "first\nsecond" {
		t.Fatalf("unexpected collected text: %q", got)
	}

	if collectText(nil) != "" {
		t.Fatalf("expected empty text for nil response")
	}
}

func TestDestroyedSessionRejectsPrompts(t *testing.T) {
	s := &session{provider: &Provider{}}
	s.Destroy()
	s.Destroy() // idempotent

	if _, err := s.Prompt(context.Background(), "hola"); err == nil {
		t.Fatalf("expected error from destroyed session")
	}
}
