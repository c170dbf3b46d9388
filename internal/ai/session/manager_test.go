package session

import (
	"context"
	"errors"
	"testing"

	"github.com/galiprandi/dimensions/internal/ai"

	"go.uber.org/zap"
)

type stubSession struct {
	id        string
	destroyed int
}

func (s *stubSession) Prompt(_ context.Context, _ string) (string, error) { return "", nil }

func (s *stubSession) Destroy() { s.destroyed++ }

type stubProvider struct {
	availability ai.Availability
	availErr     error
	createErr    error
	created      []*stubSession
	progress     []float64
}

func (p *stubProvider) Availability(_ context.Context, _ ai.SessionOptions) (ai.Availability, error) {
	return p.availability, p.availErr
}

func (p *stubProvider) Create(_ context.Context, _ ai.SessionOptions, onProgress func(float64)) (ai.Session, error) {
	if p.createErr != nil {
		return nil, p.createErr
	}
	for _, progress := range p.progress {
		if onProgress != nil {
			onProgress(progress)
		}
	}
	s := &stubSession{}
	p.created = append(p.created, s)
	return s, nil
}

func TestCheckFailsSoft(t *testing.T) {
	m := NewManager(nil, ai.SessionOptions{}, zap.NewNop())
	if got := m.Check(context.Background()); got != ai.Unavailable {
		t.Fatalf("expected unavailable without provider, got %s", got)
	}

	failing := &stubProvider{availErr: errors.New("boom")}
	m = NewManager(failing, ai.SessionOptions{}, zap.NewNop())
	if got := m.Check(context.Background()); got != ai.Unavailable {
		t.Fatalf("expected unavailable on failing check, got %s", got)
	}
}

func TestAcquireReusesSessionForSameInterview(t *testing.T) {
	provider := &stubProvider{availability: ai.Available}
	m := NewManager(provider, ai.SessionOptions{}, zap.NewNop())

	first, err := m.Acquire(context.Background(), "INT-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := m.Acquire(context.Background(), "INT-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first != second {
		t.Fatalf("expected the same session handle to be reused")
	}
	if len(provider.created) != 1 {
		t.Fatalf("expected a single creation call, got %d", len(provider.created))
	}
}

func TestAcquireTearsDownSessionOnInterviewSwitch(t *testing.T) {
	provider := &stubProvider{availability: ai.Available}
	m := NewManager(provider, ai.SessionOptions{}, zap.NewNop())

	first, err := m.Acquire(context.Background(), "INT-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, err := m.Acquire(context.Background(), "INT-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first == second {
		t.Fatalf("expected a fresh session for the new interview")
	}
	if provider.created[0].destroyed != 1 {
		t.Fatalf("expected previous session to be destroyed exactly once, got %d", provider.created[0].destroyed)
	}
}

func TestAcquireRechecksAvailability(t *testing.T) {
	provider := &stubProvider{availability: ai.Unavailable}
	m := NewManager(provider, ai.SessionOptions{}, zap.NewNop())

	if _, err := m.Acquire(context.Background(), "INT-1"); !errors.Is(err, ai.ErrModelUnavailable) {
		t.Fatalf("expected ErrModelUnavailable, got %v", err)
	}
}

func TestAcquireWithoutProvider(t *testing.T) {
	m := NewManager(nil, ai.SessionOptions{}, zap.NewNop())

	if _, err := m.Acquire(context.Background(), "INT-1"); !errors.Is(err, ai.ErrCapabilityUnavailable) {
		t.Fatalf("expected ErrCapabilityUnavailable, got %v", err)
	}
}

func TestDownloadProgressIsSurfacedAndCleared(t *testing.T) {
	provider := &stubProvider{availability: ai.Downloadable, progress: []float64{0.25, 0.5, 1.2}}
	m := NewManager(provider, ai.SessionOptions{}, zap.NewNop())

	if _, err := m.Acquire(context.Background(), "INT-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Download finished together with creation, progress is no longer active.
	if _, active := m.Progress(); active {
		t.Fatalf("expected no active download after session creation")
	}
}

func TestCreateFailureClearsDownloadState(t *testing.T) {
	provider := &stubProvider{availability: ai.Downloadable, createErr: errors.New("aborted")}
	m := NewManager(provider, ai.SessionOptions{}, zap.NewNop())

	if _, err := m.Acquire(context.Background(), "INT-1"); err == nil {
		t.Fatalf("expected creation error")
	}

	if _, active := m.Progress(); active {
		t.Fatalf("expected download state cleared after failure")
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	provider := &stubProvider{availability: ai.Available}
	m := NewManager(provider, ai.SessionOptions{}, zap.NewNop())

	if _, err := m.Acquire(context.Background(), "INT-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m.Release("INT-1")
	m.Release("INT-1")
	m.Release("INT-2")

	if provider.created[0].destroyed != 1 {
		t.Fatalf("expected exactly one destroy, got %d", provider.created[0].destroyed)
	}
}
