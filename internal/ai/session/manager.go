// Package session brokers exclusive access to model sessions: at most one
// live session per interview id, reused across calls for the same interview
// and torn down before a different interview gets one. A session carries
// conversation history, so it must never leak between candidates.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/galiprandi/dimensions/internal/ai"

	"go.uber.org/zap"
)

// Manager owns the single outstanding model session.
type Manager struct {
	provider ai.Provider
	opts     ai.SessionOptions
	logger   *zap.Logger

	mu          sync.Mutex
	interviewID string
	session     ai.Session

	progressMu  sync.Mutex
	downloading bool
	progress    float64
}

// NewManager creates a Manager around the given provider. A nil provider is a
// legal "capability absent" host.
func NewManager(provider ai.Provider, opts ai.SessionOptions, logger *zap.Logger) *Manager {
	return &Manager{
		provider: provider,
		opts:     opts,
		logger:   logger,
	}
}

// Check reports current availability. It fails soft: an absent capability or
// a failing check is Unavailable, never an error.
func (m *Manager) Check(ctx context.Context) ai.Availability {
	if m == nil || m.provider == nil {
		return ai.Unavailable
	}

	availability, err := m.provider.Availability(ctx, m.opts)
	if err != nil {
		m.logger.Debug("availability check failed", zap.Error(err))
		return ai.Unavailable
	}

	return availability
}

// Acquire returns the session for the given interview id, creating it when
// needed. A session already held for the same id is returned unchanged; a
// session held for a different id is destroyed first. Availability is
// re-checked right before creation since it may have changed after an
// earlier positive check.
func (m *Manager) Acquire(ctx context.Context, interviewID string) (ai.Session, error) {
	if m == nil || m.provider == nil {
		return nil, ai.ErrCapabilityUnavailable
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil && m.interviewID == interviewID {
		return m.session, nil
	}

	if m.session != nil {
		m.logger.Debug("discarding session for previous interview",
			zap.String("previous_interview_id", m.interviewID),
			zap.String("interview_id", interviewID),
		)
		m.session.Destroy()
		m.session = nil
	}

	m.interviewID = interviewID
	m.resetProgress()

	availability, err := m.provider.Availability(ctx, m.opts)
	if err != nil {
		return nil, fmt.Errorf("availability check: %w", err)
	}
	if availability == ai.Unavailable {
		return nil, ai.ErrModelUnavailable
	}

	if availability == ai.Downloadable {
		m.setDownloading(true)
	}

	created, err := m.provider.Create(ctx, m.opts, func(progress float64) {
		m.setProgress(progress)
	})
	if err != nil {
		m.resetProgress()
		return nil, fmt.Errorf("create session: %w", err)
	}

	m.setDownloading(false)
	m.session = created

	m.logger.Debug("model session created",
		zap.String("interview_id", interviewID),
		zap.String("availability", availability.String()),
	)

	return created, nil
}

// Release destroys the session held for the given interview id. Calling it
// again, or for an id that holds no session, has no effect.
func (m *Manager) Release(interviewID string) {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil || m.interviewID != interviewID {
		return
	}

	m.session.Destroy()
	m.session = nil
	m.resetProgress()

	m.logger.Debug("model session released", zap.String("interview_id", interviewID))
}

// Progress reports the model download progress in [0,1]. The second return
// is false when no download is in flight.
func (m *Manager) Progress() (float64, bool) {
	if m == nil {
		return 0, false
	}

	m.progressMu.Lock()
	defer m.progressMu.Unlock()
	return m.progress, m.downloading
}

func (m *Manager) setDownloading(active bool) {
	m.progressMu.Lock()
	defer m.progressMu.Unlock()
	m.downloading = active
	if !active {
		m.progress = 0
	}
}

func (m *Manager) setProgress(progress float64) {
	m.progressMu.Lock()
	defer m.progressMu.Unlock()
	m.downloading = true
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	m.progress = progress
}

func (m *Manager) resetProgress() {
	m.setDownloading(false)
}
