// Package orchestrator sequences the conclusion-generation pipeline:
// interview load, availability check, optional profile fetch/summary, prompt
// assembly, model invocation, parsing and reconciliation. It owns the only
// state machine of the system and guarantees that results from a stale run
// never overwrite the state of the interview currently under review.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/galiprandi/dimensions/internal/ai"
	"github.com/galiprandi/dimensions/internal/backoffice"
	"github.com/galiprandi/dimensions/internal/conclusions"

	"go.uber.org/zap"
)

// State identifies a pipeline step. Transitions are linear; the only way
// back is a full regenerate.
type State string

const (
	StateIdle                 State = "idle"
	StateLoadingInterview     State = "loading-interview"
	StateCheckingAvailability State = "checking-availability"
	StateFetchingProfile      State = "fetching-profile"
	StateSummarizingProfile   State = "summarizing-profile"
	StateGeneratingPrompt     State = "generating-prompt"
	StateGeneratingConclusion State = "generating-conclusion"
	StateReady                State = "ready"

	// StateUnavailable is terminal: the host has no model capability and
	// the whole AI flow is blocked until that changes.
	StateUnavailable State = "unavailable"
)

// ErrSuperseded is returned by a run whose interview was switched away while
// it was in flight. Its partial results are discarded.
var ErrSuperseded = errors.New("generation superseded")

// StepError attaches a failure to the step it happened in, so the operator
// can be told which part of the pipeline went wrong.
type StepError struct {
	Step State
	Err  error
}

func (e *StepError) Error() string { return fmt.Sprintf("%s: %v", e.Step, e.Err) }

func (e *StepError) Unwrap() error { return e.Err }

// Interviews supplies interview snapshots.
type Interviews interface {
	Interview(ctx context.Context, id string) (*backoffice.InterviewSnapshot, error)
}

// Profiles is the profile fetch/summary collaborator.
type Profiles interface {
	Source(ctx context.Context, interviewID, profileURL string) (string, error)
	Summarize(ctx context.Context, interviewID, profileURL string) (string, error)
	Invalidate(interviewID, profileURL string)
}

// Sessions is the model session manager.
type Sessions interface {
	Check(ctx context.Context) ai.Availability
	Acquire(ctx context.Context, interviewID string) (ai.Session, error)
	Release(interviewID string)
	Progress() (float64, bool)
}

// Result is one finished generation.
type Result struct {
	Prompt string
	Raw    string
	Items  []conclusions.NormalizedItem
}

// Status is a point-in-time view for display.
type Status struct {
	InterviewID string
	State       State
	Err         *StepError
	Result      *Result

	// Download side-channel; meaningful only while Downloading is true.
	DownloadProgress float64
	Downloading      bool
}

// Orchestrator drives the pipeline for one interview at a time.
type Orchestrator struct {
	interviews Interviews
	profiles   Profiles
	sessions   Sessions
	logger     *zap.Logger

	// onTransition observes state changes of the current run. Optional.
	onTransition func(State)

	mu          sync.Mutex
	seq         uint64
	interviewID string
	state       State
	stepErr     *StepError
	snapshot    *backoffice.InterviewSnapshot
	result      *Result
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithTransitionHook registers a callback invoked on every state change.
func WithTransitionHook(hook func(State)) Option {
	return func(o *Orchestrator) { o.onTransition = hook }
}

// New creates an Orchestrator over the given collaborators.
func New(interviews Interviews, profiles Profiles, sessions Sessions, log *zap.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		interviews: interviews,
		profiles:   profiles,
		sessions:   sessions,
		logger:     log,
		state:      StateIdle,
	}

	for _, opt := range opts {
		opt(o)
	}

	return o
}

// SetInterview selects the interview under review. Switching releases the
// previous interview's session and invalidates any run still in flight.
func (o *Orchestrator) SetInterview(id string) {
	o.mu.Lock()

	if o.interviewID == id {
		o.mu.Unlock()
		return
	}

	previous := o.interviewID
	o.seq++
	o.interviewID = id
	o.state = StateIdle
	o.stepErr = nil
	o.snapshot = nil
	o.result = nil
	o.mu.Unlock()

	if previous != "" {
		o.sessions.Release(previous)
	}
}

// Close releases the resources held for the current interview. Safe to call
// on every exit path.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.seq++
	id := o.interviewID
	o.mu.Unlock()

	if id != "" {
		o.sessions.Release(id)
	}
}

// Status returns the current state for display.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	status := Status{
		InterviewID: o.interviewID,
		State:       o.state,
		Err:         o.stepErr,
		Result:      o.result,
	}
	o.mu.Unlock()

	status.DownloadProgress, status.Downloading = o.sessions.Progress()

	return status
}

// Generate runs the pipeline for the selected interview, invalidating every
// cached intermediate first. It is the only way out of ready and the
// recovery action after any step failure. No step retries automatically.
func (o *Orchestrator) Generate(ctx context.Context) error {
	o.mu.Lock()
	id := o.interviewID
	if id == "" {
		o.mu.Unlock()
		return errors.New("no interview selected")
	}

	o.seq++
	run := o.seq
	o.stepErr = nil
	o.result = nil
	snapshot := o.snapshot
	o.mu.Unlock()

	if snapshot != nil && snapshot.ProfileURL != "" {
		o.profiles.Invalidate(id, snapshot.ProfileURL)
	}

	if snapshot == nil {
		if !o.transition(run, StateLoadingInterview) {
			return ErrSuperseded
		}

		loaded, err := o.interviews.Interview(ctx, id)
		if err != nil {
			return o.fail(run, id, StateLoadingInterview, err)
		}

		o.mu.Lock()
		if o.seq != run {
			o.mu.Unlock()
			return ErrSuperseded
		}
		o.snapshot = loaded
		o.mu.Unlock()
		snapshot = loaded
	}

	if !o.transition(run, StateCheckingAvailability) {
		return ErrSuperseded
	}

	if availability := o.sessions.Check(ctx); availability == ai.Unavailable {
		stepErr := &StepError{Step: StateCheckingAvailability, Err: ai.ErrCapabilityUnavailable}

		o.mu.Lock()
		if o.seq == run {
			o.state = StateUnavailable
			o.stepErr = stepErr
		}
		o.mu.Unlock()

		o.notify(StateUnavailable)
		return stepErr
	}

	profileSummary := ""
	if snapshot.ProfileURL != "" {
		if !o.transition(run, StateFetchingProfile) {
			return ErrSuperseded
		}
		if _, err := o.profiles.Source(ctx, id, snapshot.ProfileURL); err != nil {
			return o.fail(run, id, StateFetchingProfile, err)
		}

		if !o.transition(run, StateSummarizingProfile) {
			return ErrSuperseded
		}
		summary, err := o.profiles.Summarize(ctx, id, snapshot.ProfileURL)
		if err != nil {
			return o.fail(run, id, StateSummarizingProfile, err)
		}
		profileSummary = summary
	}

	if !o.transition(run, StateGeneratingPrompt) {
		return ErrSuperseded
	}

	prompt := conclusions.BuildStructuredPrompt(
		snapshot.Candidate,
		snapshot.Dimensions,
		snapshot.Stacks,
		profileSummary,
		snapshot.FinalConclusion,
	)

	if !o.transition(run, StateGeneratingConclusion) {
		return ErrSuperseded
	}

	session, err := o.sessions.Acquire(ctx, id)
	if err != nil {
		return o.fail(run, id, StateGeneratingConclusion, err)
	}

	raw, err := session.Prompt(ctx, prompt)
	if err != nil {
		return o.fail(run, id, StateGeneratingConclusion, err)
	}

	proposals, finalConclusion := conclusions.ParseConclusions(conclusions.StripCodeFence(raw))
	items := conclusions.Reconcile(proposals, finalConclusion, snapshot)

	result := &Result{Prompt: prompt, Raw: raw, Items: items}

	o.mu.Lock()
	if o.seq != run {
		o.mu.Unlock()
		return ErrSuperseded
	}
	o.state = StateReady
	o.result = result
	o.mu.Unlock()

	o.notify(StateReady)

	o.logger.Info("conclusions generated",
		zap.String("interview_id", id),
		zap.Int("items", len(items)),
	)

	return nil
}

// transition advances the machine, unless the run has been superseded.
func (o *Orchestrator) transition(run uint64, state State) bool {
	o.mu.Lock()
	if o.seq != run {
		o.mu.Unlock()
		return false
	}
	o.state = state
	o.mu.Unlock()

	o.notify(state)
	o.logger.Debug("pipeline step", zap.String("state", string(state)))

	return true
}

// fail records a step-scoped error and releases the session so no failure
// path leaves one dangling.
func (o *Orchestrator) fail(run uint64, interviewID string, step State, err error) error {
	o.sessions.Release(interviewID)

	stepErr := &StepError{Step: step, Err: err}

	o.mu.Lock()
	if o.seq != run {
		o.mu.Unlock()
		return ErrSuperseded
	}
	o.stepErr = stepErr
	o.mu.Unlock()

	o.logger.Warn("pipeline step failed",
		zap.String("interview_id", interviewID),
		zap.String("step", string(step)),
		zap.Error(err),
	)

	return stepErr
}

func (o *Orchestrator) notify(state State) {
	if o.onTransition != nil {
		o.onTransition(state)
	}
}
