// Package profile fetches a candidate's public profile through the scraping
// proxy and compresses it into a short Spanish summary with the model. The
// profile is never fetched directly (CORS and scraping concerns live behind
// the proxy); both the raw source and the summary are cached per
// (interview, profile URL) because the profile is assumed static for the
// session.
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	_ "embed"

	"github.com/galiprandi/dimensions/internal/ai"
	"github.com/galiprandi/dimensions/internal/logger"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

//go:embed prompts/summary_guide.md
var summaryGuide string

const (
	// Hard bound on how much profile text is embedded in the summary
	// prompt. Content past this point never reaches the model.
	maxSourceRunes = 12000

	cacheEntries = 64
)

// FetchError is a typed failure of the proxy fetch step: transport error,
// non-2xx status, proxy-reported error or empty extracted text.
type FetchError struct {
	URL    string
	Status int
	Reason string
}

func (e *FetchError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("profile fetch %s: %s (status %d)", e.URL, e.Reason, e.Status)
	}
	return fmt.Sprintf("profile fetch %s: %s", e.URL, e.Reason)
}

// Sessions is the slice of the session manager the fetcher needs.
type Sessions interface {
	Acquire(ctx context.Context, interviewID string) (ai.Session, error)
}

// Insight fetches and summarizes public profiles.
type Insight struct {
	endpoint string
	sessions Sessions
	logger   *zap.Logger

	HTTPClient *http.Client

	sources   *lru.Cache[string, string]
	summaries *lru.Cache[string, string]
}

// New creates an Insight that fetches through the given proxy endpoint.
func New(endpoint string, sessions Sessions, log *zap.Logger) *Insight {
	sources, _ := lru.New[string, string](cacheEntries)
	summaries, _ := lru.New[string, string](cacheEntries)

	return &Insight{
		endpoint: strings.TrimRight(endpoint, "/"),
		sessions: sessions,
		logger:   log,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		sources:   sources,
		summaries: summaries,
	}
}

type proxyPayload struct {
	Text  string `json:"text"`
	Error string `json:"error"`
}

// Source returns the extracted profile text for the given interview and
// profile URL, fetching through the proxy on a cache miss.
func (i *Insight) Source(ctx context.Context, interviewID, profileURL string) (string, error) {
	key := cacheKey(interviewID, profileURL)
	if cached, ok := i.sources.Get(key); ok {
		return cached, nil
	}

	text, err := i.fetchSource(ctx, profileURL)
	if err != nil {
		return "", err
	}

	i.sources.Add(key, text)
	return text, nil
}

// Summarize returns the model-written summary of the profile, running the
// fetch step first when needed.
func (i *Insight) Summarize(ctx context.Context, interviewID, profileURL string) (string, error) {
	key := cacheKey(interviewID, profileURL)
	if cached, ok := i.summaries.Get(key); ok {
		return cached, nil
	}

	source, err := i.Source(ctx, interviewID, profileURL)
	if err != nil {
		return "", err
	}

	session, err := i.sessions.Acquire(ctx, interviewID)
	if err != nil {
		return "", err
	}

	prompt := buildSummaryPrompt(profileURL, source)

	i.logger.Debug("profile summary request",
		zap.String("interview_id", interviewID),
		zap.String("profile_url", profileURL),
		zap.String("prompt_preview", logger.Truncate(prompt, 200)),
	)

	raw, err := session.Prompt(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("summarize profile: %w", err)
	}

	summary := strings.TrimSpace(raw)
	i.summaries.Add(key, summary)

	return summary, nil
}

// Invalidate drops both cached steps for the given interview/profile pair.
// Called by the orchestrator on regenerate.
func (i *Insight) Invalidate(interviewID, profileURL string) {
	key := cacheKey(interviewID, profileURL)
	i.sources.Remove(key)
	i.summaries.Remove(key)
}

func (i *Insight) fetchSource(ctx context.Context, profileURL string) (string, error) {
	if strings.TrimSpace(profileURL) == "" {
		return "", &FetchError{URL: profileURL, Reason: "profile url is empty"}
	}

	requestURL := fmt.Sprintf("%s?url=%s", i.endpoint, url.QueryEscape(profileURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return "", &FetchError{URL: profileURL, Reason: err.Error()}
	}
	req.Header.Set("Accept", "application/json")

	i.logger.Debug("profile proxy request", zap.String("url", requestURL))

	resp, err := i.HTTPClient.Do(req)
	if err != nil {
		return "", &FetchError{URL: profileURL, Reason: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{URL: profileURL, Status: resp.StatusCode, Reason: "proxy returned an error status"}
	}

	var payload proxyPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", &FetchError{URL: profileURL, Status: resp.StatusCode, Reason: fmt.Sprintf("decode proxy payload: %v", err)}
	}

	if payload.Error != "" {
		return "", &FetchError{URL: profileURL, Status: resp.StatusCode, Reason: payload.Error}
	}

	text := strings.TrimSpace(payload.Text)
	if text == "" {
		return "", &FetchError{URL: profileURL, Status: resp.StatusCode, Reason: "profile returned no usable content"}
	}

	return text, nil
}

func buildSummaryPrompt(profileURL, source string) string {
	runes := []rune(source)
	if len(runes) > maxSourceRunes {
		source = string(runes[:maxSourceRunes])
	}

	prompt := strings.ReplaceAll(strings.TrimSpace(summaryGuide), "{{PROFILE_URL}}", profileURL)
	return strings.ReplaceAll(prompt, "{{PROFILE_TEXT}}", source)
}

func cacheKey(interviewID, profileURL string) string {
	return interviewID + "|" + profileURL
}
