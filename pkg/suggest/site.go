// Package suggest is the editor side of the rewrite suggestion gateway.
//
// A Site allows at most one request in flight, never retries and enforces no
// timeout of its own. A failed request leaves the document untouched; a chosen
// rewrite is written through the sentence edit cascade only afterwards.
package suggest

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/quill/internal/logging"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/ports"
	"github.com/aretw0/quill/pkg/workflow"
	"golang.org/x/sync/semaphore"
)

// ErrRequestInFlight is returned when a site is asked again before its
// previous request finished.
var ErrRequestInFlight = errors.New("suggestion request already in flight")

// Site issues rewrite requests for one place in the editor.
type Site struct {
	gateway  ports.SuggestionGateway
	inFlight *semaphore.Weighted
	hooks    domain.LifecycleHooks
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Site.
type Option func(*Site)

// WithHooks registers lifecycle callbacks; only OnSuggestion is used.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(s *Site) {
		s.hooks = s.hooks.Merge(h)
	}
}

// WithClock overrides the time source of applied edits.
func WithClock(now func() time.Time) Option {
	return func(s *Site) {
		s.now = now
	}
}

// WithLogger sets the site logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Site) {
		s.logger = logger
	}
}

// NewSite creates a site backed by gateway.
func NewSite(gateway ports.SuggestionGateway, opts ...Option) *Site {
	s := &Site{
		gateway:  gateway,
		inFlight: semaphore.NewWeighted(1),
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request asks the gateway for rewrites of sentence. Blank suggestions are
// dropped; an empty result is not an error. Gateway failures are returned as
// *domain.SuggestionError.
func (s *Site) Request(ctx context.Context, sentence string) ([]string, error) {
	if !s.inFlight.TryAcquire(1) {
		return nil, ErrRequestInFlight
	}
	defer s.inFlight.Release(1)

	sentence = strings.TrimSpace(sentence)
	if sentence == "" {
		return nil, &domain.SuggestionError{Message: "no sentence to rewrite"}
	}

	raw, err := s.gateway.RequestRewrites(ctx, sentence)
	if err != nil {
		var sugErr *domain.SuggestionError
		if !errors.As(err, &sugErr) {
			err = &domain.SuggestionError{Message: "rewrite request failed", Cause: err}
		}
		s.logger.Warn("suggestion request failed", "err", err)
		s.emit(ctx, 0, true)
		return nil, err
	}

	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	s.emit(ctx, len(out), false)
	return out, nil
}

// RequestFor asks for rewrites of sentence idx of paragraph para.
func (s *Site) RequestFor(ctx context.Context, d *domain.EssayData, para, idx int) ([]string, error) {
	sentences := workflow.Sentences(d, para)
	if idx < 0 || idx >= len(sentences) {
		return nil, &domain.SuggestionError{Message: "no sentence at that position"}
	}
	return s.Request(ctx, sentences[idx])
}

// Apply replaces sentence idx of paragraph para with the chosen rewrite and
// records the edit. It reports false if nothing changed.
func (s *Site) Apply(d *domain.EssayData, para, idx int, rewrite string) bool {
	if strings.TrimSpace(rewrite) == "" {
		return false
	}
	return workflow.EditSentence(d, para, idx, rewrite, s.now())
}

func (s *Site) emit(ctx context.Context, count int, failed bool) {
	if s.hooks.OnSuggestion == nil {
		return
	}
	s.hooks.OnSuggestion(ctx, &domain.SuggestionEvent{
		EventBase: domain.EventBase{Timestamp: s.now(), Type: domain.EventSuggestion},
		Count:     count,
		IsError:   failed,
	})
}
