package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepEnter  EventType = "step_enter"
	EventStepLeave  EventType = "step_leave"
	EventSave       EventType = "save"
	EventCompleted  EventType = "completed"
	EventSuggestion EventType = "suggestion"
)

// SaveTrigger tells which path caused a save.
type SaveTrigger string

const (
	TriggerDebounce SaveTrigger = "debounce"
	TriggerInterval SaveTrigger = "interval"
	TriggerManual   SaveTrigger = "manual"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	EssayID   string    `json:"essay_id"`
}

// StepEvent represents entry to or exit from a wizard step.
type StepEvent struct {
	EventBase
	Step Step `json:"step"`
}

// SaveEvent represents one persisted save (successful or not).
type SaveEvent struct {
	EventBase
	Trigger  SaveTrigger   `json:"trigger"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// SuggestionEvent represents one completed rewrite request.
type SuggestionEvent struct {
	EventBase
	Count   int  `json:"count"`
	IsError bool `json:"is_error,omitempty"`
}

// LifecycleHooks defines callbacks for editor observability.
// Every field is optional.
type LifecycleHooks struct {
	OnStepEnter  func(context.Context, *StepEvent)
	OnStepLeave  func(context.Context, *StepEvent)
	OnSave       func(context.Context, *SaveEvent)
	OnComplete   func(context.Context, *EventBase)
	OnSuggestion func(context.Context, *SuggestionEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStepEnter:  chain(h.OnStepEnter, other.OnStepEnter),
		OnStepLeave:  chain(h.OnStepLeave, other.OnStepLeave),
		OnSave:       chain(h.OnSave, other.OnSave),
		OnComplete:   chain(h.OnComplete, other.OnComplete),
		OnSuggestion: chain(h.OnSuggestion, other.OnSuggestion),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
