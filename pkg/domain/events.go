package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStateEnter      EventType = "state_enter"
	EventStatePark       EventType = "state_park"
	EventStateResume     EventType = "state_resume"
	EventStateDiscard    EventType = "state_discard"
	EventTransitionBegin EventType = "transition_begin"
	EventTransitionEnd   EventType = "transition_end"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// StateEvent describes a lifecycle notification applied to one state instance.
type StateEvent struct {
	EventBase
	State      string `json:"state"`
	InstanceID string `json:"instance_id"`
	Sticky     bool   `json:"sticky"`
	Params     Params `json:"params,omitempty"`
}

// TransitionEvent describes a planned (Begin) or applied (End) transition.
// An End event without Plan reports a transition aborted before any change.
type TransitionEvent struct {
	EventBase
	From     string          `json:"from"`
	To       string          `json:"to"`
	Plan     *TransitionPlan `json:"plan,omitempty"`
	Duration time.Duration   `json:"duration,omitempty"`
	Err      error           `json:"-"`
}

// LifecycleHooks defines callbacks for observability.
// They are distinct from the per-state Hooks: they observe, they never fail a transition.
type LifecycleHooks struct {
	OnEnter      func(context.Context, *StateEvent)
	OnPark       func(context.Context, *StateEvent)
	OnResume     func(context.Context, *StateEvent)
	OnDiscard    func(context.Context, *StateEvent)
	OnTransition func(context.Context, *TransitionEvent)
}

// NewStateEvent builds a StateEvent for inst.
func NewStateEvent(t EventType, inst *StateInstance) *StateEvent {
	ev := &StateEvent{
		EventBase:  EventBase{Timestamp: time.Now(), Type: t},
		State:      inst.Name(),
		InstanceID: inst.ID,
		Params:     inst.Params,
	}
	if inst.Node != nil {
		ev.Sticky = inst.Node.Sticky
	}
	return ev
}

// Merge combines two hook sets; both callbacks run when both are set.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnEnter:      chainState(h.OnEnter, other.OnEnter),
		OnPark:       chainState(h.OnPark, other.OnPark),
		OnResume:     chainState(h.OnResume, other.OnResume),
		OnDiscard:    chainState(h.OnDiscard, other.OnDiscard),
		OnTransition: chainTransition(h.OnTransition, other.OnTransition),
	}
}

func chainState(a, b func(context.Context, *StateEvent)) func(context.Context, *StateEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *StateEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}

func chainTransition(a, b func(context.Context, *TransitionEvent)) func(context.Context, *TransitionEvent) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *TransitionEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
