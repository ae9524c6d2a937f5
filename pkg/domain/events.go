package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStatusChange EventType = "status_change"
	EventGroupSent    EventType = "group_sent"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	JobID     string    `json:"job_id"`
	Device    string    `json:"device"`
}

// StatusEvent is emitted on every job status transition.
type StatusEvent struct {
	EventBase
	From   Status `json:"from"`
	To     Status `json:"to"`
	Reason string `json:"reason,omitempty"`
}

// GroupEvent is emitted after a command group has been fully transmitted.
type GroupEvent struct {
	EventBase
	Index    int   `json:"index"`
	Total    int   `json:"total"`
	Bytes    int   `json:"bytes"`
	Position Point `json:"position"`
}

// LifecycleHooks defines callbacks for device observability.
type LifecycleHooks struct {
	OnStatusChange func(context.Context, *StatusEvent)
	OnGroupSent    func(context.Context, *GroupEvent)
}

// Merge returns hooks that call h first and then o.
func (h LifecycleHooks) Merge(o LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStatusChange: chain(h.OnStatusChange, o.OnStatusChange),
		OnGroupSent:    chain(h.OnGroupSent, o.OnGroupSent),
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
