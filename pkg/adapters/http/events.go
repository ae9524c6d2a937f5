package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/cutline/internal/logging"
	"github.com/aretw0/cutline/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// Event is one server-sent event.
type Event struct {
	Name string
	Data []byte
}

// StreamManager fans job events out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{} // JobID -> Set of Channels
	logger      *slog.Logger
}

// NewStreamManager creates an empty manager. A nil logger discards output.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan Event]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a channel for the events of jobID. The channel is
// closed after the job's terminal status, or by the returned cancel func.
func (sm *StreamManager) Subscribe(jobID string) (<-chan Event, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Event, 16)
	if _, ok := sm.subscribers[jobID]; !ok {
		sm.subscribers[jobID] = make(map[chan Event]struct{})
	}
	sm.subscribers[jobID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		sm.remove(jobID, ch)
	}
}

// remove must be called with mu held.
func (sm *StreamManager) remove(jobID string, ch chan Event) {
	subs, ok := sm.subscribers[jobID]
	if !ok {
		return
	}
	if _, ok := subs[ch]; !ok {
		return
	}
	delete(subs, ch)
	close(ch)
	if len(subs) == 0 {
		delete(sm.subscribers, jobID)
	}
}

// Broadcast sends ev to every subscriber of jobID. Slow subscribers lose
// events rather than block the device.
func (sm *StreamManager) Broadcast(jobID string, ev Event) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[jobID] {
		select {
		case ch <- ev:
		default:
			sm.logger.Warn("SSE: Client buffer full, dropping event", "job_id", jobID, "event", ev.Name)
		}
	}
}

// End closes every subscription to jobID.
func (sm *StreamManager) End(jobID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for ch := range sm.subscribers[jobID] {
		sm.remove(jobID, ch)
	}
}

// Subscribers returns the number of open subscriptions to jobID.
func (sm *StreamManager) Subscribers(jobID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[jobID])
}

// Hooks returns lifecycle hooks that publish job events. Register them on
// the engine before jobs are submitted.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStatusChange: func(_ context.Context, e *domain.StatusEvent) {
			sm.publish(e.JobID, "status", e)
			if e.To.Terminal() {
				sm.End(e.JobID)
			}
		},
		OnGroupSent: func(_ context.Context, e *domain.GroupEvent) {
			sm.publish(e.JobID, "group", e)
		},
	}
}

func (sm *StreamManager) publish(jobID, name string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		sm.logger.Error("SSE: Failed to encode event", "job_id", jobID, "err", err)
		return
	}
	sm.Broadcast(jobID, Event{Name: name, Data: data})
}

// SubscribeEvents handles GET /jobs/{id}/events (SSE). The optional watch
// query parameter restricts the stream to a comma separated list of event
// names ("status", "group").
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	id := chi.URLParam(r, "id")

	// Subscribe before reading the job so that no transition is missed.
	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	job, err := s.Engine.Job(r.Context(), id)
	if err != nil {
		s.fail(w, "SubscribeEvents", err)
		return
	}

	watch := map[string]bool{}
	if raw := r.URL.Query().Get("watch"); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			watch[strings.TrimSpace(name)] = true
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	snapshot, err := json.Marshal(job)
	if err != nil {
		s.logger.Error("SubscribeEvents: Failed to encode job", "job_id", id, "err", err)
		return
	}
	writeEvent(w, Event{Name: "job", Data: snapshot})
	flusher.Flush()

	if job.Status.Terminal() {
		return
	}

	s.logger.Info("SSE: Subscribed to job", "job_id", id)
	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "job_id", id)
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if len(watch) > 0 && !watch[ev.Name] {
				continue
			}
			writeEvent(w, ev)
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, ev Event) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, ev.Data)
}
