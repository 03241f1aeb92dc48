package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pharmatrace/batch-registry/pkg/model"
)

// Event is what callers hand to the sink. The sink fills in id and
// timestamp before persisting.
type Event struct {
	Actor      string
	Entity     string
	EntityID   string
	Action     string
	Outcome    string
	StatusCode int
	RequestID  string
	Detail     map[string]any
}

// Sink dispatches audit events through a bounded queue to the store. When
// the queue is full the event is dropped and logged, never blocking the
// request path. Failures are logged, never surfaced to the caller.
type Sink struct {
	store  *Store
	queue  chan Event
	logger *slog.Logger
	done   chan struct{}
}

// NewSink creates a sink with the given queue capacity.
func NewSink(store *Store, capacity int, logger *slog.Logger) *Sink {
	if capacity <= 0 {
		capacity = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{
		store:  store,
		queue:  make(chan Event, capacity),
		logger: logger,
		done:   make(chan struct{}),
	}
}

// Record enqueues an event. Drops and logs when the queue is full.
func (s *Sink) Record(e Event) {
	select {
	case s.queue <- e:
	default:
		s.logger.Warn("audit queue full, dropping event",
			"entity", e.Entity, "action", e.Action, "actor", e.Actor)
	}
}

// Run drains the queue until the context is cancelled, then flushes what
// remains before returning.
func (s *Sink) Run(ctx context.Context) {
	defer close(s.done)
	for {
		select {
		case e := <-s.queue:
			s.persist(e)
		case <-ctx.Done():
			for {
				select {
				case e := <-s.queue:
					s.persist(e)
				default:
					return
				}
			}
		}
	}
}

// Wait blocks until Run has returned.
func (s *Sink) Wait() {
	<-s.done
}

func (s *Sink) persist(e Event) {
	rec := &Record{
		ID:         uuid.New().String(),
		Actor:      e.Actor,
		Entity:     e.Entity,
		EntityID:   e.EntityID,
		Action:     e.Action,
		Outcome:    e.Outcome,
		StatusCode: e.StatusCode,
		RequestID:  e.RequestID,
		Detail:     model.JSONMap(e.Detail),
		CreatedAt:  time.Now(),
	}
	if err := s.store.Append(rec); err != nil {
		s.logger.Error("failed to write audit record", "error", err, "entity", e.Entity, "action", e.Action)
	}
}
