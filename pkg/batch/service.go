package batch

import (
	"context"

	"github.com/pharmatrace/batch-registry/pkg/apierr"
	"github.com/pharmatrace/batch-registry/pkg/audit"
	"github.com/pharmatrace/batch-registry/pkg/model"
)

// Recorder receives audit events from lifecycle operations.
type Recorder interface {
	Record(e audit.Event)
}

// noopRecorder discards events; used when no sink is wired (tests).
type noopRecorder struct{}

func (noopRecorder) Record(audit.Event) {}

// ReleasedBatch is the release response: the updated batch with customer and
// project names resolved.
type ReleasedBatch struct {
	model.Batch
	CustomerName string `json:"customerName"`
	ProjectName  string `json:"projectName"`
}

// Service guards batch status transitions. Every path that sets
// status=Released runs the same eligibility gate; ForceRelease is the single
// explicit override.
type Service struct {
	store    *Store
	machine  *LifecycleMachine
	recorder Recorder
}

// NewService creates a batch lifecycle service. recorder may be nil.
func NewService(store *Store, recorder Recorder) *Service {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Service{
		store:    store,
		machine:  NewLifecycleMachine(),
		recorder: recorder,
	}
}

// GetStatus returns the batch or NotFound.
func (s *Service) GetStatus(ctx context.Context, batchID string) (*model.Batch, error) {
	b, err := s.store.Get(ctx, batchID)
	if err != nil {
		return nil, apierr.Internal("load batch: %v", err)
	}
	if b == nil {
		return nil, apierr.NotFound("batch %s not found", batchID)
	}
	return b, nil
}

// checkReleaseGate enforces the release eligibility rule: no open or
// in-progress deviations, no pending or in-progress test results.
func (s *Service) checkReleaseGate(ctx context.Context, batchID string) error {
	openDeviations, err := s.store.CountOpenDeviations(ctx, batchID)
	if err != nil {
		return apierr.Internal("check deviations: %v", err)
	}
	if openDeviations > 0 {
		return apierr.Conflict("%d open deviation(s) block release", openDeviations).
			WithDetail("reason", "OpenDeviationsBlock").
			WithDetail("count", openDeviations)
	}

	pendingTests, err := s.store.CountPendingTests(ctx, batchID)
	if err != nil {
		return apierr.Internal("check tests: %v", err)
	}
	if pendingTests > 0 {
		return apierr.Conflict("%d pending test result(s) block release", pendingTests).
			WithDetail("reason", "PendingTestsBlock").
			WithDetail("count", pendingTests)
	}
	return nil
}

// alreadyReleased is the idempotent-failure result for a released batch.
func alreadyReleased(batchID string) error {
	return apierr.Conflict("batch %s is already released", batchID).
		WithDetail("reason", "AlreadyReleased")
}

// Release runs the eligibility gate and performs the atomic release
// transition. Concurrent calls on the same batch produce exactly one
// success; the rest fail with AlreadyReleased.
func (s *Service) Release(ctx context.Context, batchID, releasedBy, notes string) (*ReleasedBatch, error) {
	b, err := s.GetStatus(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if b.Status == model.BatchReleased {
		return nil, alreadyReleased(b.APIBatchID)
	}

	if err := s.checkReleaseGate(ctx, b.ID); err != nil {
		s.recordOutcome(b, releasedBy, "release", "denied", notes)
		return nil, err
	}

	released, err := s.store.MarkReleased(ctx, b.ID, releasedBy, notes)
	if err != nil {
		return nil, apierr.Internal("release batch: %v", err)
	}
	if !released {
		// Lost the race against a concurrent release.
		return nil, alreadyReleased(b.APIBatchID)
	}

	return s.finishRelease(ctx, b, releasedBy, "release", notes)
}

// ForceRelease skips the eligibility gate. It is a distinct, elevated
// operation: callers must hold the batches/force grant, and the reason is
// mandatory and audited.
func (s *Service) ForceRelease(ctx context.Context, batchID, releasedBy, reason string) (*ReleasedBatch, error) {
	if reason == "" {
		return nil, apierr.Validation("a reason is required to force-release a batch")
	}

	b, err := s.GetStatus(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if b.Status == model.BatchReleased {
		return nil, alreadyReleased(b.APIBatchID)
	}

	released, err := s.store.MarkReleased(ctx, b.ID, releasedBy, reason)
	if err != nil {
		return nil, apierr.Internal("force-release batch: %v", err)
	}
	if !released {
		return nil, alreadyReleased(b.APIBatchID)
	}

	return s.finishRelease(ctx, b, releasedBy, "force-release", reason)
}

// UpdateStatus applies a guarded status transition. A transition into
// Released routes through the same eligibility gate and atomic update as
// Release, so no caller path can skip the gate.
func (s *Service) UpdateStatus(ctx context.Context, batchID string, newStatus model.BatchStatus, userID, notes string) (*model.Batch, error) {
	if !model.ValidBatchStatus(newStatus) {
		return nil, apierr.Validation("invalid batch status %q", newStatus).
			WithDetail("reason", "InvalidStatus")
	}

	b, err := s.GetStatus(ctx, batchID)
	if err != nil {
		return nil, err
	}

	if err := s.machine.ValidateTransition(b.Status, newStatus); err != nil {
		return nil, apierr.Validation("%v", err).
			WithDetail("from", string(b.Status)).
			WithDetail("to", string(newStatus))
	}

	if newStatus == model.BatchReleased {
		released, err := s.Release(ctx, b.ID, userID, notes)
		if err != nil {
			return nil, err
		}
		return &released.Batch, nil
	}

	if b.Status != newStatus {
		if err := s.store.UpdateStatus(ctx, b.ID, newStatus); err != nil {
			return nil, apierr.Internal("update status: %v", err)
		}
	}

	s.recorder.Record(audit.Event{
		Actor:    userID,
		Entity:   "batch",
		EntityID: b.APIBatchID,
		Action:   "status-update",
		Outcome:  "success",
		Detail: map[string]any{
			"from":  string(b.Status),
			"to":    string(newStatus),
			"notes": notes,
		},
	})

	return s.store.Get(ctx, b.ID)
}

// finishRelease reloads the batch, resolves display names, and audits.
func (s *Service) finishRelease(ctx context.Context, b *model.Batch, releasedBy, action, notes string) (*ReleasedBatch, error) {
	updated, err := s.store.Get(ctx, b.ID)
	if err != nil || updated == nil {
		return nil, apierr.Internal("reload released batch: %v", err)
	}

	customerName, projectName, err := s.store.ResolveNames(ctx, updated)
	if err != nil {
		return nil, apierr.Internal("resolve names: %v", err)
	}

	s.recordOutcome(updated, releasedBy, action, "success", notes)

	return &ReleasedBatch{
		Batch:        *updated,
		CustomerName: customerName,
		ProjectName:  projectName,
	}, nil
}

func (s *Service) recordOutcome(b *model.Batch, actor, action, outcome, notes string) {
	s.recorder.Record(audit.Event{
		Actor:    actor,
		Entity:   "batch",
		EntityID: b.APIBatchID,
		Action:   action,
		Outcome:  outcome,
		Detail:   map[string]any{"notes": notes},
	})
}
