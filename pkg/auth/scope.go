package auth

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/pharmatrace/batch-registry/pkg/model"
)

// Scope restricts which batches a caller may see. An unrestricted scope sees
// everything; otherwise only the listed batch ids are visible. An empty
// BatchIDs set means the caller sees no batches, which is a valid result,
// not an error.
type Scope struct {
	Unrestricted bool
	BatchIDs     map[string]struct{}
}

// Allows reports whether the scope permits the given batch id.
func (s Scope) Allows(batchID string) bool {
	if s.Unrestricted {
		return true
	}
	_, ok := s.BatchIDs[batchID]
	return ok
}

// IDs returns the visible batch ids as a slice, for use in queries.
func (s Scope) IDs() []string {
	ids := make([]string, 0, len(s.BatchIDs))
	for id := range s.BatchIDs {
		ids = append(ids, id)
	}
	return ids
}

// ScopeResolver computes caller visibility scopes from project assignments.
type ScopeResolver struct {
	db *gorm.DB
}

// NewScopeResolver creates a resolver over the given database handle.
func NewScopeResolver(db *gorm.DB) *ScopeResolver {
	return &ScopeResolver{db: db}
}

// ScopeForCaller resolves the principal's visibility scope. Admins are
// unrestricted; anyone else sees only batches under their assigned projects.
func (sr *ScopeResolver) ScopeForCaller(ctx context.Context, principal Principal) (Scope, error) {
	if principal.IsAdmin() {
		return Scope{Unrestricted: true}, nil
	}

	var projectIDs []string
	err := sr.db.WithContext(ctx).
		Model(&model.ProjectAssignment{}).
		Where("user_id = ?", principal.ID).
		Pluck("project_id", &projectIDs).Error
	if err != nil {
		return Scope{}, fmt.Errorf("resolve project assignments: %w", err)
	}

	scope := Scope{BatchIDs: make(map[string]struct{})}
	if len(projectIDs) == 0 {
		return scope, nil
	}

	var batchIDs []string
	err = sr.db.WithContext(ctx).
		Model(&model.Batch{}).
		Where("project_id IN ?", projectIDs).
		Pluck("id", &batchIDs).Error
	if err != nil {
		return Scope{}, fmt.Errorf("resolve scoped batches: %w", err)
	}
	for _, id := range batchIDs {
		scope.BatchIDs[id] = struct{}{}
	}
	return scope, nil
}
