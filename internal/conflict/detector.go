package conflict

import (
	"github.com/google/uuid"

	"github.com/wagneradl/knowledge-mcp/internal/models"
)

// tripleLister is the storage dependency the detector needs: the set of
// active triples sharing a (subject, predicate) pair.
type tripleLister interface {
	ActiveTriplesWithSubjectPredicate(subject, predicate string) ([]models.Triple, error)
}

// Detect looks for an active triple that shares candidate's (subject,
// predicate) but disagrees on object. Returns nil, nil when no
// contradiction exists.
func Detect(store tripleLister, candidate models.TripleCandidate) (*models.ConflictInfo, error) {
	existing, err := store.ActiveTriplesWithSubjectPredicate(candidate.Subject, candidate.Predicate)
	if err != nil {
		return nil, err
	}
	for _, e := range existing {
		if e.Object != candidate.Object {
			return &models.ConflictInfo{
				ConflictID: uuid.New().String(),
				Subject:    candidate.Subject,
				Predicate:  candidate.Predicate,
				Existing:   e,
				Candidate:  candidate,
				AllowedResolutions: []models.ConflictResolution{
					models.ResolveReplace,
					models.ResolveRetainBoth,
					models.ResolveReject,
				},
			}, nil
		}
	}
	return nil, nil
}
