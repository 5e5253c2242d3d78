package service

import (
	"fmt"

	"JobCard-backend/internal/apperror"
	"JobCard-backend/internal/model"
)

// TransitionPolicy decides whether an application may move from one status to another.
type TransitionPolicy interface {
	Allow(from, to string) error
}

// PermissiveTransitions lets any status move to any other status, staying
// put included. Reviewers move applications back and forth at their discretion.
type PermissiveTransitions struct{}

// Allow always allows
func (PermissiveTransitions) Allow(from, to string) error {
	return nil
}

// TransitionTable only allows the listed moves. Staying in the same status is always allowed.
type TransitionTable map[string][]string

// Allow checks the table
func (t TransitionTable) Allow(from, to string) error {
	if from == to {
		return nil
	}
	for _, next := range t[from] {
		if next == to {
			return nil
		}
	}
	return apperror.Field("status", fmt.Sprintf("cannot move from %s to %s", from, to))
}

// ForwardOnlyTransitions is a stricter graph: review moves forward and
// rejection or selection is final.
var ForwardOnlyTransitions = TransitionTable{
	model.ApplicationStatusApplied:     {model.ApplicationStatusUnderReview, model.ApplicationStatusShortlisted, model.ApplicationStatusRejected},
	model.ApplicationStatusUnderReview: {model.ApplicationStatusShortlisted, model.ApplicationStatusRejected},
	model.ApplicationStatusShortlisted: {model.ApplicationStatusSelected, model.ApplicationStatusRejected},
}
