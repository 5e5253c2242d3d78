// Package service implements the placement workflows on top of the database:
// job catalog, application engine, document store, document verification and
// HR feedback. Handlers call into it; it never touches gin.
package service

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"JobCard-backend/internal/apperror"
	"JobCard-backend/internal/database"
	"JobCard-backend/internal/identity"
	"JobCard-backend/internal/notification"
)

// Options tunes the services.
type Options struct {
	// IdentityConcurrency bounds parallel directory lookups per listing
	IdentityConcurrency int
	// Transitions decides which application status changes are allowed
	Transitions TransitionPolicy
	// Now is the clock, time.Now when nil
	Now func() time.Time
}

// Services bundles every service sharing one set of collaborators.
type Services struct {
	Jobs         *JobService
	Applications *ApplicationService
	Documents    *DocumentService
	Verification *VerificationService
	Feedback     *FeedbackService
	Members      *MemberService
}

// New wires all services.
func New(db *database.DBinstanceStruct, resolver identity.Resolver, notifier notification.Notifier, opts Options) *Services {
	if notifier == nil {
		notifier = notification.Discard{}
	}
	if opts.Transitions == nil {
		opts.Transitions = PermissiveTransitions{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.IdentityConcurrency <= 0 {
		opts.IdentityConcurrency = 8
	}

	jobs := &JobService{DB: db, now: opts.Now}
	docs := &DocumentService{DB: db, notifier: notifier, now: opts.Now}
	return &Services{
		Jobs: jobs,
		Applications: &ApplicationService{
			DB:          db,
			jobs:        jobs,
			resolver:    resolver,
			notifier:    notifier,
			transitions: opts.Transitions,
			concurrency: opts.IdentityConcurrency,
			now:         opts.Now,
		},
		Documents: docs,
		Verification: &VerificationService{
			DB:          db,
			resolver:    resolver,
			concurrency: opts.IdentityConcurrency,
			now:         opts.Now,
		},
		Feedback: &FeedbackService{DB: db, now: opts.Now},
		Members:  &MemberService{DB: db, resolver: resolver},
	}
}

// notFoundOr maps gorm.ErrRecordNotFound to a NotFound error and anything else to Unexpected.
func notFoundOr(err error, what string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(what, args...)
	}
	return apperror.Unexpected("Database error", err)
}
