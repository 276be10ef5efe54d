package accounts

import (
	"context"
)

// Reconciler compares the identity snapshot carried by an inbound token
// against the authoritative user record, once per authenticated request.
// The rest of the request pipeline always sees the fresh record; only the
// token the client receives next depends on the diff.
type Reconciler struct {
	repo   RepositoryManager
	logger Logger
}

// NewReconciler creates a reconciler backed by the users repository.
func NewReconciler(repo RepositoryManager) *Reconciler {
	return &Reconciler{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the reconciler.
func (r *Reconciler) WithLogger(logger Logger) *Reconciler {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// Reconcile returns the authoritative record for the snapshot's user and
// whether the client must be handed a freshly minted token.
//
// A nil snapshot passes through unchanged: the request stays anonymous. When
// the record cannot be loaded the identity is dropped entirely and the
// request continues as anonymous; surfacing a distinct error here would let
// a stale token distinguish "deleted" from "never existed".
func (r *Reconciler) Reconcile(ctx context.Context, snapshot *Snapshot) (*User, bool) {
	if snapshot == nil {
		return nil, false
	}

	user, err := r.repo.Users().GetByIdentifier(ctx, snapshot.UserID)
	if err != nil {
		r.logger.Warn("reconcile dropped identity", "user_id", snapshot.UserID, "error", err)
		return nil, false
	}

	// the identifier is the lookup key, not a diffable attribute
	if snapshot.MatchesUser(user) {
		return user, false
	}

	return user, true
}
