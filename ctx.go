package accounts

import (
	"context"
)

var userCtxKey = &contextKey{"user"}
var snapshotCtxKey = &contextKey{"snapshot"}

type contextKey struct {
	name string
}

// WithContext sets the authoritative User in the given context
func WithContext(r context.Context, user *User) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the user from the context.
func FromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok
}

// WithSnapshotContext sets the inbound token snapshot in the given context
func WithSnapshotContext(r context.Context, snapshot *Snapshot) context.Context {
	return context.WithValue(r, snapshotCtxKey, snapshot)
}

// SnapshotFromContext extracts the inbound snapshot from the context
func SnapshotFromContext(ctx context.Context) (*Snapshot, bool) {
	raw, ok := ctx.Value(snapshotCtxKey).(*Snapshot)
	return raw, ok
}
