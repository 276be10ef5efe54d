package accounts

import (
	"context"
	"reflect"
)

// Auther turns verified identities into bearer tokens and tokens back into
// identities, with the Reconciler in between on each request.
type Auther struct {
	provider   IdentityProvider
	codec      *TokenCodec
	reconciler *Reconciler
	logger     Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, repo RepositoryManager, opts Config) *Auther {
	codec := NewTokenCodec(
		[]byte(opts.GetSigningKey()),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		provider:   provider,
		codec:      codec,
		reconciler: NewReconciler(repo),
		logger:     defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// TokenCodec returns the codec used by this Authenticator
func (s *Auther) TokenCodec() *TokenCodec {
	return s.codec
}

// Reconciler returns the per-request reconciler
func (s *Auther) Reconciler() *Reconciler {
	return s.reconciler
}

// Login verifies credentials and returns the first issued token.
func (s *Auther) Login(ctx context.Context, identifier, password string) (string, error) {
	identity, err := s.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		s.logger.Error("Login verify identity error", "error", err)
		return "", err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return "", ErrIdentityNotFound
	}

	return s.codec.Issue(SnapshotOfIdentity(identity))
}

// CompleteExternalLogin turns an identity already authenticated by an
// upstream federated provider into a first-party token. The redirect hint,
// if any, rides inside the snapshot.
func (s *Auther) CompleteExternalLogin(ctx context.Context, identity Identity, redirect string) (string, error) {
	if identity == nil || reflect.ValueOf(identity).IsZero() {
		return "", ErrIdentityNotFound
	}

	snapshot := SnapshotOfIdentity(identity)
	if redirect != "" {
		snapshot = snapshot.WithRedirect(redirect)
	}

	return s.codec.Issue(snapshot)
}

// SnapshotFromToken verifies a bearer token and returns its embedded snapshot.
func (s *Auther) SnapshotFromToken(raw string) (*Snapshot, error) {
	snapshot, err := s.codec.Verify(raw)
	if err != nil {
		s.logger.Error("SnapshotFromToken validation failed", "error", err)
		return nil, err
	}

	return snapshot, nil
}

// IdentityFromSnapshot reconciles the snapshot against the store and returns
// the authoritative identity.
func (s *Auther) IdentityFromSnapshot(ctx context.Context, snapshot *Snapshot) (Identity, error) {
	user, _ := s.reconciler.Reconcile(ctx, snapshot)
	if user == nil {
		return nil, ErrIdentityNotFound
	}

	return NewIdentityFromUser(user), nil
}

var _ Authenticator = (*Auther)(nil)
