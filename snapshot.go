package accounts

import "github.com/google/uuid"

// Snapshot is a point-in-time copy of a user's client-relevant fields,
// embedded in the bearer token at issuance. The server never treats it as
// authoritative, only as a cache to diff against the stored record.
type Snapshot struct {
	UserID   string `json:"uid"`
	Email    string `json:"email,omitempty"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
	Provider string `json:"provider,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// SnapshotOfUser captures the client-relevant fields of a record.
func SnapshotOfUser(user *User) *Snapshot {
	if user == nil {
		return nil
	}
	return &Snapshot{
		UserID:   user.ID.String(),
		Email:    user.Email,
		Username: user.Username,
		Role:     string(user.Role),
		Provider: user.Provider,
	}
}

// SnapshotOfIdentity captures an Identity produced by an upstream provider.
func SnapshotOfIdentity(identity Identity) *Snapshot {
	if identity == nil {
		return nil
	}
	return &Snapshot{
		UserID:   identity.ID(),
		Email:    identity.Email(),
		Username: identity.Username(),
		Role:     identity.Role(),
		Provider: identity.Provider(),
	}
}

// MatchesUser reports whether the snapshot still agrees with the record.
// The identifier is the lookup key, not a diffable attribute, and the
// redirect hint is client-side state: neither participates in the diff.
func (s *Snapshot) MatchesUser(user *User) bool {
	if s == nil || user == nil {
		return false
	}
	return s.Email == user.Email &&
		s.Username == user.Username &&
		s.Role == string(user.Role) &&
		s.Provider == user.Provider
}

// WithRedirect returns a copy carrying a post-login redirect hint.
func (s *Snapshot) WithRedirect(redirect string) *Snapshot {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Redirect = redirect
	return &cp
}

// UserUUID parses the snapshot identifier.
func (s *Snapshot) UserUUID() (uuid.UUID, error) {
	return uuid.Parse(s.UserID)
}

// Identity adapts the snapshot into the Identity interface.
func (s *Snapshot) Identity() Identity {
	if s == nil {
		return nil
	}
	return snapshotIdentity{snapshot: s}
}

type snapshotIdentity struct {
	snapshot *Snapshot
}

func (a snapshotIdentity) ID() string       { return a.snapshot.UserID }
func (a snapshotIdentity) Username() string { return a.snapshot.Username }
func (a snapshotIdentity) Email() string    { return a.snapshot.Email }
func (a snapshotIdentity) Role() string     { return a.snapshot.Role }
func (a snapshotIdentity) Provider() string { return a.snapshot.Provider }

var _ Identity = snapshotIdentity{}
