package accounts

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// UserStore is the slice of the repository the provider needs.
type UserStore interface {
	GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error)
	TrackSuccessfulLogin(ctx context.Context, user *User) error
}

// UserProvider resolves identities against the user store
type UserProvider struct {
	store     UserStore
	Validator func(*User) error
	logger    Logger
}

// NewUserProvider will create a new UserProvider
func NewUserProvider(store UserStore) *UserProvider {
	return &UserProvider{
		store:     store,
		logger:    defLogger{},
		Validator: defaultValidator,
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

func (u *UserProvider) validate(user *User) error {
	if u.Validator != nil {
		return u.Validator(user)
	}
	return defaultValidator(user)
}

// VerifyIdentity will find the user, compare to the password, and return identity
func (u UserProvider) VerifyIdentity(ctx context.Context, identifier, password string) (Identity, error) {
	user, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.IsNotFound(err) {
			// a missing user and a bad password are the same failure
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if user == nil {
		return nil, ErrIdentityNotFound
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		return nil, ErrMismatchedHashAndPassword
	}

	if err := u.store.TrackSuccessfulLogin(ctx, user); err != nil {
		u.logger.Error("failed to track successful login", "error", err)
	}

	if err := u.validate(user); err != nil {
		return nil, err
	}

	return userIdentity{user: user}, nil
}

func (u UserProvider) FindIdentityByIdentifier(ctx context.Context, identifier string) (Identity, error) {
	user, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if user == nil {
		return nil, ErrIdentityNotFound
	}

	if err := u.validate(user); err != nil {
		return nil, err
	}

	return userIdentity{user: user}, nil
}

// userIdentity adapts a User into the Identity interface.
type userIdentity struct {
	user *User
}

func (a userIdentity) ID() string {
	if a.user == nil {
		return ""
	}
	return a.user.ID.String()
}

func (a userIdentity) Username() string {
	if a.user == nil {
		return ""
	}
	return a.user.Username
}

func (a userIdentity) Email() string {
	if a.user == nil {
		return ""
	}
	return a.user.Email
}

func (a userIdentity) Role() string {
	if a.user == nil {
		return ""
	}
	return string(a.user.Role)
}

func (a userIdentity) Provider() string {
	if a.user == nil {
		return ""
	}
	return a.user.Provider
}

var _ Identity = userIdentity{}

// NewIdentityFromUser returns an Identity adapter for the provided user.
func NewIdentityFromUser(user *User) Identity {
	if user == nil {
		return nil
	}
	return userIdentity{user: user}
}

func defaultValidator(u *User) error {
	if IsValidRole(u.Role) {
		return nil
	}
	return errors.New("user has an unknown or invalid role", errors.CategoryAuth).
		WithTextCode("INVALID_ROLE").
		WithMetadata(map[string]any{"role": u.Role, "user_id": u.ID.String()})
}
