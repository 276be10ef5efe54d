package accounts_test

import (
	"testing"

	accounts "github.com/velaro-dev/go-accounts"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUser() *accounts.User {
	return &accounts.User{
		ID:       uuid.MustParse("b1946ac9-4d42-4a5a-b7fa-6b2f7f5a1a10"),
		Email:    "pepe@example.com",
		Username: "pepe",
		Role:     accounts.RoleMember,
		Provider: accounts.ProviderLocal,
	}
}

func TestSnapshotOfUser(t *testing.T) {
	t.Run("captures client relevant fields", func(t *testing.T) {
		user := testUser()
		snapshot := accounts.SnapshotOfUser(user)

		require.NotNil(t, snapshot)
		assert.Equal(t, user.ID.String(), snapshot.UserID)
		assert.Equal(t, user.Email, snapshot.Email)
		assert.Equal(t, user.Username, snapshot.Username)
		assert.Equal(t, string(user.Role), snapshot.Role)
		assert.Equal(t, user.Provider, snapshot.Provider)
		assert.Empty(t, snapshot.Redirect)
	})

	t.Run("nil user yields nil snapshot", func(t *testing.T) {
		assert.Nil(t, accounts.SnapshotOfUser(nil))
	})
}

func TestSnapshot_MatchesUser(t *testing.T) {
	t.Run("matches an unchanged record", func(t *testing.T) {
		user := testUser()
		snapshot := accounts.SnapshotOfUser(user)

		assert.True(t, snapshot.MatchesUser(user))
	})

	t.Run("detects a role change", func(t *testing.T) {
		user := testUser()
		snapshot := accounts.SnapshotOfUser(user)

		user.Role = accounts.RoleAdmin

		assert.False(t, snapshot.MatchesUser(user))
	})

	t.Run("detects an email change", func(t *testing.T) {
		user := testUser()
		snapshot := accounts.SnapshotOfUser(user)

		user.Email = "new@example.com"

		assert.False(t, snapshot.MatchesUser(user))
	})

	t.Run("detects a username change", func(t *testing.T) {
		user := testUser()
		snapshot := accounts.SnapshotOfUser(user)

		user.Username = "notpepe"

		assert.False(t, snapshot.MatchesUser(user))
	})

	t.Run("detects a provider change", func(t *testing.T) {
		user := testUser()
		snapshot := accounts.SnapshotOfUser(user)

		user.Provider = "google"

		assert.False(t, snapshot.MatchesUser(user))
	})

	t.Run("redirect hint does not participate in the diff", func(t *testing.T) {
		user := testUser()
		snapshot := accounts.SnapshotOfUser(user).WithRedirect("/somewhere")

		assert.True(t, snapshot.MatchesUser(user))
	})

	t.Run("identifier does not participate in the diff", func(t *testing.T) {
		user := testUser()
		snapshot := accounts.SnapshotOfUser(user)
		snapshot.UserID = uuid.NewString()

		assert.True(t, snapshot.MatchesUser(user))
	})

	t.Run("nil receiver or nil user never matches", func(t *testing.T) {
		var snapshot *accounts.Snapshot
		assert.False(t, snapshot.MatchesUser(testUser()))

		snapshot = accounts.SnapshotOfUser(testUser())
		assert.False(t, snapshot.MatchesUser(nil))
	})
}

func TestSnapshot_WithRedirect(t *testing.T) {
	original := accounts.SnapshotOfUser(testUser())

	copied := original.WithRedirect("/after-login")

	assert.Equal(t, "/after-login", copied.Redirect)
	assert.Empty(t, original.Redirect)
	assert.Equal(t, original.UserID, copied.UserID)
}

func TestSnapshot_Identity(t *testing.T) {
	snapshot := accounts.SnapshotOfUser(testUser())

	identity := snapshot.Identity()
	require.NotNil(t, identity)

	assert.Equal(t, snapshot.UserID, identity.ID())
	assert.Equal(t, snapshot.Email, identity.Email())
	assert.Equal(t, snapshot.Username, identity.Username())
	assert.Equal(t, snapshot.Role, identity.Role())
	assert.Equal(t, snapshot.Provider, identity.Provider())
}
