package accounts

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SetResetTokenSQL stamps a reset token and its expiry on a user record in a
// single statement so the two columns can never drift apart.
var SetResetTokenSQL = `UPDATE "users" AS "usr"
SET
	"reset_password_token" = ?,
	"reset_password_expires" = ?
WHERE
	"usr"."deleted_at" IS NULL
AND (
	"usr"."id" = ?
) RETURNING *;`

// RedeemResetTokenSQL is the atomic check-and-clear for password reset
// redemption. The WHERE clause is the compare half of the compare-and-swap:
// the password only changes on the row whose stored token still matches and
// whose expiry is still in the future, and both reset columns clear in the
// same statement. Two racing redemptions of one token update at most one row.
var RedeemResetTokenSQL = `UPDATE "users" AS "usr"
SET
	"password_hash" = ?,
	"reset_password_token" = NULL,
	"reset_password_expires" = NULL
WHERE
	"usr"."deleted_at" IS NULL
AND "usr"."reset_password_token" = ?
AND "usr"."reset_password_expires" > ?
RETURNING *;`

type Users interface {
	repository.Repository[*User]

	Register(ctx context.Context, user *User) (*User, error)
	RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error)
	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)

	SetResetToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) (*User, error)
	SetResetTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string, expires time.Time) (*User, error)
	RedeemResetToken(ctx context.Context, token, passwordHash string, now time.Time) (*User, error)
	RedeemResetTokenTx(ctx context.Context, tx bun.IDB, token, passwordHash string, now time.Time) (*User, error)

	TrackSuccessfulLogin(ctx context.Context, user *User) error
	TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) Register(ctx context.Context, user *User) (*User, error) {
	return a.RegisterTx(ctx, a.db, user)
}

func (a *users) RegisterTx(ctx context.Context, tx bun.IDB, user *User) (*User, error) {
	return a.CreateTx(ctx, tx, user)
}

func (a *users) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	return a.GetByIdentifierTx(ctx, a.db, identifier, criteria...)
}

func (a *users) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (*User, error) {
	options := resolveUserIdentifier(identifier)
	if len(options) == 0 {
		options = []identifierOption{
			{
				column: "id",
				value:  strings.TrimSpace(identifier),
			},
		}
	}

	for _, opt := range options {
		record := &User{}
		q := tx.NewSelect().Model(record)

		for _, c := range criteria {
			q.Apply(c)
		}

		err := q.
			Where(fmt.Sprintf("?TableAlias.%s = ?", opt.column), opt.value).
			Limit(1).
			Scan(ctx)

		if err != nil {
			if repository.IsRecordNotFound(err) {
				continue
			}
			return nil, err
		}

		return record, nil
	}

	return nil, repository.NewRecordNotFound().
		WithMetadata(map[string]any{
			"identifier": identifier,
		})
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *users) SetResetToken(ctx context.Context, id uuid.UUID, token string, expires time.Time) (*User, error) {
	return a.SetResetTokenTx(ctx, a.db, id, token, expires)
}

func (a *users) SetResetTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string, expires time.Time) (*User, error) {
	res, err := a.Repository.RawTx(ctx, tx, SetResetTokenSQL, token, expires, id.String())
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return res[0], nil
}

func (a *users) RedeemResetToken(ctx context.Context, token, passwordHash string, now time.Time) (*User, error) {
	return a.RedeemResetTokenTx(ctx, a.db, token, passwordHash, now)
}

func (a *users) RedeemResetTokenTx(ctx context.Context, tx bun.IDB, token, passwordHash string, now time.Time) (*User, error) {
	res, err := a.Repository.RawTx(ctx, tx, RedeemResetTokenSQL, passwordHash, token, now)
	if err != nil {
		return nil, err
	}

	// zero rows means the token was wrong, already redeemed, or expired;
	// callers cannot tell the three apart
	if len(res) == 0 {
		return nil, repository.NewRecordNotFound()
	}

	return res[0], nil
}

func (a *users) TrackSuccessfulLogin(ctx context.Context, user *User) error {
	return a.TrackSuccessfulLoginTx(ctx, a.db, user)
}

func (a *users) TrackSuccessfulLoginTx(ctx context.Context, tx bun.IDB, user *User) error {
	loggedInAt := time.Now()
	_, err := tx.NewRaw(`
		UPDATE "users" AS "usr"
		SET
			"loggedin_at" = ?
		WHERE
			("usr".id = ?)
			AND "usr"."deleted_at" IS NULL;
	`, loggedInAt, user.ID).Exec(ctx)

	return err
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.Role == "" {
		record.Role = DefaultRole
	}

	record.EnsureProvider()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

type identifierOption struct {
	column string
	value  string
}

func resolveUserIdentifier(identifier string) []identifierOption {
	trimmed := strings.TrimSpace(identifier)
	if trimmed == "" {
		return nil
	}

	options := make([]identifierOption, 0, 3)

	if isUUID(trimmed) {
		options = append(options, identifierOption{
			column: "id",
			value:  trimmed,
		})
	}

	if isEmail(trimmed) {
		options = append(options, identifierOption{
			column: "email",
			value:  trimmed,
		})
	}

	options = append(options, identifierOption{
		column: "username",
		value:  trimmed,
	})

	return options
}

func isEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func isUUID(identifier string) bool {
	_, err := uuid.Parse(identifier)
	return err == nil
}
