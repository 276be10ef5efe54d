package accounts

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterUserMessage struct {
	Name            string `json:"name"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	Role            string `json:"role"`
	UseHashid       bool
	OnResponse      func(resp *RegisterUserResponse)
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate checks required fields before any store access.
func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(
			&e.Name,
			validation.Required,
		),
		validation.Field(
			&e.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&e.Password,
			validation.Required,
			validation.Length(PasswordMinLen, PasswordMaxLen),
		),
		validation.Field(
			&e.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(e.Password)),
		),
	)
}

// RegisterUserResponse carries the persisted record.
type RegisterUserResponse struct {
	User *User
}

type RegisterUserHandler struct {
	repo   RepositoryManager
	logger Logger
}

// NewRegisterUserHandler creates a handler with sane defaults.
func NewRegisterUserHandler(repo RepositoryManager) *RegisterUserHandler {
	return &RegisterUserHandler{
		repo:   repo,
		logger: defLogger{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *RegisterUserHandler) WithLogger(logger Logger) *RegisterUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) error {
	if err := event.Validate(); err != nil {
		return NewValidationError(FormatValidationErrors(err))
	}

	user := &User{}
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			var richErr *goerrors.Error
			if goerrors.As(err, &richErr) {
				return goerrors.Wrap(richErr, goerrors.CategoryValidation, "invalid password provided")
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash password")
		}

		user.PasswordHash = hash
		user.Email = event.Email
		user.Name = event.Name
		user.Role = UserRole(event.Role)
		user.Username = getUsername(event.Username, event.Email)
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			// the uniqueness constraint is enforced by the store; whatever
			// engine specific conflict comes back maps to one field error
			if IsDuplicateKeyError(err) {
				return NewValidationError([]FieldError{{
					Param: "email",
					Msg:   "email already exists",
					Value: event.Email,
				}})
			}
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not create user")
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}

		return goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(&RegisterUserResponse{User: user})
	}

	return nil
}

func getUsername(username, email string) string {
	if username != "" {
		return username
	}

	if strings.Contains(email, "@") {
		username = strings.Split(email, "@")[0]
	}

	return username
}
