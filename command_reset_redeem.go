package accounts

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// RedeemPasswordResetMessage carries a presented reset token and the new
// credentials.
type RedeemPasswordResetMessage struct {
	Token           string `json:"token" doc:"Reset token from the emailed deep link."`
	Password        string `json:"password" doc:"New password."`
	ConfirmPassword string `json:"confirm_password" doc:"Password confirmation."`
	OnResponse      func(resp *RedeemPasswordResetResponse)
}

func (p RedeemPasswordResetMessage) Type() string { return "user.password_reset_redeem" }

// Validate enforces the password policy. This runs before the token is
// looked up so a bad password never burns a valid token.
func (p RedeemPasswordResetMessage) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(
			&p.Password,
			validation.Required,
			validation.Length(PasswordMinLen, PasswordMaxLen),
		),
		validation.Field(
			&p.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(p.Password)),
		),
	)
}

// RedeemPasswordResetResponse reports the user whose password changed.
type RedeemPasswordResetResponse struct {
	User *User
}

// RedeemPasswordResetHandler performs the single-use redemption.
type RedeemPasswordResetHandler struct {
	repo   RepositoryManager
	logger Logger
	clock  Clock
}

// NewRedeemPasswordResetHandler creates a handler with sane defaults.
func NewRedeemPasswordResetHandler(repo RepositoryManager) *RedeemPasswordResetHandler {
	return &RedeemPasswordResetHandler{
		repo:   repo,
		logger: defLogger{},
		clock:  systemClock{},
	}
}

// WithLogger overrides the logger used by the handler.
func (h *RedeemPasswordResetHandler) WithLogger(logger Logger) *RedeemPasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithClock overrides the time source, used by tests.
func (h *RedeemPasswordResetHandler) WithClock(clock Clock) *RedeemPasswordResetHandler {
	if clock != nil {
		h.clock = clock
	}
	return h
}

func (h *RedeemPasswordResetHandler) Execute(ctx context.Context, event RedeemPasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset redemption",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RedeemPasswordResetHandler) execute(ctx context.Context, event RedeemPasswordResetMessage) error {
	if err := event.Validate(); err != nil {
		return NewValidationError(FormatValidationErrors(err))
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	passwordHash, err := HashPassword(event.Password)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
	}

	// single atomic check-and-clear against the store: the password change
	// and the token clearing cannot be separated, and two racing redemptions
	// of the same token yield at most one success
	user, err := h.repo.Users().RedeemResetToken(ctx, event.Token, passwordHash, h.clock.Now())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return ErrResetTokenInvalid
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to redeem password reset token")
	}

	h.logger.Info("password reset redeemed", "user_id", user.ID.String())

	if event.OnResponse != nil {
		event.OnResponse(&RedeemPasswordResetResponse{User: user})
	}

	return nil
}
