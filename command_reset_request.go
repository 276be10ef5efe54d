package accounts

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// RequestPasswordResetMessage asks for a reset token to be issued and mailed.
type RequestPasswordResetMessage struct {
	Identifier string `json:"identifier" example:"pepe.rone@example.com" doc:"Email or username of the account."`
	ResetURL   string `json:"-" doc:"Base URL the emailed deep link points at."`
	OnResponse func(resp *RequestPasswordResetResponse)
}

func (p RequestPasswordResetMessage) Type() string { return "user.password_reset_request" }

// RequestPasswordResetResponse is deliberately uniform: it never reveals
// whether the identifier matched an account.
type RequestPasswordResetResponse struct {
	Success bool
}

// RequestPasswordResetHandler issues single-use reset tokens.
type RequestPasswordResetHandler struct {
	repo     RepositoryManager
	mailer   Mailer
	template ResetMailTemplate
	from     string
	logger   Logger
	clock    Clock
}

// NewRequestPasswordResetHandler creates a handler with sane defaults.
func NewRequestPasswordResetHandler(repo RepositoryManager) *RequestPasswordResetHandler {
	return &RequestPasswordResetHandler{
		repo:     repo,
		mailer:   NewConsoleMailer(nil),
		template: NewResetMailTemplate(),
		from:     "no-reply@localhost",
		logger:   defLogger{},
		clock:    systemClock{},
	}
}

// WithMailer overrides the outbound mail collaborator.
func (h *RequestPasswordResetHandler) WithMailer(mailer Mailer) *RequestPasswordResetHandler {
	if mailer != nil {
		h.mailer = mailer
	}
	return h
}

// WithTemplate overrides the reset mail template.
func (h *RequestPasswordResetHandler) WithTemplate(tpl ResetMailTemplate) *RequestPasswordResetHandler {
	if tpl != nil {
		h.template = tpl
	}
	return h
}

// WithFromAddress sets the sender address on outbound messages.
func (h *RequestPasswordResetHandler) WithFromAddress(from string) *RequestPasswordResetHandler {
	if from != "" {
		h.from = from
	}
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *RequestPasswordResetHandler) WithLogger(logger Logger) *RequestPasswordResetHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// WithClock overrides the time source, used by tests.
func (h *RequestPasswordResetHandler) WithClock(clock Clock) *RequestPasswordResetHandler {
	if clock != nil {
		h.clock = clock
	}
	return h
}

func (h *RequestPasswordResetHandler) Execute(ctx context.Context, event RequestPasswordResetMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password reset request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RequestPasswordResetHandler) execute(ctx context.Context, event RequestPasswordResetMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	token, err := GenerateResetToken()
	if err != nil {
		return err
	}

	user, err := h.repo.Users().GetByIdentifier(ctx, event.Identifier)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			// folded with every other lookup miss so callers cannot probe
			// for registered addresses
			return ErrIdentityNotFound
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password reset")
	}

	expires := h.clock.Now().Add(ResetTokenTTL)

	user, err = h.repo.Users().SetResetToken(ctx, user.ID, token, expires)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store password reset token")
	}

	// the token is live from here on; a mail failure is logged and swallowed,
	// bounded only by the token expiry
	h.deliver(ctx, user, token, event.ResetURL)

	if event.OnResponse != nil {
		event.OnResponse(&RequestPasswordResetResponse{Success: true})
	}

	return nil
}

func (h *RequestPasswordResetHandler) deliver(ctx context.Context, user *User, token, baseURL string) {
	if baseURL == "" {
		baseURL = "/password-reset"
	}

	link := fmt.Sprintf("%s/%s", baseURL, token)

	subject, body, err := h.template.Render(user, link)
	if err != nil {
		h.logger.Error("reset mail template render failed", "error", err)
		return
	}

	msg := MailMessage{
		To:      user.Email,
		From:    h.from,
		Subject: subject,
		Body:    body,
	}

	if err := h.mailer.Send(ctx, msg); err != nil {
		h.logger.Error("reset mail delivery failed", "to", user.Email, "error", err)
	}
}
