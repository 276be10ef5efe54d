package accounts

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

type Middleware interface {
	Impersonate(c router.Context, identifier string) error
	ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc
}

// genericResetMessage never reveals whether the identifier matched an account
const genericResetMessage = "If that account exists, a reset email is on its way"

// UpstreamIdentityFunc extracts an identity already authenticated by a
// federated provider from the completion request. The federation handshake
// itself lives upstream; only its completion is handled here.
type UpstreamIdentityFunc func(ctx router.Context) (Identity, error)

// RegisterAuthRoutes mounts the authentication surface on a router.
func RegisterAuthRoutes[T any](app router.Router[T], opts ...AuthControllerOption) {

	controller := NewAuthController(opts...)

	app.Post(controller.Routes.Login, controller.LoginPost).
		SetName("sign-in.post")

	app.Get(controller.Routes.Logout, controller.LogOut).SetName("sign-out.get")

	app.Post(controller.Routes.Register, controller.RegistrationCreate).
		SetName("register.post")

	app.Post(controller.Routes.PasswordReset, controller.PasswordResetPost).
		SetName("pwd-reset.post")

	app.Post(fmt.Sprintf("%s/:token", controller.Routes.PasswordReset), controller.PasswordResetExecute).
		SetName("pwd-reset-do.post")

	if controller.UpstreamIdentity != nil {
		app.Get(controller.Routes.ExternalCallback, controller.ExternalLoginCallback).
			SetName("external-callback.get")
	}
}

type AuthControllerRoutes struct {
	Login            string
	Logout           string
	Register         string
	PasswordReset    string
	ExternalCallback string
}

type AuthController struct {
	Debug            bool
	Logger           Logger
	Repo             RepositoryManager
	Routes           *AuthControllerRoutes
	Auther           HTTPAuthenticator
	Config           Config
	Mailer           Mailer
	MailTemplate     ResetMailTemplate
	UpstreamIdentity UpstreamIdentityFunc
	ErrorHandler     router.ErrorHandler
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger:       defLogger{},
		ErrorHandler: defaultErrHandler,
		MailTemplate: NewResetMailTemplate(),
		Routes: &AuthControllerRoutes{
			Login:            "/login",
			Logout:           "/logout",
			Register:         "/register",
			PasswordReset:    "/password-reset",
			ExternalCallback: "/auth/callback",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing HTTPAuthenticator in auth controller...")
	}

	if c.Config == nil {
		panic("Missing Config in auth controller...")
	}

	if c.Mailer == nil {
		c.Mailer = NewConsoleMailer(c.Logger)
	}

	return c
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `form:"identifier" json:"identifier"`
	Password   string `form:"password" json:"password"`
	RememberMe bool   `form:"remember_me" json:"remember_me"`
}

// GetIdentifier returns the login identifier
func (r LoginRequest) GetIdentifier() string { return r.Identifier }

// GetPassword returns the login password
func (r LoginRequest) GetPassword() string { return r.Password }

// GetExtendedSession returns true for remember-me sessions
func (r LoginRequest) GetExtendedSession() bool { return r.RememberMe }

// Validate will validate the payload
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Identifier, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return ctx.JSON(fiber.StatusBadRequest, map[string]any{
			"message": "Error parsing body",
			"status":  fiber.StatusBadRequest,
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(fiber.StatusBadRequest, map[string]any{
			"errors": FormatValidationErrors(err),
			"status": fiber.StatusBadRequest,
		})
	}

	if a.Debug {
		fmt.Println("======= AUTH LOGIN ======")
		fmt.Println(print.MaybePrettyJSON(payload))
		fmt.Println("=========================")
	}

	token, err := a.Auther.Login(ctx, payload)
	if err != nil {
		// wrong identifier and wrong password collapse to one denial
		a.Logger.Error("login denied", "error", err)
		return ctx.JSON(fiber.StatusUnauthorized, map[string]any{
			"message": "Invalid credentials",
			"status":  fiber.StatusUnauthorized,
		})
	}

	redirect := a.Auther.GetRedirect(ctx, a.Config.GetLoginRedirect())

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"token":    token,
		"redirect": redirect,
	})
}

func (a *AuthController) LogOut(ctx router.Context) error {
	a.Auther.Logout(ctx)
	return ctx.Redirect(a.Routes.Login, fiber.StatusSeeOther)
}

// RegistrationRequest payload
type RegistrationRequest struct {
	Name            string `form:"name" json:"name"`
	Username        string `form:"username" json:"username"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r RegistrationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(PasswordMinLen, PasswordMaxLen)),
		validation.Field(&r.ConfirmPassword, validation.Required, validation.By(ValidateStringEquals(r.Password))),
	)
}

func (a *AuthController) RegistrationCreate(ctx router.Context) error {
	payload := new(RegistrationRequest)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register parse payload", "error", err)
		return ctx.JSON(fiber.StatusBadRequest, map[string]any{
			"message": "Error parsing body",
			"status":  fiber.StatusBadRequest,
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(fiber.StatusBadRequest, map[string]any{
			"errors": FormatValidationErrors(err),
			"status": fiber.StatusBadRequest,
		})
	}

	var res *RegisterUserResponse

	input := RegisterUserMessage{
		Name:            payload.Name,
		Username:        payload.Username,
		Email:           payload.Email,
		Password:        payload.Password,
		ConfirmPassword: payload.ConfirmPassword,
		OnResponse: func(resp *RegisterUserResponse) {
			res = resp
		},
	}

	register := NewRegisterUserHandler(a.Repo).WithLogger(a.Logger)

	if err := register.Execute(ctx.Context(), input); err != nil {
		if fields, ok := FieldErrorsFromError(err); ok {
			return ctx.JSON(fiber.StatusBadRequest, map[string]any{
				"errors": fields,
				"status": fiber.StatusBadRequest,
			})
		}

		a.Logger.Error("register execute", "error", err)
		return ctx.JSON(fiber.StatusInternalServerError, map[string]any{
			"message": "Registration failed",
			"status":  fiber.StatusInternalServerError,
		})
	}

	if a.Debug {
		fmt.Println(print.MaybePrettyJSON(res))
	}

	token, redirect, err := a.Auther.CompleteExternalLogin(ctx, NewIdentityFromUser(res.User))
	if err != nil {
		a.Logger.Error("register session issue", "error", err)
		return ctx.JSON(fiber.StatusInternalServerError, map[string]any{
			"message": "Registration failed",
			"status":  fiber.StatusInternalServerError,
		})
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"token":    token,
		"redirect": redirect,
	})
}

// PasswordResetRequestPayload holds values for password reset
type PasswordResetRequestPayload struct {
	Email string `form:"email" json:"email"`
}

// Validate will validate the payload
func (r PasswordResetRequestPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
	)
}

func (a *AuthController) PasswordResetPost(ctx router.Context) error {
	payload := new(PasswordResetRequestPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("password reset parse payload", "error", err)
		return ctx.JSON(fiber.StatusBadRequest, map[string]any{
			"message": "Error parsing body",
			"status":  fiber.StatusBadRequest,
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.JSON(fiber.StatusBadRequest, map[string]any{
			"errors": FormatValidationErrors(err),
			"status": fiber.StatusBadRequest,
		})
	}

	req := RequestPasswordResetMessage{
		Identifier: payload.Email,
		ResetURL:   a.Routes.PasswordReset,
	}

	handler := NewRequestPasswordResetHandler(a.Repo).
		WithMailer(a.Mailer).
		WithTemplate(a.MailTemplate).
		WithLogger(a.Logger)

	if err := handler.Execute(ctx.Context(), req); err != nil {
		if goerrors.IsNotFound(err) {
			// fold the miss into the generic response
			return ctx.JSON(fiber.StatusOK, map[string]any{
				"message": genericResetMessage,
				"status":  fiber.StatusOK,
			})
		}

		a.Logger.Error("password reset request", "error", err)
		return ctx.JSON(fiber.StatusInternalServerError, map[string]any{
			"message": "Could not process password reset",
			"status":  fiber.StatusInternalServerError,
		})
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"message": genericResetMessage,
		"status":  fiber.StatusOK,
	})
}

// PasswordResetVerifyPayload holds values for password reset
type PasswordResetVerifyPayload struct {
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

func (a *AuthController) PasswordResetExecute(ctx router.Context) error {
	resetToken := ctx.Param("token")

	payload := new(PasswordResetVerifyPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("password reset parse payload", "error", err)
		return ctx.JSON(fiber.StatusBadRequest, map[string]any{
			"message": "Error parsing body",
			"status":  fiber.StatusBadRequest,
		})
	}

	var res *RedeemPasswordResetResponse

	input := RedeemPasswordResetMessage{
		Token:           resetToken,
		Password:        payload.Password,
		ConfirmPassword: payload.ConfirmPassword,
		OnResponse: func(resp *RedeemPasswordResetResponse) {
			res = resp
		},
	}

	redeem := NewRedeemPasswordResetHandler(a.Repo).WithLogger(a.Logger)

	if err := redeem.Execute(ctx.Context(), input); err != nil {
		if fields, ok := FieldErrorsFromError(err); ok {
			return ctx.JSON(fiber.StatusBadRequest, map[string]any{
				"errors": fields,
				"status": fiber.StatusBadRequest,
			})
		}

		// wrong, used, and expired tokens are indistinguishable here
		return ctx.JSON(fiber.StatusBadRequest, map[string]any{
			"message": "Invalid or expired password reset token",
			"status":  fiber.StatusBadRequest,
		})
	}

	token, redirect, err := a.Auther.CompleteExternalLogin(ctx, NewIdentityFromUser(res.User))
	if err != nil {
		a.Logger.Error("password reset session issue", "error", err)
		return ctx.JSON(fiber.StatusInternalServerError, map[string]any{
			"message": "Could not establish session",
			"status":  fiber.StatusInternalServerError,
		})
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"token":    token,
		"redirect": redirect,
	})
}

// ExternalLoginCallback finishes a federated login. The upstream provider
// has already authenticated the user; this handler only issues the
// first-party token and resolves the pending redirect hint.
func (a *AuthController) ExternalLoginCallback(ctx router.Context) error {
	identity, err := a.UpstreamIdentity(ctx)
	if err != nil {
		a.Logger.Error("external identity error", "error", err)
		return ctx.JSON(fiber.StatusUnauthorized, map[string]any{
			"message": "Authentication failed",
			"status":  fiber.StatusUnauthorized,
		})
	}

	token, redirect, err := a.Auther.CompleteExternalLogin(ctx, identity)
	if err != nil {
		return ctx.JSON(fiber.StatusUnauthorized, map[string]any{
			"message": "Authentication failed",
			"status":  fiber.StatusUnauthorized,
		})
	}

	return ctx.JSON(fiber.StatusOK, map[string]any{
		"token":    token,
		"redirect": redirect,
	})
}

func defaultErrHandler(c router.Context, err error) error {
	return c.JSON(fiber.StatusInternalServerError, map[string]any{
		"message": err.Error(),
		"status":  fiber.StatusInternalServerError,
	})
}
