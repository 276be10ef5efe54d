package accounts

import (
	"net/http"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/velaro-dev/go-accounts/middleware/jwtware"
)

// RouteAuthenticator bridges the Auther into HTTP: cookie transport,
// protected routes, redirect hints, and the per-request reconciliation that
// keeps client-held tokens in agreement with the store.
type RouteAuthenticator struct {
	auth                   *Auther
	cfg                    Config
	cookieDuration         time.Duration
	extendedCookieDuration time.Duration
	Logger                 Logger
	AuthErrorHandler       func(c router.Context, err error) error
	ErrorHandler           func(c router.Context, err error) error
}

var _ HTTPAuthenticator = (*RouteAuthenticator)(nil)

func NewHTTPAuthenticator(auther *Auther, cfg Config) (*RouteAuthenticator, error) {
	a := &RouteAuthenticator{
		cfg:                    cfg,
		auth:                   auther,
		Logger:                 defLogger{},
		cookieDuration:         24 * time.Hour,
		extendedCookieDuration: 30 * 24 * time.Hour,
	}

	a.ErrorHandler = a.defaultErrHandler
	a.AuthErrorHandler = a.defaultAuthErrHandler

	return a, nil
}

// Auther exposes the underlying authenticator.
func (a *RouteAuthenticator) Auther() *Auther {
	return a.auth
}

func (a RouteAuthenticator) GetCookieDuration() time.Duration {
	return a.cookieDuration
}

func (a RouteAuthenticator) GetExtendedCookieDuration() time.Duration {
	return a.extendedCookieDuration
}

// codecValidator adapts the TokenCodec to the jwtware validator interface.
type codecValidator struct {
	codec *TokenCodec
}

func (v codecValidator) Validate(tokenString string) (jwtware.AuthClaims, error) {
	return v.codec.VerifyClaims(tokenString)
}

// ProtectedRoute guards a route with token verification followed by
// snapshot reconciliation.
func (a *RouteAuthenticator) ProtectedRoute(cfg Config, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		verify := jwtware.New(jwtware.Config{
			ErrorHandler: errorHandler,
			SigningKey: jwtware.SigningKey{
				Key:    []byte(cfg.GetSigningKey()),
				JWTAlg: cfg.GetSigningMethod(),
			},
			AuthScheme:     cfg.GetAuthScheme(),
			ContextKey:     cfg.GetContextKey(),
			TokenLookup:    cfg.GetTokenLookup(),
			TokenValidator: codecValidator{codec: a.auth.TokenCodec()},
		})

		return verify(a.reconcileHandler(hf))
	}
}

// reconcileHandler runs once per authenticated request: it replaces the
// request's working identity with the authoritative record and reissues the
// cookie token when the record drifted from the snapshot the client holds.
func (a *RouteAuthenticator) reconcileHandler(next router.HandlerFunc) router.HandlerFunc {
	return func(ctx router.Context) error {
		raw := ctx.Locals(a.cfg.GetContextKey())
		claims, ok := raw.(AuthClaims)
		if !ok || claims == nil {
			// no authenticated identity, pass through unchanged
			return next(ctx)
		}

		snapshot := claims.IdentitySnapshot()

		user, mustReissue := a.auth.Reconciler().Reconcile(ctx.Context(), snapshot)
		if user == nil {
			// fail closed: the record is gone, the request continues anonymous
			ctx.Locals(a.cfg.GetContextKey(), nil)
			return next(ctx)
		}

		stdCtx := WithContext(ctx.Context(), user)
		stdCtx = WithSnapshotContext(stdCtx, snapshot)
		ctx.SetContext(stdCtx)

		if mustReissue {
			fresh := SnapshotOfUser(user)
			if snapshot != nil && snapshot.Redirect != "" {
				fresh = fresh.WithRedirect(snapshot.Redirect)
			}

			token, err := a.auth.TokenCodec().Issue(fresh)
			if err != nil {
				a.Logger.Error("token reissue failed", "user_id", user.ID.String(), "error", err)
			} else {
				a.setCookieToken(ctx, token, a.cookieDuration)
			}
		}

		return next(ctx)
	}
}

// Login verifies credentials, sets the token cookie, and returns the token
// so handlers can include it in the response body.
func (a *RouteAuthenticator) Login(ctx router.Context, payload LoginPayload) (string, error) {
	token, err := a.auth.Login(ctx.Context(), payload.GetIdentifier(), payload.GetPassword())
	if err != nil {
		a.Logger.Error("Login error: %s", err)
		return "", err
	}

	duration := a.cookieDuration
	if payload.GetExtendedSession() {
		duration = a.extendedCookieDuration
	}

	a.setCookieToken(ctx, token, duration)
	return token, nil
}

// IssueSession sets the token cookie for an already built token, used after
// registration and password reset redemption.
func (a *RouteAuthenticator) IssueSession(ctx router.Context, token string) {
	a.setCookieToken(ctx, token, a.cookieDuration)
}

// CompleteExternalLogin finishes an upstream federated flow: it issues a
// first-party token for the identity, honoring a previously set redirect
// cookie, and hands the session to the client.
func (a *RouteAuthenticator) CompleteExternalLogin(ctx router.Context, identity Identity) (string, string, error) {
	redirect := a.GetRedirectOrDefault(ctx)

	token, err := a.auth.CompleteExternalLogin(ctx.Context(), identity, redirect)
	if err != nil {
		a.Logger.Error("External login completion error", "error", err)
		return "", "", err
	}

	a.setCookieToken(ctx, token, a.cookieDuration)
	return token, redirect, nil
}

func (a *RouteAuthenticator) Logout(ctx router.Context) {
	a.cookieDel(ctx, a.cfg.GetContextKey())
}

func (a *RouteAuthenticator) MakeClientRouteAuthErrorHandler(optional bool) func(router.Context, error) error {
	return func(ctx router.Context, err error) error {
		var richErr *errors.Error

		if errors.As(err, &richErr) && richErr.TextCode == "INVALID_SIGNATURE" {
			// tampered or malformed tokens collapse to plain unauthenticated
			richErr = ErrInvalidSignature
		} else {
			richErr = errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
				WithCode(errors.CodeUnauthorized)
		}

		if optional {
			a.Logger.Info("Optional auth failed, proceeding", "error", richErr.Message)
			return ctx.Next()
		}

		return a.ErrorHandler(ctx, richErr)
	}
}

func (a *RouteAuthenticator) GetRedirect(ctx router.Context, def ...string) string {
	rejectedRoute := a.cfg.GetRejectedRouteKey()
	r := ctx.Cookies(rejectedRoute)
	if r == "" {
		return def[0]
	}
	a.cookieDel(ctx, rejectedRoute)
	return r
}

func (a *RouteAuthenticator) GetRedirectOrDefault(ctx router.Context) string {
	rejectedRoute := a.cfg.GetRejectedRouteKey()
	refererHeader := string(ctx.Referer())

	r := ctx.Cookies(rejectedRoute, refererHeader)
	if r == "" {
		r = a.cfg.GetRejectedRouteDefault()
	}
	a.cookieDel(ctx, rejectedRoute)
	return r
}

func (a *RouteAuthenticator) SetRedirect(ctx router.Context) {
	rejectedRoute := a.cfg.GetRejectedRouteKey()

	a.Logger.Info("Setting redirect cookie", "key", rejectedRoute, "path", ctx.OriginalURL())

	ctx.Cookie(&router.Cookie{
		Name:     rejectedRoute,
		Value:    ctx.OriginalURL(),
		Expires:  time.Now().Add(time.Minute * 5),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

// Impersonate looks up an identity by identifier and hands the session to it.
func (a *RouteAuthenticator) Impersonate(c router.Context, identifier string) error {
	identity, err := a.auth.provider.FindIdentityByIdentifier(c.Context(), identifier)
	if err != nil {
		a.Logger.Error("Impersonate identity error", "error", err)
		return err
	}

	token, err := a.auth.TokenCodec().Issue(SnapshotOfIdentity(identity))
	if err != nil {
		a.Logger.Error("Impersonate token error", "error", err)
		return err
	}

	a.setCookieToken(c, token, a.cookieDuration)
	return nil
}

func (a *RouteAuthenticator) setCookieToken(c router.Context, val string, duration time.Duration) {
	c.Cookie(&router.Cookie{
		Name:     a.cfg.GetContextKey(),
		Value:    val,
		Expires:  time.Now().Add(duration),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (a *RouteAuthenticator) defaultAuthErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryAuth, "An unexpected authentication error").
			WithCode(errors.CodeUnauthorized)
	}

	a.Logger.Info(
		"Authentication error, redirecting to login",
		"error", richErr.Message,
		"text_code", richErr.TextCode,
		"path", c.OriginalURL(),
	)

	a.SetRedirect(c)

	statusCode := http.StatusSeeOther
	if c.Method() == string(router.GET) {
		statusCode = http.StatusFound
	}
	return c.Redirect("/login", statusCode)
}

func (a *RouteAuthenticator) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	switch richErr.Category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		return a.AuthErrorHandler(c, richErr)
	default:
		return c.JSON(richErr.Code, map[string]any{
			"message": richErr.Message,
			"status":  richErr.Code,
		})
	}
}
