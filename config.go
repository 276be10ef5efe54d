package accounts

// SimpleConfig is a plain struct implementation of Config for applications
// that configure from code. The signing key is injected once at startup and
// never mutated; rotating it invalidates every outstanding token.
type SimpleConfig struct {
	SigningKey           string
	SigningMethod        string
	ContextKey           string
	TokenLookup          string
	AuthScheme           string
	Issuer               string
	Audience             []string
	RejectedRouteKey     string
	RejectedRouteDefault string
	LoginRedirect        string
}

var _ Config = (*SimpleConfig)(nil)

func (c *SimpleConfig) GetSigningKey() string { return c.SigningKey }

func (c *SimpleConfig) GetSigningMethod() string {
	if c.SigningMethod == "" {
		return "HS256"
	}
	return c.SigningMethod
}

func (c *SimpleConfig) GetContextKey() string {
	if c.ContextKey == "" {
		return "token"
	}
	return c.ContextKey
}

func (c *SimpleConfig) GetTokenLookup() string {
	if c.TokenLookup == "" {
		return "cookie:token,header:Authorization"
	}
	return c.TokenLookup
}

func (c *SimpleConfig) GetAuthScheme() string {
	if c.AuthScheme == "" {
		return "Bearer"
	}
	return c.AuthScheme
}

func (c *SimpleConfig) GetIssuer() string { return c.Issuer }

func (c *SimpleConfig) GetAudience() []string { return c.Audience }

func (c *SimpleConfig) GetRejectedRouteKey() string {
	if c.RejectedRouteKey == "" {
		return "redirect"
	}
	return c.RejectedRouteKey
}

func (c *SimpleConfig) GetRejectedRouteDefault() string {
	if c.RejectedRouteDefault == "" {
		return "/"
	}
	return c.RejectedRouteDefault
}

func (c *SimpleConfig) GetLoginRedirect() string {
	if c.LoginRedirect == "" {
		return "/"
	}
	return c.LoginRedirect
}
