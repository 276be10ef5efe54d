package accounts

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// TokenVerifier validates tokens and extracts claims without tying callers
// to a specific signing implementation.
type TokenVerifier interface {
	Verify(token string) (*Snapshot, error)
}

// TokenCodec turns identity snapshots into signed opaque bearer tokens and
// back. Issue is a pure function of the snapshot and the signing key; the
// codec holds no state and enforces no expiry of its own.
type TokenCodec struct {
	signingKey []byte
	issuer     string
	audience   jwt.ClaimStrings
	logger     Logger
	clock      Clock
}

// NewTokenCodec creates a codec for the process-wide signing secret. The
// secret is read-only after startup; rotating it invalidates every
// outstanding token at once.
func NewTokenCodec(signingKey []byte, issuer string, audience jwt.ClaimStrings, logger Logger) *TokenCodec {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenCodec{
		signingKey: signingKey,
		issuer:     issuer,
		audience:   audience,
		logger:     logger,
		clock:      systemClock{},
	}
}

// WithClock overrides the time source, used by tests
func (tc *TokenCodec) WithClock(clock Clock) *TokenCodec {
	if clock != nil {
		tc.clock = clock
	}
	return tc
}

// Issue serializes and signs a snapshot into an opaque bearer token.
func (tc *TokenCodec) Issue(snapshot *Snapshot) (string, error) {
	if snapshot == nil {
		return "", errors.New("snapshot must not be nil", errors.CategoryInternal)
	}

	now := tc.clock.Now()
	claims := &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			Issuer:   tc.issuer,
			Subject:  snapshot.UserID,
			Audience: tc.audience,
			IssuedAt: jwt.NewNumericDate(now),
		},
		Snapshot: snapshot,
	}

	return tc.SignClaims(claims)
}

// SignClaims signs arbitrary claims using the configured signing key.
func (tc *TokenCodec) SignClaims(claims *TokenClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(tc.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign token")
	}

	return signedString, nil
}

// Verify parses a token and returns the embedded snapshot. A bad signature
// and a malformed payload are the same failure: ErrInvalidSignature.
func (tc *TokenCodec) Verify(tokenString string) (*Snapshot, error) {
	claims, err := tc.VerifyClaims(tokenString)
	if err != nil {
		return nil, err
	}

	if claims.Snapshot == nil {
		return nil, ErrInvalidSignature
	}

	return claims.Snapshot, nil
}

// VerifyClaims parses a token and returns the full claims payload.
func (tc *TokenCodec) VerifyClaims(tokenString string) (*TokenClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if tc.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(tc.issuer))
	}
	if len(tc.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(tc.audience[0]))
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			tc.logger.Error("TokenCodec verify encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return tc.signingKey, nil
	}, parserOptions...)

	if err != nil {
		tc.logger.Debug("TokenCodec verify failed", "error", err)
		return nil, ErrInvalidSignature
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		tc.logger.Error("TokenCodec verify could not decode claims")
		return nil, ErrInvalidSignature
	}

	return claims, nil
}
