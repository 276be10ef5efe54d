package accounts

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/goliatone/go-errors"
)

// resetTokenBytes is the entropy of a generated reset token. Possession of
// the token is the sole credential for a password reset, so it has to be
// unguessable.
const resetTokenBytes = 20

// GenerateResetToken produces a hex encoded random single-use token.
func GenerateResetToken() (string, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to read random bytes for reset token")
	}
	return hex.EncodeToString(buf), nil
}
