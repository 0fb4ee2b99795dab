package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

func HashToken(tok string) string {
	sum := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(sum[:])
}

// NewAPIToken returns a fresh bearer token. Only its hash is stored.
func NewAPIToken() string {
	return "dbt_" + strings.ReplaceAll(uuid.NewString(), "-", "") + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	if len(header) < 8 || header[:7] != "Bearer " {
		return "", false
	}
	tok := strings.TrimSpace(header[7:])
	return tok, tok != ""
}
