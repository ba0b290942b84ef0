package vc

import (
	"encoding/hex"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"

	"trustlessid/internal/evidence/vc/models"
)

// ContentHash is the Keccak-256 digest of the credential's canonical fields,
// rendered the way an EVM transaction hash is: "0x" + 64 hex characters.
func ContentHash(c models.Credential) string {
	canonical := strings.Join([]string{
		string(c.ID),
		c.UserID.String(),
		string(c.DocumentID),
		string(c.Type),
		c.IssuedAt.UTC().Format(time.RFC3339Nano),
		c.ExpiresAt.UTC().Format(time.RFC3339Nano),
	}, "|")

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(canonical))
	return "0x" + hex.EncodeToString(h.Sum(nil))
}
