package domain

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "trustlessid/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseUserID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseUserID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseSessionID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		id, err := ParseUserID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, UserID(validUUID), id)
	})
}

func TestParseID_SecurityInvariants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE users;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseUserID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestParseCredentialID(t *testing.T) {
	t.Run("trims surrounding whitespace", func(t *testing.T) {
		id, err := ParseCredentialID("  cred_a1b2c3d4e5f6 \n")
		require.NoError(t, err)
		assert.Equal(t, CredentialID("cred_a1b2c3d4e5f6"), id)
	})

	t.Run("accepts ids that were never issued", func(t *testing.T) {
		id, err := ParseCredentialID("nonexistent_id")
		require.NoError(t, err)
		assert.Equal(t, "nonexistent_id", id.String())
	})

	for _, input := range []string{"", "   ", "\t\n"} {
		t.Run("rejects blank "+strconv.Quote(input), func(t *testing.T) {
			_, err := ParseCredentialID(input)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}

	t.Run("malformed ids parse but are not issuable", func(t *testing.T) {
		for _, input := range []string{strings.Repeat("x", 65), "cred a1", "cred_\x00", "\xff\xfe"} {
			id, err := ParseCredentialID(input)
			require.NoError(t, err, "%q", input)
			assert.False(t, id.Issuable(), "%q", input)
		}
	})

	t.Run("minted ids are issuable", func(t *testing.T) {
		assert.True(t, NewCredentialID().Issuable())
		assert.True(t, CredentialID(strings.Repeat("x", 64)).Issuable())
	})
}

func TestParseDocumentIDStaysStrict(t *testing.T) {
	for _, input := range []string{"", strings.Repeat("x", 65), "doc a1"} {
		_, err := ParseDocumentID(input)
		require.Error(t, err, "%q", input)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	}
}

func TestMintedIDsShape(t *testing.T) {
	credPattern := regexp.MustCompile(`^cred_[0-9a-f]{12}$`)
	docPattern := regexp.MustCompile(`^doc_[0-9a-f]{12}$`)

	seen := make(map[CredentialID]struct{})
	for range 100 {
		id := NewCredentialID()
		assert.Regexp(t, credPattern, id.String())
		_, dup := seen[id]
		assert.False(t, dup, "credential ids must not repeat")
		seen[id] = struct{}{}

		assert.Regexp(t, docPattern, NewDocumentID().String())
	}
}

func TestParseDocumentType(t *testing.T) {
	for _, valid := range []string{"passport", "drivers_license", "national_id"} {
		dt, err := ParseDocumentType(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, dt.String())
	}

	_, err := ParseDocumentType("")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = ParseDocumentType("library_card")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	assert.Equal(t, "Driver's License", DocumentTypeDriversLicense.Label())
}

func TestTypedUUIDsMarshalAsStrings(t *testing.T) {
	u := uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")
	b, err := json.Marshal(struct {
		User    UserID    `json:"user"`
		Session SessionID `json:"session"`
	}{UserID(u), SessionID(u)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"user":"550e8400-e29b-41d4-a716-446655440000","session":"550e8400-e29b-41d4-a716-446655440000"}`, string(b))

	var back struct {
		User UserID `json:"user"`
	}
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, UserID(u), back.User)
}
