package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "campusgate/pkg/domain-errors"
)

// TestParseAccountID_Invariants covers the parsing rule at the trust boundary:
// ids must be present, well formed and non-nil.
func TestParseAccountID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseAccountID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseAccountID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseAccountID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		parsed, err := ParseAccountID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, AccountID(valid), parsed)
		assert.False(t, parsed.IsNil())
	})
}

func TestParseID_HostileInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"SQL injection attempt", "'; DROP TABLE accounts;--", true},
		{"Path traversal", "../../../etc/passwd", true},
		{"Null byte injection", "550e8400\x00-e29b-41d4-a716-446655440000", true},
		{"Oversized input", strings.Repeat("a", 1000), true},
		{"Whitespace only", "   ", true},
		{"Uppercase valid UUID", "550E8400-E29B-41D4-A716-446655440000", false},
		{"Valid UUID lowercase", "550e8400-e29b-41d4-a716-446655440000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePlacementID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	valid := uuid.New().String()

	t.Run("all accept valid UUID", func(t *testing.T) {
		_, errAccount := ParseAccountID(valid)
		_, errOrg := ParseOrganizationID(valid)
		_, errProfile := ParseProfileID(valid)
		_, errSubmission := ParseSubmissionID(valid)
		_, errPlacement := ParsePlacementID(valid)

		require.NoError(t, errAccount)
		require.NoError(t, errOrg)
		require.NoError(t, errProfile)
		require.NoError(t, errSubmission)
		require.NoError(t, errPlacement)
	})

	for _, input := range []string{"", "invalid", uuid.Nil.String()} {
		t.Run("all reject: "+input, func(t *testing.T) {
			_, errAccount := ParseAccountID(input)
			_, errOrg := ParseOrganizationID(input)
			_, errProfile := ParseProfileID(input)
			_, errSubmission := ParseSubmissionID(input)
			_, errPlacement := ParsePlacementID(input)

			require.Error(t, errAccount)
			require.Error(t, errOrg)
			require.Error(t, errProfile)
			require.Error(t, errSubmission)
			require.Error(t, errPlacement)
		})
	}
}

func TestIDsEncodeAsUUIDStrings(t *testing.T) {
	accountID := NewAccountID()
	raw, err := json.Marshal(struct {
		ID AccountID `json:"id"`
	}{accountID})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"`+accountID.String()+`"}`, string(raw))

	var decoded struct {
		ID OrganizationID `json:"id"`
	}
	orgID := NewOrganizationID()
	require.NoError(t, json.Unmarshal([]byte(`{"id":"`+orgID.String()+`"}`), &decoded))
	assert.Equal(t, orgID, decoded.ID)

	assert.Error(t, json.Unmarshal([]byte(`{"id":"nope"}`), &decoded))
}
