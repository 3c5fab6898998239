package client

import (
	"testing"

	"github.com/google/uuid"
	"github.com/invoicer/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestNewClient(t *testing.T) {
	userID := uuid.New()

	t.Run("creates client with required fields", func(t *testing.T) {
		c, err := NewClient(userID, "  Acme  ", "a@acme.com")
		require.NoError(t, err)
		assert.Equal(t, "Acme", c.Name)
		assert.Equal(t, "a@acme.com", c.Email)
		assert.Equal(t, userID, c.UserID)
		assert.NotEqual(t, uuid.Nil, c.ID)
		assert.True(t, c.IsOwnedBy(userID))
		assert.False(t, c.IsOwnedBy(uuid.New()))
	})

	tests := []struct {
		name    string
		userID  uuid.UUID
		cname   string
		email   string
		message string
	}{
		{"missing owner", uuid.Nil, "Acme", "a@acme.com", "Owner is required"},
		{"missing name", userID, "   ", "a@acme.com", "Client name is required"},
		{"missing email", userID, "Acme", "", "Client email is required"},
		{"invalid email", userID, "Acme", "not-an-email", "Client email is not a valid email address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.userID, tt.cname, tt.email)
			assert.Nil(t, c)
			require.Error(t, err)
			assert.ErrorIs(t, err, shared.ErrInvalidInput)
			assert.Equal(t, tt.message, err.Error())
		})
	}
}

func TestClient_Apply(t *testing.T) {
	c, err := NewClient(uuid.New(), "Acme", "a@acme.com")
	require.NoError(t, err)
	require.NoError(t, c.SetDetails(Details{Phone: "555-0100", Company: "Acme Inc"}))

	t.Run("nil fields are left unchanged", func(t *testing.T) {
		err := c.Apply(Update{Notes: strPtr("net 30")})
		require.NoError(t, err)
		assert.Equal(t, "Acme", c.Name)
		assert.Equal(t, "555-0100", c.Phone)
		assert.Equal(t, "Acme Inc", c.Company)
		assert.Equal(t, "net 30", c.Notes)
	})

	t.Run("invalid email leaves client untouched", func(t *testing.T) {
		err := c.Apply(Update{Name: strPtr("Renamed"), Email: strPtr("bad")})
		require.Error(t, err)
		assert.Equal(t, "Acme", c.Name)
		assert.Equal(t, "a@acme.com", c.Email)
	})

	t.Run("empty string clears optional field", func(t *testing.T) {
		err := c.Apply(Update{Phone: strPtr("")})
		require.NoError(t, err)
		assert.Empty(t, c.Phone)
	})
}
