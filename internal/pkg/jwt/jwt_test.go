package jwt

import (
	"context"
	"testing"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSSEToken_RoundTrip(t *testing.T) {
	svc := NewJWTService("test-secret")

	token, expiresIn, err := svc.GenerateSSEToken("emp-1")
	require.NoError(t, err)
	assert.Equal(t, 300, expiresIn)

	employeeID, err := svc.ValidateSSEToken(token)
	require.NoError(t, err)
	assert.Equal(t, "emp-1", employeeID)
}

func TestSSEToken_RejectsAccessToken(t *testing.T) {
	svc := NewJWTService("test-secret")
	_, access, err := svc.JWTAuth().Encode(map[string]interface{}{
		ClaimEmployeeID: "emp-1",
		ClaimType:       TokenTypeAccess,
	})
	require.NoError(t, err)

	_, err = svc.ValidateSSEToken(access)
	assert.Error(t, err)
}

func TestSSEToken_RejectsForeignSignature(t *testing.T) {
	other := NewJWTService("other-secret")
	token, _, err := other.GenerateSSEToken("emp-1")
	require.NoError(t, err)

	_, err = NewJWTService("test-secret").ValidateSSEToken(token)
	assert.Error(t, err)
}

func TestEmployeeIDFromContext(t *testing.T) {
	svc := NewJWTService("test-secret")
	token, _, err := svc.JWTAuth().Encode(map[string]interface{}{ClaimEmployeeID: "emp-7", ClaimType: TokenTypeAccess})
	require.NoError(t, err)

	id, err := EmployeeIDFromContext(jwtauth.NewContext(context.Background(), token, nil))
	require.NoError(t, err)
	assert.Equal(t, "emp-7", id)

	_, err = EmployeeIDFromContext(context.Background())
	assert.ErrorIs(t, err, ErrMissingEmployeeClaim)
}
