package fixtures

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/payroll-backend-go/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/require"
)

const TestSecret = "test-secret"

// TokenAuth matches the verifier the router builds from TestSecret.
var TokenAuth = jwtauth.New("HS256", []byte(TestSecret), nil)

// AccessToken signs an access token for employeeID.
func AccessToken(t *testing.T, employeeID string) string {
	t.Helper()
	_, token, err := TokenAuth.Encode(map[string]interface{}{
		jwt.ClaimEmployeeID: employeeID,
		jwt.ClaimType:       jwt.TokenTypeAccess,
	})
	require.NoError(t, err)
	return token
}

// ContextFor returns a context carrying verified claims for employeeID, the
// same shape jwtauth.Verifier produces.
func ContextFor(t *testing.T, employeeID string) context.Context {
	t.Helper()
	token, err := jwtauth.VerifyToken(TokenAuth, AccessToken(t, employeeID))
	require.NoError(t, err)
	return jwtauth.NewContext(context.Background(), token, nil)
}
