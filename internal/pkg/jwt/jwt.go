package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	ClaimEmployeeID = "employee_id"
	ClaimType       = "type"

	TokenTypeAccess = "access"
	TokenTypeSSE    = "sse"
)

var ErrMissingEmployeeClaim = errors.New("token has no employee_id claim")

// Service verifies access tokens issued by the identity provider and mints
// short-lived stream tokens for the delivery event stream.
type Service interface {
	JWTAuth() *jwtauth.JWTAuth
	GenerateSSEToken(employeeID string) (token string, expiresIn int, err error)
	ValidateSSEToken(tokenString string) (employeeID string, err error)
}

type JWTService struct {
	tokenAuth *jwtauth.JWTAuth
	sseTTL    time.Duration
}

func NewJWTService(secretKey string) Service {
	return &JWTService{
		tokenAuth: jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		sseTTL:    5 * time.Minute,
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

// GenerateSSEToken generates a short-lived token for SSE connections
func (j *JWTService) GenerateSSEToken(employeeID string) (token string, expiresIn int, err error) {
	expiresAt := time.Now().Add(j.sseTTL).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		ClaimEmployeeID: employeeID,
		ClaimType:       TokenTypeSSE,
		"exp":           expiresAt,
	})
	if err != nil {
		return "", 0, err
	}

	return tokenString, int(j.sseTTL.Seconds()), nil
}

// ValidateSSEToken validates an SSE token and returns the employee ID
func (j *JWTService) ValidateSSEToken(tokenString string) (employeeID string, err error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return "", err
	}

	tokenType, ok := token.Get(ClaimType)
	if !ok || tokenType != TokenTypeSSE {
		return "", jwt.ErrInvalidJWT()
	}

	raw, ok := token.Get(ClaimEmployeeID)
	if !ok {
		return "", ErrMissingEmployeeClaim
	}
	employeeID, ok = raw.(string)
	if !ok || employeeID == "" {
		return "", ErrMissingEmployeeClaim
	}

	return employeeID, nil
}

// EmployeeIDFromContext reads the verified employee_id claim placed in ctx by jwtauth.
func EmployeeIDFromContext(ctx context.Context) (string, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to extract claims from context: %w", err)
	}

	employeeID, ok := claims[ClaimEmployeeID].(string)
	if !ok || employeeID == "" {
		return "", ErrMissingEmployeeClaim
	}
	return employeeID, nil
}
