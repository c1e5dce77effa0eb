package jwt

import (
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	TokenTypeAccess = "access"
	TokenTypeStream = "stream"
)

var ErrInvalidStreamToken = errors.New("invalid stream token")

type Service interface {
	GenerateAccessToken(userID string, companyID string) (token string, expiresAt int64, err error)
	GenerateStreamToken(userID string, companyID string) (token string, expiresIn int, err error)
	ValidateStreamToken(tokenString string) (companyID string, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpirationTime string
	streamTokenExpiration     time.Duration
	tokenAuth                 *jwtauth.JWTAuth
	now                       func() time.Time
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func NewJWTService(secretKey string, accessTokenExpirationTime string, streamTokenExpiration time.Duration) Service {
	return &JWTService{
		accessTokenExpirationTime: accessTokenExpirationTime,
		streamTokenExpiration:     streamTokenExpiration,
		tokenAuth:                 jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		now:                       time.Now,
	}
}

// GenerateAccessToken issues a bearer token scoped to a company.
// Tokens are normally issued by the HRIS auth service; this is used by tooling and tests.
func (j *JWTService) GenerateAccessToken(userID string, companyID string) (token string, expiresAt int64, err error) {
	expDuration, err := time.ParseDuration(j.accessTokenExpirationTime)
	if err != nil {
		return "", 0, err
	}
	expiresAt = j.now().Add(expDuration).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id":    userID,
		"company_id": companyID,
		"type":       TokenTypeAccess,
		"exp":        expiresAt,
	})
	return tokenString, expiresAt, err
}

// GenerateStreamToken generates a short-lived token for SSE connections
func (j *JWTService) GenerateStreamToken(userID string, companyID string) (token string, expiresIn int, err error) {
	expiresAt := j.now().Add(j.streamTokenExpiration).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id":    userID,
		"company_id": companyID,
		"type":       TokenTypeStream,
		"exp":        expiresAt,
	})
	if err != nil {
		return "", 0, err
	}

	return tokenString, int(j.streamTokenExpiration.Seconds()), nil
}

// ValidateStreamToken validates a stream token and returns the company it was issued for
func (j *JWTService) ValidateStreamToken(tokenString string) (companyID string, err error) {
	token, err := j.tokenAuth.Decode(tokenString)
	if err != nil {
		return "", err
	}

	// Check token type
	tokenType, ok := token.Get("type")
	if !ok || tokenType != TokenTypeStream {
		return "", ErrInvalidStreamToken
	}

	companyIDVal, ok := token.Get("company_id")
	if !ok {
		return "", ErrInvalidStreamToken
	}

	companyID, ok = companyIDVal.(string)
	if !ok || companyID == "" {
		return "", ErrInvalidStreamToken
	}

	return companyID, nil
}
