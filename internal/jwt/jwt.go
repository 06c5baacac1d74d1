package jwt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sbilibin2017/rental-auth/internal/models"
)

// ErrInvalidToken is returned for malformed, mis-signed, expired or otherwise unacceptable tokens.
var ErrInvalidToken = errors.New("invalid token")

const (
	defaultIssuer     = "self"
	defaultExpiration = 24 * time.Hour
)

// Claims is the claim set carried by an access token.
type Claims struct {
	UserID    int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	jwt.RegisteredClaims
}

// JWT provides methods to generate and validate JWT tokens.
type JWT struct {
	secretKey []byte           // Secret key for signing tokens
	exp       time.Duration    // Token expiration duration
	issuer    string           // Value of the iss claim
	now       func() time.Time // Clock
}

// Option configures a JWT.
type Option func(*JWT)

// WithSecretKey sets the HMAC signing key.
func WithSecretKey(key string) Option {
	return func(j *JWT) {
		j.secretKey = []byte(key)
	}
}

// WithExpiration sets the validity window of issued tokens.
func WithExpiration(exp time.Duration) Option {
	return func(j *JWT) {
		j.exp = exp
	}
}

// WithIssuer sets the issuer written into and required from tokens.
func WithIssuer(issuer string) Option {
	return func(j *JWT) {
		j.issuer = issuer
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(j *JWT) {
		j.now = now
	}
}

// New creates a new JWT instance
func New(opts ...Option) *JWT {
	j := &JWT{
		exp:    defaultExpiration,
		issuer: defaultIssuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Generate creates a signed token for the given user.
func (j *JWT) Generate(ctx context.Context, user *models.User) (string, error) {
	now := j.now()
	claims := Claims{
		UserID:    user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.exp)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secretKey)
}

// GetClaims parses and verifies tokenString. Every failure wraps ErrInvalidToken.
// A token is accepted up to and including the second named by exp.
func (j *JWT) GetClaims(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return j.secretKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if err := j.verifyClaims(claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// verifyClaims checks the time window and issuer. The library validator
// rejects a token at exactly exp, so the window is checked here.
func (j *JWT) verifyClaims(claims *Claims) error {
	now := j.now()

	if claims.ExpiresAt == nil {
		return errors.New("token has no expiration")
	}
	if now.After(claims.ExpiresAt.Time) {
		return errors.New("token is expired")
	}
	if claims.NotBefore != nil && now.Before(claims.NotBefore.Time) {
		return errors.New("token is not valid yet")
	}
	if claims.Issuer != j.issuer {
		return fmt.Errorf("unexpected issuer %q", claims.Issuer)
	}
	return nil
}

// GetTokenFromRequest extracts the token string from the Authorization header
func (j *JWT) GetTokenFromRequest(ctx context.Context, r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header missing")
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errors.New("invalid authorization header format")
	}

	return parts[1], nil
}
