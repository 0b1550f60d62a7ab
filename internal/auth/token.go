package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/KLAI0I/icu-nurse-dashboard/internal/domain"
)

// Token kinds carried in the "typ" claim.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// TokenManager handles issuing and validating JWT tokens. Access and refresh tokens
// are signed with different secrets.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 30 * 24 * time.Hour
	}
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// WithClock overrides the issuing and validation clock.
func (tm *TokenManager) WithClock(now func() time.Time) *TokenManager {
	tm.now = now
	return tm
}

// RefreshTTL returns the refresh token lifetime.
func (tm *TokenManager) RefreshTTL() time.Duration {
	return tm.refreshTTL
}

// Claims describes JWT payload.
type Claims struct {
	Kind    string      `json:"typ"`
	Role    domain.Role `json:"role,omitempty"`
	StaffID *string     `json:"staff_id,omitempty"`
	jwt.RegisteredClaims
}

// IssuedToken is a signed token with its id and expiry.
type IssuedToken struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// GenerateAccessToken signs a short-lived token carrying role and staff link.
func (tm *TokenManager) GenerateAccessToken(user *domain.User) (IssuedToken, error) {
	return tm.issue(TokenAccess, user, tm.accessTTL, tm.accessSecret)
}

// GenerateRefreshToken signs a long-lived token whose id is tracked server side.
func (tm *TokenManager) GenerateRefreshToken(user *domain.User) (IssuedToken, error) {
	return tm.issue(TokenRefresh, user, tm.refreshTTL, tm.refreshSecret)
}

func (tm *TokenManager) issue(kind string, user *domain.User, ttl time.Duration, secret []byte) (IssuedToken, error) {
	now := tm.now()
	expiresAt := now.Add(ttl)
	id := uuid.NewString()
	claims := &Claims{
		Kind:    kind,
		Role:    user.Role,
		StaffID: user.StaffID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return IssuedToken{}, err
	}
	return IssuedToken{Token: tokenString, ID: id, ExpiresAt: expiresAt}, nil
}

// ParseAccessToken validates an access token.
func (tm *TokenManager) ParseAccessToken(tokenStr string) (*Claims, error) {
	return tm.parse(tokenStr, TokenAccess, tm.accessSecret)
}

// ParseRefreshToken validates a refresh token signature and expiry.
func (tm *TokenManager) ParseRefreshToken(tokenStr string) (*Claims, error) {
	return tm.parse(tokenStr, TokenRefresh, tm.refreshSecret)
}

func (tm *TokenManager) parse(tokenStr, kind string, secret []byte) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, jwt.WithTimeFunc(tm.now))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Kind != kind {
		return nil, errors.New("unexpected token kind")
	}
	return claims, nil
}
