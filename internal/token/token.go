package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/MarziehKaviani/IranianPooshesh/internal/config"
	"github.com/MarziehKaviani/IranianPooshesh/internal/directory"
)

var (
	// ErrInvalidToken covers bad signature, wrong kind and expired tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrNotEligible is returned when session issuance is requested for a
	// blocked, deleted or inactive user.
	ErrNotEligible = errors.New("user not eligible for a session")
)

// Identity is the subject carried by a session token.
type Identity struct {
	UserID      string
	PhoneNumber string
}

// Pair is an access/refresh token pair.
type Pair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Issuer mints and verifies the three token kinds: anonymous pre-auth
// tokens, session access tokens and session refresh tokens. Tokens are
// self-contained; nothing is stored server-side.
type Issuer struct {
	cfg config.Config
}

// NewIssuer builds an issuer from the runtime configuration.
func NewIssuer(cfg config.Config) *Issuer {
	return &Issuer{cfg: cfg}
}

// IssueAnonymous mints a short-lived bearer credential for unauthenticated
// clients. It carries no user identity.
func (i *Issuer) IssueAnonymous() (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"anon": true,
		"jti":  uuid.NewString(),
		"iat":  now.Unix(),
		"exp":  now.Add(i.cfg.AnonTokenTTL).Unix(),
	}
	return sign(claims, i.cfg.AnonSecret)
}

// IssueSession mints an access/refresh pair bound to a verified user.
func (i *Issuer) IssueSession(user directory.User) (Pair, error) {
	if user.IsBlocked || !user.IsActive || user.State != directory.StatePhoneVerified {
		return Pair{}, ErrNotEligible
	}

	now := time.Now()
	access, err := sign(sessionClaims(user, now, now.Add(i.cfg.AccessTokenTTL)), i.cfg.JWTSecret)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := sign(sessionClaims(user, now, now.Add(i.cfg.RefreshTokenTTL)), i.cfg.RefreshSecret)
	if err != nil {
		return Pair{}, err
	}
	return Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(i.cfg.AccessTokenTTL.Seconds()),
	}, nil
}

// Refresh verifies the refresh token and mints a new access token for the
// same identity.
func (i *Issuer) Refresh(refreshToken string) (string, int64, error) {
	identity, err := parseSession(refreshToken, i.cfg.RefreshSecret)
	if err != nil {
		return "", 0, err
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   identity.UserID,
		"phone": identity.PhoneNumber,
		"iat":   now.Unix(),
		"exp":   now.Add(i.cfg.AccessTokenTTL).Unix(),
	}
	access, err := sign(claims, i.cfg.JWTSecret)
	if err != nil {
		return "", 0, err
	}
	return access, int64(i.cfg.AccessTokenTTL.Seconds()), nil
}

// ParseAccess verifies an access token and returns its identity.
func (i *Issuer) ParseAccess(tokenString string) (Identity, error) {
	return parseSession(tokenString, i.cfg.JWTSecret)
}

// ParseAnonymous verifies an anonymous token.
func (i *Issuer) ParseAnonymous(tokenString string) error {
	claims, err := parse(tokenString, i.cfg.AnonSecret)
	if err != nil {
		return err
	}
	if anon, _ := claims["anon"].(bool); !anon {
		return ErrInvalidToken
	}
	return nil
}

func sessionClaims(user directory.User, issuedAt, expiresAt time.Time) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   user.ID,
		"phone": user.PhoneNumber,
		"iat":   issuedAt.Unix(),
		"exp":   expiresAt.Unix(),
	}
}

func sign(claims jwt.MapClaims, secret string) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func parseSession(tokenString, secret string) (Identity, error) {
	claims, err := parse(tokenString, secret)
	if err != nil {
		return Identity{}, err
	}
	sub, _ := claims["sub"].(string)
	phone, _ := claims["phone"].(string)
	if sub == "" {
		return Identity{}, ErrInvalidToken
	}
	return Identity{UserID: sub, PhoneNumber: phone}, nil
}

func parse(tokenString, secret string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
