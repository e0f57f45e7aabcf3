package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"agrirent/internal/domain/accesscontrol"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidClaims = errors.New("invalid token claims")

const (
	AccessTokenTTL  = 3 * 24 * time.Hour
	RefreshTokenTTL = 9 * 24 * time.Hour
)

type JWTAuthenticator struct {
	secret        string
	refreshSecret string
	aud           string
	iss           string
	now           func() time.Time
}

func NewJWTAuthenticator(secret, refreshSecret, aud, iss string) *JWTAuthenticator {
	return &JWTAuthenticator{
		secret:        secret,
		refreshSecret: refreshSecret,
		aud:           aud,
		iss:           iss,
		now:           time.Now,
	}
}

// GenerateTokens issues an access token carrying the caller's role and a
// refresh token carrying only the subject.
func (a *JWTAuthenticator) GenerateTokens(caller accesscontrol.Caller) (string, string, error) {
	now := a.now()
	accessClaims := jwt.MapClaims{
		"sub":  caller.ID,
		"role": string(caller.Role),
		"exp":  now.Add(AccessTokenTTL).Unix(),
		"iat":  now.Unix(),
		"nbf":  now.Unix(),
		"iss":  a.iss,
		"aud":  a.aud,
	}

	refreshClaims := jwt.MapClaims{
		"sub": caller.ID,
		"exp": now.Add(RefreshTokenTTL).Unix(),
		"iat": now.Unix(),
		"iss": a.iss,
	}

	accessToken, err := a.generateTokenWithClaims(accessClaims, a.secret)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := a.generateTokenWithClaims(refreshClaims, a.refreshSecret)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

func (a *JWTAuthenticator) generateTokenWithClaims(claims jwt.Claims, secret string) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (a *JWTAuthenticator) ValidateAccessToken(token string) (*jwt.Token, error) {
	return a.parse(token, a.secret, jwt.WithAudience(a.aud))
}

func (a *JWTAuthenticator) ValidateRefreshToken(token string) (*jwt.Token, error) {
	return a.parse(token, a.refreshSecret)
}

func (a *JWTAuthenticator) parse(token, secret string, extra ...jwt.ParserOption) (*jwt.Token, error) {
	opts := append([]jwt.ParserOption{
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer(a.iss),
		jwt.WithTimeFunc(a.now),
	}, extra...)

	return jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, opts...)
}

// CallerFromToken reads the caller identity out of a validated access token.
func CallerFromToken(token *jwt.Token) (accesscontrol.Caller, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return accesscontrol.Caller{}, ErrInvalidClaims
	}

	// numbers decode as float64
	sub, ok := claims["sub"].(float64)
	if !ok {
		return accesscontrol.Caller{}, fmt.Errorf("%w: sub", ErrInvalidClaims)
	}
	id, err := strconv.ParseInt(fmt.Sprintf("%.f", sub), 10, 64)
	if err != nil {
		return accesscontrol.Caller{}, fmt.Errorf("%w: sub: %v", ErrInvalidClaims, err)
	}

	roleStr, _ := claims["role"].(string)
	role, err := accesscontrol.ParseRole(roleStr)
	if err != nil {
		return accesscontrol.Caller{}, fmt.Errorf("%w: %v", ErrInvalidClaims, err)
	}
	return accesscontrol.Caller{ID: id, Role: role}, nil
}
