package auth

import (
	"agrirent/internal/domain/accesscontrol"

	"github.com/golang-jwt/jwt/v5"
)

type Authenticator interface {
	GenerateTokens(caller accesscontrol.Caller) (string, string, error)
	ValidateAccessToken(token string) (*jwt.Token, error)
	ValidateRefreshToken(token string) (*jwt.Token, error)
}
