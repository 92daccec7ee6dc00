package identity

import (
	"context"
	"errors"
)

var (
	ErrInvalidCode  = errors.New("identity: invalid authorization code")
	ErrInvalidToken = errors.New("identity: invalid access token")
	ErrDisabled     = errors.New("identity: provider not configured")
)

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in,omitempty"`
	Scope       string `json:"scope,omitempty"`
}

type User struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name,omitempty"`
	Avatar     string `json:"avatar,omitempty"`
}

// DisplayName prefers the global name over the account name.
func (u User) DisplayName() string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

// Provider exchanges OAuth authorization codes and resolves bearer tokens to
// platform users.
type Provider interface {
	Exchange(ctx context.Context, code string) (Token, error)
	CurrentUser(ctx context.Context, accessToken string) (User, error)
}
