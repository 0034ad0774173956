package apiclient

import (
	"context"
	"net/http"

	"github.com/meetdesk/meetdesk/internal/model"
)

// Token is the credential pair returned by the login endpoint.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges credentials for an access token.
// POST /api/v1/auth/login
func (c *Client) Login(ctx context.Context, username, password string) (Token, error) {
	var tok Token
	err := c.do(ctx, http.MethodPost, "/auth/login", "", loginRequest{
		Username: username,
		Password: password,
	}, &tok)
	return tok, err
}

// Me fetches the profile and roles of the token's owner.
// GET /api/v1/auth/me
func (c *Client) Me(ctx context.Context, token string) (model.User, error) {
	var user model.User
	err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, &user)
	return user, err
}
