package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"terapia/internal/core"
)

// CurrentUser returns the owner of token. Answers are cached per token when
// a user cache is configured.
func (c *Client) CurrentUser(ctx context.Context, token string) (core.User, error) {
	if token == "" {
		return core.User{}, ErrNoToken
	}

	key := tokenKey(token)
	if c.users != nil {
		if u, ok := c.users.Get(key); ok {
			return u, nil
		}
	}

	var u core.User
	if err := c.do(ctx, token, call{
		endpoint: "user.me",
		method:   http.MethodGet,
		path:     "/api/user/me",
		out:      &u,
	}); err != nil {
		return core.User{}, err
	}

	if c.users != nil {
		c.users.Set(key, u)
	}
	return u, nil
}

// tokenKey keeps raw tokens out of the cache.
func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
