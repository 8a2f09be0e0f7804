package apiclient

import (
	"context"
	"net/http"

	"github.com/stemsi/quickquiz-console/internal/model"
)

// Login exchanges credentials for an access token and the user record.
func (c *Client) Login(ctx context.Context, req model.LoginRequest) (model.LoginResponse, error) {
	var payload model.LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", req, &payload); err != nil {
		return model.LoginResponse{}, err
	}
	return payload, nil
}

// Register creates a new teacher or student account.
func (c *Client) Register(ctx context.Context, req model.RegisterRequest) (model.MessageResponse, error) {
	var payload model.MessageResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", req, &payload); err != nil {
		return model.MessageResponse{}, err
	}
	return payload, nil
}
