package backoffice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

const loginMutation = `mutation ($email: String!, $password: String!) {
  authenticateUserWithPassword(email: $email, password: $password) {
    ... on UserAuthenticationWithPasswordSuccess {
      sessionToken
    }
    ... on UserAuthenticationWithPasswordFailure {
      message
    }
  }
}`

type loginPayload struct {
	SessionToken string `json:"sessionToken"`
	Message      string `json:"message"`
}

// Login performs the opaque authenticate mutation and returns the session
// token for subsequent requests.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", errors.New("email is required")
	}

	data, err := c.postGraphQL(ctx, loginMutation, map[string]any{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}

	var payload loginPayload
	if err := decode(data["authenticateUserWithPassword"], &payload); err != nil {
		return "", fmt.Errorf("decode login payload: %w", err)
	}

	if payload.SessionToken == "" {
		message := payload.Message
		if message == "" {
			message = "authentication failed"
		}
		return "", errors.New(message)
	}

	return payload.SessionToken, nil
}

// decode maps a loosely-typed GraphQL payload into a typed struct using the
// json tag names.
func decode(in any, out any) error {
	cfg := &mapstructure.DecoderConfig{
		Result:  out,
		TagName: "json",
	}

	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}

	return decoder.Decode(in)
}
