// Package backoffice is the client for the interview backoffice GraphQL API.
// The backend is an external collaborator: this package only reads interview
// data, performs the opaque login mutation and issues conclusion-save
// mutations on behalf of the operator.
package backoffice

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	defaultAPIURL = "https://backoffice.rooftop.dev/api/graphql"
	userAgent     = "galiprandi/dimensions (interview reviewer)"

	// Keystone session cookie carrying the operator token.
	sessionCookie = "keystonejs-session"
)

type Client struct {
	token  string
	logger *zap.Logger

	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

// New creates a backoffice client. The token may be empty for the login call
// itself; every other operation requires it.
func New(logger *zap.Logger, token string) *Client {
	return &Client{
		token:  token,
		logger: logger,
		APIURL: defaultAPIURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		UserAgent: userAgent,
	}
}
