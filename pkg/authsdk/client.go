package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// DefaultServiceName is the route segment the service mounts under when
// SERVICE_NAME is unset.
const DefaultServiceName = "auth"

// SDKClient is a client for the session service. It performs
// unauthenticated calls and creates Sessions.
type SDKClient struct {
	BaseURL     string
	ServiceName string
	HTTPClient  *http.Client
}

// NewSDKClient creates a client for the service at baseURL mounted under
// /api/v1/{serviceName}. An empty serviceName uses DefaultServiceName.
func NewSDKClient(baseURL, serviceName string) *SDKClient {
	if serviceName == "" {
		serviceName = DefaultServiceName
	}
	return &SDKClient{
		BaseURL:     strings.TrimSuffix(baseURL, "/"),
		ServiceName: serviceName,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Authenticate logs subjectID in and wraps the tokens in a Session.
func (c *SDKClient) Authenticate(ctx context.Context, subjectID string) (*Session, error) {
	resp, err := c.Login(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	return newSession(c, resp), nil
}

// NewSessionFromTokens resumes a session from tokens obtained earlier.
func (c *SDKClient) NewSessionFromTokens(subjectID, accessToken, refreshToken string) *Session {
	return &Session{
		client:       c,
		subjectID:    subjectID,
		accessToken:  accessToken,
		refreshToken: refreshToken,
	}
}
