package envrun

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	resty "github.com/go-resty/resty/v2"
)

const (
	envsEndpoint = "/api/v1/envs"

	retryCount       = 3
	retryWaitTime    = 100 * time.Millisecond
	retryWaitTimeMax = 2 * time.Second
)

// ErrRemoteUnauthorized is returned when the secrets service rejects the
// token.
var ErrRemoteUnauthorized = errors.New("secrets service rejected the token")

// RemoteOptions configures the secrets service client.
type RemoteOptions struct {
	// URL is the service base URL.
	URL string

	// Token is the bearer token, usually from PKGSMITH_ENV_TOKEN.
	Token string

	// Timeout bounds each request.
	Timeout time.Duration
}

// RemoteClient fetches environment variables from a secrets service.
type RemoteClient struct {
	http *resty.Client
}

// NewRemoteClient creates a client for the secrets service at opts.URL.
func NewRemoteClient(opts RemoteOptions) *RemoteClient {
	c := resty.New()
	c.SetBaseURL(opts.URL)
	c.SetAuthToken(opts.Token)
	c.SetTimeout(opts.Timeout)
	c.SetRetryCount(retryCount)
	c.SetRetryWaitTime(retryWaitTime)
	c.SetRetryMaxWaitTime(retryWaitTimeMax)
	c.AddRetryCondition(func(response *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		switch response.StatusCode() {
		case
			http.StatusRequestTimeout,
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	})

	return &RemoteClient{http: c}
}

// HTTPClient exposes the underlying http.Client, used by tests to install
// a mock transport.
func (c *RemoteClient) HTTPClient() *http.Client {
	return c.http.GetClient()
}

type envsResponse struct {
	Envs map[string]string `json:"envs"`
}

// Fetch retrieves the environment variables exposed by the service.
func (c *RemoteClient) Fetch(ctx context.Context) (map[string]string, error) {
	result := envsResponse{}

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		Get(envsEndpoint)
	if err != nil {
		return nil, fmt.Errorf("secrets service request failed: %w", err)
	}

	switch {
	case resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden:
		return nil, ErrRemoteUnauthorized
	case resp.IsError():
		return nil, fmt.Errorf("secrets service returned %s", resp.Status())
	}

	logger.Debug("remote envs fetched", "vars", len(result.Envs))
	return result.Envs, nil
}
