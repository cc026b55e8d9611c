package directory

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
)

// maxTokenLength caps user tokens before any network round trip.
const maxTokenLength = 4096

// maxResponseSize is the maximum response body size read from the service.
const maxResponseSize = 1 << 20 // 1 MiB

// Client talks to the directory service over HTTP. It implements both
// Verifier and Resolver.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *slog.Logger
}

// NewClient creates a Client with the given configuration. Defaults are
// applied and the configuration is validated.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: cfg.TLSInsecureSkipVerify,
		},
		DialContext: (&net.Dialer{
			Timeout: cfg.ConnectTimeout,
		}).DialContext,
	}

	if cfg.TLSInsecureSkipVerify {
		logger.Warn("TLS certificate verification disabled")
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: transport,
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.ServiceToken,
		logger:  logger.With("component", "directory"),
	}, nil
}

// verifyRequest is the body of POST /v1/identity/verify.
type verifyRequest struct {
	Token string `json:"token"`
}

// verifyFailure is the body of a 401 response from the identity provider.
type verifyFailure struct {
	Reason string `json:"reason"` // "expired" or "invalid"
}

// VerifyToken validates a bearer credential with the identity provider.
// Failure kinds are reported via the package sentinels: ErrTokenMissing,
// ErrTokenInvalid, ErrTokenExpired, ErrUnavailable.
func (c *Client) VerifyToken(ctx context.Context, token string) (*Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenMissing
	}
	if err := checkTokenShape(token); err != nil {
		return nil, err
	}

	var identity Identity
	err := c.doRequest(ctx, http.MethodPost, "/v1/identity/verify", verifyRequest{Token: token}, &identity)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			switch {
			case apiErr.StatusCode == http.StatusUnauthorized:
				var failure verifyFailure
				if jsonErr := json.Unmarshal([]byte(apiErr.Message), &failure); jsonErr == nil && failure.Reason == "expired" {
					return nil, ErrTokenExpired
				}
				return nil, ErrTokenInvalid
			case apiErr.StatusCode == http.StatusForbidden:
				return nil, ErrTokenInvalid
			case apiErr.StatusCode >= 500:
				return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
			return nil, fmt.Errorf("directory: verify token: %w", err)
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if identity.UserID == "" {
		return nil, fmt.Errorf("%w: identity response missing userId", ErrUnavailable)
	}
	return &identity, nil
}

// networkResponse is the body of GET /v1/users/{id}/network.
type networkResponse struct {
	NetworkID string `json:"networkId"`
}

// ActiveNetwork returns the user's active network id, or "" when the user
// belongs to no network. Transport and server failures are returned as
// errors; callers degrade to the null network.
func (c *Client) ActiveNetwork(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", errors.New("directory: active network: empty user id")
	}

	var resp networkResponse
	path := "/v1/users/" + url.PathEscape(userID) + "/network"
	err := c.doRequest(ctx, http.MethodGet, path, nil, &resp)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("directory: active network for %s: %w", userID, err)
	}
	return resp.NetworkID, nil
}

// doRequest handles JSON marshaling, request execution, and response
// decoding against the directory service.
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("directory: marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("directory: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("directory: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errorFromResponse(resp)
	}

	if result != nil {
		reader := io.LimitReader(resp.Body, maxResponseSize)
		if err := json.NewDecoder(reader).Decode(result); err != nil {
			return fmt.Errorf("directory: decode response: %w", err)
		}
	}
	return nil
}

// checkTokenShape rejects tokens that could not possibly be valid before
// spending a round trip on them.
func checkTokenShape(token string) error {
	if len(token) > maxTokenLength {
		return ErrTokenInvalid
	}
	for i := 0; i < len(token); i++ {
		if token[i] < 0x20 || token[i] > 0x7E {
			return ErrTokenInvalid
		}
	}
	return nil
}
