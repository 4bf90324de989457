package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wastebill/wastebill-backend/pkg/logger"
)

const (
	verifyPath = "/oauth2/v2.1/verify"
	pushPath   = "/v2/bot/message/push"

	// maxTextLength is the Messaging API limit for a text message.
	maxTextLength = 5000
)

// Client talks to LINE Login and the Messaging API
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new LINE client with the given configuration
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// GetConfig returns the client configuration
func (c *Client) GetConfig() Config {
	return c.config
}

// VerifyIDToken asks LINE to verify a LIFF ID token and returns its claims
func (c *Client) VerifyIDToken(ctx context.Context, idToken string) (*IDTokenClaims, error) {
	if !c.config.CanVerify() {
		return nil, ErrNotConfigured
	}
	if idToken == "" {
		return nil, ErrInvalidIDToken
	}

	form := url.Values{}
	form.Set("id_token", idToken)
	form.Set("client_id", c.config.ChannelID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+verifyPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	status, body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		var errResp LoginErrorResponse
		_ = json.Unmarshal(body, &errResp)
		logger.Warn("LINE ID token verification rejected", map[string]interface{}{
			"status":            status,
			"error":             errResp.Error,
			"error_description": errResp.ErrorDescription,
		})
		if status == http.StatusBadRequest || status == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %s", ErrInvalidIDToken, errResp.ErrorDescription)
		}
		return nil, fmt.Errorf("%w: status %d", ErrRequestFailed, status)
	}

	var claims IDTokenClaims
	if err := json.Unmarshal(body, &claims); err != nil {
		return nil, fmt.Errorf("failed to unmarshal verify response: %w", err)
	}
	if claims.Subject == "" {
		return nil, ErrInvalidIDToken
	}
	return &claims, nil
}

// PushText sends a single text message to a LINE user
func (c *Client) PushText(ctx context.Context, to, text string) error {
	if !c.config.CanPush() {
		return ErrNotConfigured
	}
	if to == "" {
		return fmt.Errorf("%w: empty recipient", ErrRequestFailed)
	}
	if r := []rune(text); len(r) > maxTextLength {
		text = string(r[:maxTextLength])
	}

	payload, err := json.Marshal(PushRequest{
		To:       to,
		Messages: []TextMessage{{Type: "text", Text: text}},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+pushPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.MessagingToken)
	req.Header.Set("Content-Type", "application/json")

	status, body, err := c.do(req)
	if err != nil {
		return err
	}
	if status == http.StatusOK {
		return nil
	}

	var errResp MessagingErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return fmt.Errorf("%w: status %d, body: %s", ErrRequestFailed, status, string(body))
	}
	if status == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s", ErrUnauthorized, errResp.Message)
	}
	return fmt.Errorf("%w: status %d: %s", ErrRequestFailed, status, errResp.Message)
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, body, nil
}
