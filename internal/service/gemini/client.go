package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
)

const DefaultAPIURL = "https://generativelanguage.googleapis.com/v1beta"

var ErrBlocked = errors.New("request blocked by provider")

type Config struct {
	APIURL string
	APIKey string
	// Timeout bounds a single HTTP exchange. Callers should still pass a
	// context with their own deadline.
	Timeout time.Duration
}

type Client struct {
	client *http.Client
	config Config
}

func NewClient(cfg Config) *Client {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &Client{
		client: &http.Client{
			Transport: &APIKeyTransport{
				APIKey: cfg.APIKey,
				Base:   http.DefaultTransport,
			},
			Timeout: cfg.Timeout,
		},
		config: cfg,
	}
}

// APIKeyTransport adds the API key and content negotiation headers
type APIKeyTransport struct {
	APIKey string
	Base   http.RoundTripper
}

func (t *APIKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("x-goog-api-key", t.APIKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "br")
	return t.Base.RoundTrip(req)
}

// GenerateContent calls models/{model}:generateContent and returns the decoded reply.
// A reply without candidates is reported as ErrBlocked when the provider gave a
// block reason, and so is an empty candidate stopped by a safety finish reason.
func (c *Client) GenerateContent(ctx context.Context, model string, body *GenerateContentRequest) (*GenerateContentResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(c.config.APIURL, "/"), url.PathEscape(model))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.Header.Get("Content-Encoding") == "br" {
		resp.Body = &readCloserWrapper{Reader: brotli.NewReader(resp.Body), Closer: resp.Body}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var apiErr ErrorResponse
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Err.Message != "" {
			return nil, &apiErr
		}
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, string(body))
	}

	var out GenerateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}

	if len(out.Candidates) == 0 && out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
		return nil, fmt.Errorf("%w: %s", ErrBlocked, out.PromptFeedback.BlockReason)
	}
	if len(out.Candidates) > 0 && strings.TrimSpace(out.Text()) == "" {
		switch reason := out.Candidates[0].FinishReason; reason {
		case FinishReasonSafety, FinishReasonProhibitedContent:
			return nil, fmt.Errorf("%w: finish reason %s", ErrBlocked, reason)
		}
	}

	return &out, nil
}

type readCloserWrapper struct {
	io.Reader
	io.Closer
}

func (r *readCloserWrapper) Read(p []byte) (n int, err error) {
	return r.Reader.Read(p)
}

func (r *readCloserWrapper) Close() error {
	return r.Closer.Close()
}
