// Package pinata pins educational material to IPFS through the Pinata API
// and reads it back through the Pinata gateway.
package pinata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/RigelNana/baselibrary/pkg/metrics"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
)

const (
	DefaultAPIURL     = "https://api.pinata.cloud"
	DefaultGatewayURL = "https://gateway.pinata.cloud/ipfs/"

	defaultTimeout   = 60 * time.Second
	defaultCacheSize = 128
	maxErrorBody     = 4 << 10
)

// ErrNotConfigured is returned when neither API keys nor a JWT are set.
var ErrNotConfigured = errors.New("pinata: credentials not configured")

type Config struct {
	APIURL     string
	GatewayURL string
	APIKey     string
	SecretKey  string
	// JWT takes precedence over the key pair when set.
	JWT       string
	Timeout   time.Duration
	CacheSize int
}

// Configured reports whether any credentials were supplied.
func (c Config) Configured() bool {
	if c.JWT != "" {
		return true
	}
	return c.APIKey != "" && c.SecretKey != "" &&
		c.APIKey != "your_pinata_api_key_here" && c.SecretKey != "your_pinata_secret_key_here"
}

// Mirror keeps a second copy of pinned bytes, keyed by CID.
type Mirror interface {
	Put(ctx context.Context, cid string, data []byte) error
	Get(ctx context.Context, cid string) ([]byte, error)
}

// APIError is a non-2xx answer from the pinning API or gateway.
type APIError struct {
	StatusCode int
	Reason     string
}

func (e *APIError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("pinata: http status %d", e.StatusCode)
	}
	return fmt.Sprintf("pinata: http status %d: %s", e.StatusCode, e.Reason)
}

type Client struct {
	cfg    Config
	http   *http.Client
	cache  *lru.Cache[string, string]
	mirror Mirror
	logger *logrus.Logger
	now    func() time.Time
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithMirror(m Mirror) Option {
	return func(c *Client) { c.mirror = m }
}

func WithLogger(l *logrus.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.GatewayURL == "" {
		cfg.GatewayURL = DefaultGatewayURL
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if !strings.HasSuffix(cfg.GatewayURL, "/") {
		cfg.GatewayURL += "/"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, string](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("pinata: create cache: %w", err)
	}

	c := &Client{
		cfg:   cfg,
		http:  &http.Client{Timeout: cfg.Timeout},
		cache: cache,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logrus.StandardLogger()
	}
	if !cfg.Configured() {
		c.logger.Warn("Pinata credentials are not configured, uploads will be rejected")
	}
	return c, nil
}

// ContentURL is the public gateway address of cid.
func (c *Client) ContentURL(cid string) string {
	return c.cfg.GatewayURL + cid
}

func (c *Client) authorize(req *http.Request) {
	if c.cfg.JWT != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.JWT)
		return
	}
	req.Header.Set("pinata_api_key", c.cfg.APIKey)
	req.Header.Set("pinata_secret_api_key", c.cfg.SecretKey)
}

// do executes req and returns the body of a 2xx response.
func (c *Client) do(req *http.Request, op string, authenticated bool) (body []byte, err error) {
	defer func() { metrics.RecordUpstream("pinata", op, err) }()

	if authenticated {
		if !c.cfg.Configured() {
			return nil, ErrNotConfigured
		}
		c.authorize(req)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pinata %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, parseAPIError(resp.StatusCode, raw)
	}
	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("pinata %s: read body: %w", op, err)
	}
	return body, nil
}

// parseAPIError understands {"error":{"reason":..,"details":..}},
// {"error":"..."} and plain text bodies.
func parseAPIError(status int, raw []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Error) > 0 {
		var detailed struct {
			Reason  string `json:"reason"`
			Details string `json:"details"`
		}
		var plain string
		switch {
		case json.Unmarshal(envelope.Error, &detailed) == nil && (detailed.Reason != "" || detailed.Details != ""):
			apiErr.Reason = detailed.Reason
			if apiErr.Reason == "" {
				apiErr.Reason = detailed.Details
			}
		case json.Unmarshal(envelope.Error, &plain) == nil:
			apiErr.Reason = plain
		default:
			apiErr.Reason = string(envelope.Error)
		}
		return apiErr
	}
	apiErr.Reason = strings.TrimSpace(string(raw))
	return apiErr
}
