// Package backend is the REST client for the artifacts backend and the
// prompt-config service.
package backend

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

	"github.com/RigelNana/baselibrary/pkg/metrics"
	"github.com/sirupsen/logrus"
)

const (
	DefaultTimeout        = 30 * time.Second
	DefaultProcessTimeout = 10 * time.Minute
)

// ErrUnauthorized matches any 401 answer; the session has been cleared.
var ErrUnauthorized = errors.New("backend: unauthorized")

// APIError is a non-2xx answer from a backend.
type APIError struct {
	StatusCode int
	Message    string
	Details    json.RawMessage
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend http %d", e.StatusCode)
	}
	return fmt.Sprintf("backend http %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

type Config struct {
	BaseURL         string
	PromptConfigURL string
	Timeout         time.Duration
	ProcessTimeout  time.Duration
}

type Client struct {
	baseURL   string
	promptURL string
	http      *http.Client
	process   *http.Client
	logger    *logrus.Logger
}

func NewClient(cfg Config, logger *logrus.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.ProcessTimeout <= 0 {
		cfg.ProcessTimeout = DefaultProcessTimeout
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		promptURL: strings.TrimRight(cfg.PromptConfigURL, "/"),
		http:      &http.Client{Timeout: cfg.Timeout},
		process:   &http.Client{Timeout: cfg.ProcessTimeout},
		logger:    logger,
	}
}

type request struct {
	op          string
	method      string
	base        string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	long        bool
}

func (c *Client) jsonRequest(op, method, path string, payload any) (request, error) {
	r := request{op: op, method: method, base: c.baseURL, path: path}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return r, fmt.Errorf("backend %s: encode request: %w", op, err)
		}
		r.body = bytes.NewReader(raw)
		r.contentType = "application/json"
	}
	return r, nil
}

// call performs r and decodes a JSON answer into out when out is non-nil.
func (c *Client) call(ctx context.Context, sess *Session, r request, out any) (err error) {
	defer func() { metrics.RecordUpstream("backend", r.op, err) }()

	target := r.base + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target, r.body)
	if err != nil {
		return err
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	req.Header.Set("Accept", "application/json")
	if token := sess.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	hc := c.http
	if r.long {
		hc = c.process
	}
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("backend %s: %w", r.op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("backend %s: read body: %w", r.op, err)
	}
	if resp.StatusCode >= 300 {
		apiErr := parseAPIError(resp.StatusCode, raw)
		if resp.StatusCode == http.StatusUnauthorized {
			c.logger.Warnf("backend rejected session on %s, clearing token", r.op)
			if cerr := sess.Clear(); cerr != nil {
				c.logger.Warnf("clear session: %v", cerr)
			}
		}
		return apiErr
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("backend %s: decode response: %w", r.op, err)
	}
	return nil
}

func parseAPIError(status int, raw []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	var body struct {
		Message string          `json:"message"`
		Detail  json.RawMessage `json:"detail"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		apiErr.Message = strings.TrimSpace(string(raw))
		return apiErr
	}
	apiErr.Details = body.Detail
	var detail string
	switch {
	case body.Message != "":
		apiErr.Message = body.Message
	case json.Unmarshal(body.Detail, &detail) == nil && detail != "":
		apiErr.Message = detail
	case body.Error != "":
		apiErr.Message = body.Error
	default:
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
