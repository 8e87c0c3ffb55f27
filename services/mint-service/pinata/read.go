package pinata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/RigelNana/baselibrary/pkg/metrics"
)

var ErrEmptyCID = errors.New("pinata: empty cid")

// GetContent returns the raw bytes pinned under cid as text. Pinned objects
// are immutable, so results are served from the LRU cache after the first
// read. When the gateway fails the configured mirror is consulted.
func (c *Client) GetContent(ctx context.Context, cid string) (string, error) {
	cid = strings.TrimSpace(cid)
	if cid == "" {
		return "", ErrEmptyCID
	}
	if cached, ok := c.cache.Get(cid); ok {
		metrics.RecordCacheLookup(true)
		return cached, nil
	}
	metrics.RecordCacheLookup(false)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ContentURL(cid), nil)
	if err != nil {
		return "", err
	}
	body, err := c.do(req, "get_content", false)
	if err != nil {
		if c.mirror == nil {
			return "", err
		}
		data, merr := c.mirror.Get(ctx, cid)
		if merr != nil {
			c.logger.Warnf("gateway and mirror both failed: cid=%s gateway=%v mirror=%v", cid, err, merr)
			return "", err
		}
		c.logger.Infof("served %s from mirror after gateway error: %v", cid, err)
		body = data
	}
	content := string(body)
	c.cache.Add(cid, content)
	return content, nil
}

// GetText returns the text of a pin created by UploadText. Content that is
// not a text envelope is returned as is.
func (c *Client) GetText(ctx context.Context, cid string) (string, error) {
	raw, err := c.GetContent(ctx, cid)
	if err != nil {
		return "", err
	}
	if inner, ok := unwrapEnvelope(raw); ok {
		return inner, nil
	}
	return raw, nil
}

// GetJSON decodes the document pinned under cid into v. A text envelope
// whose content is itself JSON is decoded from the inner document.
func (c *Client) GetJSON(ctx context.Context, cid string, v any) error {
	raw, err := c.GetContent(ctx, cid)
	if err != nil {
		return err
	}
	if inner, ok := unwrapEnvelope(raw); ok {
		if json.Unmarshal([]byte(inner), v) == nil {
			return nil
		}
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("pinata: decode %s: %w", cid, err)
	}
	return nil
}

// IsContentAvailable probes the gateway with a HEAD request.
func (c *Client) IsContentAvailable(ctx context.Context, cid string) bool {
	if strings.TrimSpace(cid) == "" {
		return false
	}
	if _, ok := c.cache.Peek(cid); ok {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.ContentURL(cid), nil)
	if err != nil {
		return false
	}
	_, err = c.do(req, "head_content", false)
	return err == nil
}

func unwrapEnvelope(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "{") {
		return "", false
	}
	var env struct {
		Content *string `json:"content"`
	}
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil || env.Content == nil {
		return "", false
	}
	return *env.Content, true
}
