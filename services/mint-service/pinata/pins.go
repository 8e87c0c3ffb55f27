package pinata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type PinMetadata struct {
	Name      string         `json:"name"`
	KeyValues map[string]any `json:"keyvalues"`
}

// PinnedFile is one row of the account's pin list.
type PinnedFile struct {
	ID           string      `json:"id"`
	IPFSPinHash  string      `json:"ipfs_pin_hash"`
	Size         int64       `json:"size"`
	UserID       string      `json:"user_id"`
	DatePinned   string      `json:"date_pinned"`
	DateUnpinned *string     `json:"date_unpinned"`
	Metadata     PinMetadata `json:"metadata"`
}

// ListPinned returns the pins currently held by the account.
func (c *Client) ListPinned(ctx context.Context) ([]PinnedFile, error) {
	q := url.Values{}
	q.Set("status", "pinned")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.APIURL+"/data/pinList?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	body, err := c.do(req, "list_pins", true)
	if err != nil {
		return nil, err
	}
	var out struct {
		Count int          `json:"count"`
		Rows  []PinnedFile `json:"rows"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("pinata list_pins: decode response: %w", err)
	}
	return out.Rows, nil
}

// Unpin removes cid from the account's pins and drops it from the cache.
func (c *Client) Unpin(ctx context.Context, cid string) error {
	cid = strings.TrimSpace(cid)
	if cid == "" {
		return ErrEmptyCID
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.cfg.APIURL+"/pinning/unpin/"+url.PathEscape(cid), nil)
	if err != nil {
		return err
	}
	if _, err := c.do(req, "unpin", true); err != nil {
		return err
	}
	c.cache.Remove(cid)
	c.logger.Infof("unpinned %s", cid)
	return nil
}
