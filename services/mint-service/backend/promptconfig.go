package backend

import (
	"context"
	"net/http"
	"net/url"
)

func (c *Client) prompt(op, method, path string, q url.Values) request {
	return request{op: op, method: method, base: c.promptURL, path: path, query: q}
}

func userPath(userID, suffix string) string {
	return "/v1/users/" + url.PathEscape(userID) + suffix
}

func (c *Client) Placeholders(ctx context.Context, sess *Session) ([]Placeholder, error) {
	var out []Placeholder
	if err := c.call(ctx, sess, c.prompt("placeholders", http.MethodGet, "/v1/placeholders", nil), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UserPlaceholders returns empty settings when the prompt-config service
// does not know the user yet or fails internally.
func (c *Client) UserPlaceholders(ctx context.Context, sess *Session, userID string) (*UserPlaceholderSettings, error) {
	var out UserPlaceholderSettings
	err := c.call(ctx, sess, c.prompt("user_placeholders", http.MethodGet, userPath(userID, "/placeholders"), nil), &out)
	switch StatusCode(err) {
	case http.StatusNotFound, http.StatusInternalServerError:
		c.logger.Warnf("user placeholders unavailable for %s: %v", userID, err)
		return &UserPlaceholderSettings{Placeholders: map[string]UserPlaceholderSetting{}}, nil
	}
	if err != nil {
		return nil, err
	}
	if out.Placeholders == nil {
		out.Placeholders = map[string]UserPlaceholderSetting{}
	}
	return &out, nil
}

func (c *Client) UpdateUserPlaceholder(ctx context.Context, sess *Session, userID, placeholderID, valueID string) error {
	r, err := c.jsonRequest("update_placeholder", http.MethodPut, userPath(userID, "/placeholders/"+url.PathEscape(placeholderID)), map[string]string{"value_id": valueID})
	if err != nil {
		return err
	}
	r.base = c.promptURL
	return c.call(ctx, sess, r, nil)
}

func (c *Client) ApplyProfile(ctx context.Context, sess *Session, userID, profileID string) (*UserPlaceholderSettings, error) {
	var out UserPlaceholderSettings
	if err := c.call(ctx, sess, c.prompt("apply_profile", http.MethodPost, userPath(userID, "/apply-profile/"+url.PathEscape(profileID)), nil), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ResetUserSettings(ctx context.Context, sess *Session, userID string) (*UserPlaceholderSettings, error) {
	var out UserPlaceholderSettings
	if err := c.call(ctx, sess, c.prompt("reset_settings", http.MethodPost, userPath(userID, "/reset"), nil), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Profiles(ctx context.Context, sess *Session, category string) ([]Profile, error) {
	var q url.Values
	if category != "" {
		q = url.Values{"category": {category}}
	}
	var out []Profile
	if err := c.call(ctx, sess, c.prompt("profiles", http.MethodGet, "/v1/profiles", q), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Profile(ctx context.Context, sess *Session, profileID string) (*Profile, error) {
	var out Profile
	if err := c.call(ctx, sess, c.prompt("profile", http.MethodGet, "/v1/profiles/"+url.PathEscape(profileID), nil), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
