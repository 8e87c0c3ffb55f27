package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/RigelNana/baselibrary/services/mint-service/hitl"
)

type processAnswer struct {
	ThreadID    string          `json:"thread_id"`
	SessionID   string          `json:"session_id"`
	Status      string          `json:"status"`
	Result      json.RawMessage `json:"result"`
	CurrentNode string          `json:"current_node"`
	Interrupts  []struct {
		Value struct {
			Message []any `json:"message"`
		} `json:"value"`
		Resumable bool `json:"resumable"`
	} `json:"interrupts"`
}

// A result that is a JSON array is a list of interrupt messages: the
// pipeline paused for feedback.
func (a processAnswer) status() ProcessStatus {
	st := ProcessStatus{
		ThreadID:    a.ThreadID,
		SessionID:   a.SessionID,
		Status:      "completed",
		Result:      a.Result,
		CurrentNode: hitl.Lookup(a.CurrentNode),
	}
	var messages []any
	if trimmed := bytes.TrimSpace(a.Result); len(trimmed) > 0 && trimmed[0] == '[' && json.Unmarshal(trimmed, &messages) == nil {
		st.Status = "processing"
		st.Interrupted = true
		st.AwaitingFeedback = true
		st.InterruptMessage = hitl.CleanMessages(messages)
	}
	return st
}

func (c *Client) multipartProcess(op string, fields [][2]string, images []Image) (request, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	for _, f := range fields {
		if f[1] == "" && f[0] == "wallet_address" {
			continue
		}
		if err := form.WriteField(f[0], f[1]); err != nil {
			return request{}, err
		}
	}
	for _, img := range images {
		part, err := form.CreateFormFile("images", img.Name)
		if err != nil {
			return request{}, err
		}
		if _, err := part.Write(img.Data); err != nil {
			return request{}, err
		}
	}
	if err := form.Close(); err != nil {
		return request{}, err
	}
	return request{
		op:          op,
		method:      http.MethodPost,
		base:        c.baseURL,
		path:        "/process",
		body:        &buf,
		contentType: form.FormDataContentType(),
		long:        true,
	}, nil
}

// Process starts material generation. It can run for minutes.
func (c *Client) Process(ctx context.Context, sess *Session, req ProcessRequest) (*ProcessStatus, error) {
	settings, err := json.Marshal(req.Settings)
	if err != nil {
		return nil, fmt.Errorf("backend process: encode settings: %w", err)
	}
	r, err := c.multipartProcess("process", [][2]string{
		{"question", req.Question},
		{"settings", string(settings)},
		{"wallet_address", req.WalletAddress},
	}, req.Images)
	if err != nil {
		return nil, err
	}
	var out processAnswer
	if err := c.call(ctx, sess, r, &out); err != nil {
		return nil, err
	}
	st := out.status()
	return &st, nil
}

// SendFeedback resumes a paused thread with the user's answer.
func (c *Client) SendFeedback(ctx context.Context, sess *Session, req FeedbackRequest) (*ProcessStatus, error) {
	r, err := c.multipartProcess("feedback", [][2]string{
		{"thread_id", req.ThreadID},
		{"message", req.Message},
		{"question", req.Question},
		{"wallet_address", req.WalletAddress},
	}, req.Images)
	if err != nil {
		return nil, err
	}
	var out processAnswer
	if err := c.call(ctx, sess, r, &out); err != nil {
		return nil, err
	}
	st := out.status()
	c.logger.Infof("feedback sent: thread=%s interrupted=%t node=%s", st.ThreadID, st.Interrupted, st.CurrentNode.DisplayName)
	return &st, nil
}

func (c *Client) ThreadState(ctx context.Context, sess *Session, threadID string) (*ProcessStatus, error) {
	var out processAnswer
	if err := c.call(ctx, sess, c.get("thread_state", "/state/"+url.PathEscape(threadID), nil), &out); err != nil {
		return nil, err
	}
	st := ProcessStatus{
		ThreadID:    out.ThreadID,
		SessionID:   out.SessionID,
		Status:      out.Status,
		Result:      out.Result,
		CurrentNode: hitl.Lookup(out.CurrentNode),
	}
	if st.ThreadID == "" {
		st.ThreadID = threadID
	}
	if st.Status == "" {
		st.Status = "completed"
	}
	if len(out.Interrupts) > 0 {
		st.Status = "processing"
		st.Interrupted = true
		st.AwaitingFeedback = true
		st.InterruptMessage = hitl.CleanMessages(out.Interrupts[0].Value.Message)
	}
	return &st, nil
}

// ===== HITL config =====

func hitlPath(threadID, suffix string) string {
	return "/hitl/" + url.PathEscape(threadID) + suffix
}

func (c *Client) HITLConfig(ctx context.Context, sess *Session, threadID string) (HITLConfig, error) {
	var out HITLConfig
	if err := c.call(ctx, sess, c.get("hitl_config", hitlPath(threadID, ""), nil), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) UpdateHITLNode(ctx context.Context, sess *Session, threadID, node string, enabled bool) (HITLConfig, error) {
	r, err := c.jsonRequest("hitl_node", http.MethodPatch, hitlPath(threadID, "/node/"+url.PathEscape(node)), map[string]bool{"enabled": enabled})
	if err != nil {
		return nil, err
	}
	var out HITLConfig
	if err := c.call(ctx, sess, r, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) BulkUpdateHITL(ctx context.Context, sess *Session, threadID string, enableAll bool) (HITLConfig, error) {
	r, err := c.jsonRequest("hitl_bulk", http.MethodPost, hitlPath(threadID, "/bulk"), map[string]bool{"enable_all": enableAll})
	if err != nil {
		return nil, err
	}
	var out HITLConfig
	if err := c.call(ctx, sess, r, &out); err != nil {
		return nil, err
	}
	return out, nil
}
