package pinata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

const (
	kindFile     = "educational-material-file"
	kindJSON     = "educational-material-json"
	kindText     = "educational-material-text"
	kindMaterial = "educational-material"
)

// TextEnvelope is the JSON document UploadText pins.
type TextEnvelope struct {
	Content  string `json:"content"`
	Type     string `json:"type"`
	Encoding string `json:"encoding"`
}

// MaterialDocument is a material pinned together with its catalogue fields.
type MaterialDocument struct {
	Content   string `json:"content"`
	Title     string `json:"title"`
	Subject   string `json:"subject"`
	Grade     string `json:"grade"`
	Topic     string `json:"topic"`
	Author    string `json:"author"`
	CreatedAt string `json:"createdAt"`
}

type pinMetadata struct {
	Name      string            `json:"name"`
	KeyValues map[string]string `json:"keyvalues,omitempty"`
}

type pinOptions struct {
	CIDVersion int `json:"cidVersion"`
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// Sanitize drops C0/C1 control characters and byte order marks, which the
// pinning API rejects.
func Sanitize(content string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r <= 0x1F, r >= 0x7F && r <= 0x9F, r == '\uFEFF':
			return -1
		}
		return r
	}, content)
}

func (c *Client) metadata(name, kind string) pinMetadata {
	return pinMetadata{
		Name: name,
		KeyValues: map[string]string{
			"type":       kind,
			"uploadedAt": c.now().UTC().Format(time.RFC3339Nano),
		},
	}
}

// UploadText pins content wrapped in a TextEnvelope and returns its CID.
// The pinned text is Sanitize(content), so newlines and tabs are gone and
// GetText of the CID does not hash to the material's content hash. Verify
// against the original content, not the pin.
func (c *Client) UploadText(ctx context.Context, content string) (string, error) {
	envelope := TextEnvelope{
		Content:  Sanitize(content),
		Type:     "text/plain",
		Encoding: "utf-8",
	}
	name := fmt.Sprintf("material-text-%d.txt", c.now().UnixMilli())
	return c.pinJSON(ctx, "upload_text", envelope, c.metadata(name, kindText))
}

// UploadJSON pins an arbitrary JSON document.
func (c *Client) UploadJSON(ctx context.Context, data any) (string, error) {
	name := fmt.Sprintf("material-%d.json", c.now().UnixMilli())
	return c.pinJSON(ctx, "upload_json", data, c.metadata(name, kindJSON))
}

// UploadMaterial pins a material together with its catalogue fields.
func (c *Client) UploadMaterial(ctx context.Context, doc MaterialDocument) (string, error) {
	payload := struct {
		MaterialDocument
		Version   string `json:"version"`
		Type      string `json:"type"`
		Timestamp string `json:"timestamp"`
	}{
		MaterialDocument: doc,
		Version:          "1.0",
		Type:             kindMaterial,
		Timestamp:        c.now().UTC().Format(time.RFC3339Nano),
	}
	name := fmt.Sprintf("material-%d.json", c.now().UnixMilli())
	return c.pinJSON(ctx, "upload_material", payload, c.metadata(name, kindJSON))
}

func (c *Client) pinJSON(ctx context.Context, op string, content any, meta pinMetadata) (string, error) {
	pinned, err := json.Marshal(content)
	if err != nil {
		return "", fmt.Errorf("pinata %s: encode content: %w", op, err)
	}
	body, err := json.Marshal(struct {
		Content  json.RawMessage `json:"pinataContent"`
		Metadata pinMetadata     `json:"pinataMetadata"`
		Options  pinOptions      `json:"pinataOptions"`
	}{pinned, meta, pinOptions{CIDVersion: 0}})
	if err != nil {
		return "", fmt.Errorf("pinata %s: encode request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL+"/pinning/pinJSONToIPFS", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	cid, err := c.pin(req, op)
	if err != nil {
		return "", err
	}
	c.cache.Add(cid, string(pinned))
	c.mirrorPut(ctx, cid, pinned)
	return cid, nil
}

// UploadFile pins the bytes read from r under the given file name.
func (c *Client) UploadFile(ctx context.Context, name string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	part, err := form.CreateFormFile("file", name)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("pinata upload_file: read %s: %w", name, err)
	}
	meta, _ := json.Marshal(c.metadata(name, kindFile))
	if err := form.WriteField("pinataMetadata", string(meta)); err != nil {
		return "", err
	}
	opts, _ := json.Marshal(pinOptions{CIDVersion: 0})
	if err := form.WriteField("pinataOptions", string(opts)); err != nil {
		return "", err
	}
	if err := form.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.APIURL+"/pinning/pinFileToIPFS", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	return c.pin(req, "upload_file")
}

func (c *Client) pin(req *http.Request, op string) (string, error) {
	body, err := c.do(req, op, true)
	if err != nil {
		return "", err
	}
	var out pinResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("pinata %s: decode response: %w", op, err)
	}
	if out.IpfsHash == "" {
		return "", fmt.Errorf("pinata %s: response carried no IpfsHash", op)
	}
	c.logger.WithFields(map[string]interface{}{"op": op, "cid": out.IpfsHash, "size": out.PinSize}).Info("pinned content")
	return out.IpfsHash, nil
}

func (c *Client) mirrorPut(ctx context.Context, cid string, data []byte) {
	if c.mirror == nil {
		return
	}
	if err := c.mirror.Put(ctx, cid, data); err != nil {
		c.logger.Warnf("mirror put failed: cid=%s err=%v", cid, err)
	}
}
