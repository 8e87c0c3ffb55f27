package pinata

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/RigelNana/baselibrary/services/mint-service/contenthash"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinata struct {
	t         *testing.T
	gateway   map[string]string
	gwHits    atomic.Int32
	lastBody  map[string]json.RawMessage
	lastForm  map[string]string
	unpinned  []string
	failPins  bool
	failGate  bool
	wantKey   string
	wantToken string
}

func (f *fakePinata) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	authed := r.Header.Get("pinata_api_key") == f.wantKey && f.wantKey != "" ||
		f.wantToken != "" && r.Header.Get("Authorization") == "Bearer "+f.wantToken
	switch {
	case strings.HasPrefix(r.URL.Path, "/ipfs/"):
		f.gwHits.Add(1)
		if f.failGate {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		body, ok := f.gateway[strings.TrimPrefix(r.URL.Path, "/ipfs/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Method != http.MethodHead {
			_, _ = io.WriteString(w, body)
		}
	case !authed:
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"reason":"INVALID_CREDENTIALS","details":"bad key"}}`)
	case r.URL.Path == "/pinning/pinJSONToIPFS":
		if f.failPins {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"Invalid request format"}`)
			return
		}
		f.lastBody = map[string]json.RawMessage{}
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&f.lastBody))
		_, _ = io.WriteString(w, `{"IpfsHash":"QmJSON","PinSize":42,"Timestamp":"2024-01-01T00:00:00Z"}`)
	case r.URL.Path == "/pinning/pinFileToIPFS":
		require.NoError(f.t, r.ParseMultipartForm(1<<20))
		file, hdr, err := r.FormFile("file")
		require.NoError(f.t, err)
		data, _ := io.ReadAll(file)
		f.lastForm = map[string]string{
			"filename":       hdr.Filename,
			"data":           string(data),
			"pinataMetadata": r.FormValue("pinataMetadata"),
			"pinataOptions":  r.FormValue("pinataOptions"),
		}
		_, _ = io.WriteString(w, `{"IpfsHash":"QmFILE","PinSize":3}`)
	case r.URL.Path == "/data/pinList":
		assert.Equal(f.t, "pinned", r.URL.Query().Get("status"))
		_, _ = io.WriteString(w, `{"count":1,"rows":[{"id":"p1","ipfs_pin_hash":"QmA","size":10,"date_pinned":"2024-01-01T00:00:00Z","metadata":{"name":"material-text-1.txt","keyvalues":{"type":"educational-material-text"}}}]}`)
	case strings.HasPrefix(r.URL.Path, "/pinning/unpin/") && r.Method == http.MethodDelete:
		f.unpinned = append(f.unpinned, strings.TrimPrefix(r.URL.Path, "/pinning/unpin/"))
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type memMirror struct {
	objects map[string][]byte
	err     error
}

func (m *memMirror) Put(_ context.Context, cid string, data []byte) error {
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[cid] = data
	return nil
}

func (m *memMirror) Get(_ context.Context, cid string) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	data, ok := m.objects[cid]
	if !ok {
		return nil, errors.New("no such object")
	}
	return data, nil
}

func newTestClient(t *testing.T, f *fakePinata, cfg Config, opts ...Option) *Client {
	t.Helper()
	f.t = t
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	cfg.APIURL = srv.URL
	cfg.GatewayURL = srv.URL + "/ipfs"
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	c, err := NewClient(cfg, append([]Option{WithLogger(logger)}, opts...)...)
	require.NoError(t, err)
	c.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return c
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "ab\u200bcde", Sanitize("a\x00b\u200bc\uFEFFd\x7f\u0085e\n"))
	assert.Equal(t, "Linear Equations 101", Sanitize("Linear Equations 101"))

	multiline := "Step 1\n\tSolve for x\r\n"
	assert.Equal(t, "Step 1Solve for x", Sanitize(multiline))
	assert.NotEqual(t, contenthash.Hash(multiline), contenthash.Hash(Sanitize(multiline)))
}

func TestUploadTextEnvelope(t *testing.T) {
	f := &fakePinata{wantKey: "key"}
	mirror := &memMirror{}
	c := newTestClient(t, f, Config{APIKey: "key", SecretKey: "secret"}, WithMirror(mirror))

	cid, err := c.UploadText(context.Background(), "x = 1\x00")
	require.NoError(t, err)
	assert.Equal(t, "QmJSON", cid)

	var env TextEnvelope
	require.NoError(t, json.Unmarshal(f.lastBody["pinataContent"], &env))
	assert.Equal(t, TextEnvelope{Content: "x = 1", Type: "text/plain", Encoding: "utf-8"}, env)

	var meta pinMetadata
	require.NoError(t, json.Unmarshal(f.lastBody["pinataMetadata"], &meta))
	assert.Equal(t, "material-text-1700000000000.txt", meta.Name)
	assert.Equal(t, kindText, meta.KeyValues["type"])
	assert.JSONEq(t, `{"cidVersion":0}`, string(f.lastBody["pinataOptions"]))

	assert.Contains(t, mirror.objects, "QmJSON")
	text, err := c.GetText(context.Background(), "QmJSON")
	require.NoError(t, err)
	assert.Equal(t, "x = 1", text)
	assert.Zero(t, f.gwHits.Load())
}

func TestUploadUsesJWTWhenSet(t *testing.T) {
	f := &fakePinata{wantToken: "jwt-token"}
	c := newTestClient(t, f, Config{JWT: "jwt-token"})

	cid, err := c.UploadJSON(context.Background(), map[string]string{"a": "b"})
	require.NoError(t, err)
	assert.Equal(t, "QmJSON", cid)
}

func TestUploadWithoutCredentials(t *testing.T) {
	c := newTestClient(t, &fakePinata{}, Config{})
	_, err := c.UploadText(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestUploadAPIErrors(t *testing.T) {
	f := &fakePinata{wantKey: "key"}
	c := newTestClient(t, f, Config{APIKey: "other", SecretKey: "secret"})

	_, err := c.UploadText(context.Background(), "hello")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "INVALID_CREDENTIALS", apiErr.Reason)

	f.failPins = true
	c = newTestClient(t, f, Config{APIKey: "key", SecretKey: "secret"})
	_, err = c.UploadText(context.Background(), "hello")
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Invalid request format", apiErr.Reason)
}

func TestUploadFileMultipart(t *testing.T) {
	f := &fakePinata{wantKey: "key"}
	c := newTestClient(t, f, Config{APIKey: "key", SecretKey: "secret"})

	cid, err := c.UploadFile(context.Background(), "notes.md", strings.NewReader("abc"))
	require.NoError(t, err)
	assert.Equal(t, "QmFILE", cid)
	assert.Equal(t, "notes.md", f.lastForm["filename"])
	assert.Equal(t, "abc", f.lastForm["data"])
	assert.Contains(t, f.lastForm["pinataMetadata"], kindFile)
	assert.JSONEq(t, `{"cidVersion":0}`, f.lastForm["pinataOptions"])
}

func TestUploadMaterialDocument(t *testing.T) {
	f := &fakePinata{wantKey: "key"}
	c := newTestClient(t, f, Config{APIKey: "key", SecretKey: "secret"})

	_, err := c.UploadMaterial(context.Background(), MaterialDocument{Content: "# Algebra", Title: "Algebra", Subject: "Math"})
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(f.lastBody["pinataContent"], &doc))
	assert.Equal(t, "1.0", doc["version"])
	assert.Equal(t, kindMaterial, doc["type"])
	assert.Equal(t, "Algebra", doc["title"])
}

func TestGetContentCachesGatewayReads(t *testing.T) {
	f := &fakePinata{gateway: map[string]string{"QmG": `{"content":"hello","type":"text/plain","encoding":"utf-8"}`}}
	c := newTestClient(t, f, Config{})

	for i := 0; i < 3; i++ {
		text, err := c.GetText(context.Background(), "QmG")
		require.NoError(t, err)
		assert.Equal(t, "hello", text)
	}
	assert.Equal(t, int32(1), f.gwHits.Load())
}

func TestGetTextReturnsNonEnvelopeVerbatim(t *testing.T) {
	f := &fakePinata{gateway: map[string]string{"QmRaw": "plain text"}}
	c := newTestClient(t, f, Config{})

	text, err := c.GetText(context.Background(), "QmRaw")
	require.NoError(t, err)
	assert.Equal(t, "plain text", text)

	_, err = c.GetContent(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyCID)
}

func TestGetJSON(t *testing.T) {
	f := &fakePinata{gateway: map[string]string{
		"QmWrapped": `{"content":"{\"title\":\"A\"}","type":"text/plain","encoding":"utf-8"}`,
		"QmDoc":     `{"title":"B","content":"# not json"}`,
	}}
	c := newTestClient(t, f, Config{})

	var doc struct {
		Title string `json:"title"`
	}
	require.NoError(t, c.GetJSON(context.Background(), "QmWrapped", &doc))
	assert.Equal(t, "A", doc.Title)
	require.NoError(t, c.GetJSON(context.Background(), "QmDoc", &doc))
	assert.Equal(t, "B", doc.Title)
}

func TestGetContentFallsBackToMirror(t *testing.T) {
	f := &fakePinata{failGate: true}
	mirror := &memMirror{objects: map[string][]byte{"QmM": []byte(`{"content":"mirrored"}`)}}
	c := newTestClient(t, f, Config{}, WithMirror(mirror))

	text, err := c.GetText(context.Background(), "QmM")
	require.NoError(t, err)
	assert.Equal(t, "mirrored", text)

	_, err = c.GetContent(context.Background(), "QmMissing")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
}

func TestIsContentAvailable(t *testing.T) {
	f := &fakePinata{gateway: map[string]string{"QmHere": "x"}}
	c := newTestClient(t, f, Config{})

	assert.True(t, c.IsContentAvailable(context.Background(), "QmHere"))
	assert.False(t, c.IsContentAvailable(context.Background(), "QmGone"))
	assert.False(t, c.IsContentAvailable(context.Background(), ""))
}

func TestListPinnedAndUnpin(t *testing.T) {
	f := &fakePinata{wantKey: "key", gateway: map[string]string{"QmA": "a"}}
	c := newTestClient(t, f, Config{APIKey: "key", SecretKey: "secret"})

	pins, err := c.ListPinned(context.Background())
	require.NoError(t, err)
	require.Len(t, pins, 1)
	assert.Equal(t, "QmA", pins[0].IPFSPinHash)
	assert.Equal(t, "material-text-1.txt", pins[0].Metadata.Name)

	_, err = c.GetContent(context.Background(), "QmA")
	require.NoError(t, err)
	require.NoError(t, c.Unpin(context.Background(), "QmA"))
	assert.Equal(t, []string{"QmA"}, f.unpinned)
	_, ok := c.cache.Peek("QmA")
	assert.False(t, ok)
}

func TestContentURL(t *testing.T) {
	c, err := NewClient(Config{JWT: "x"})
	require.NoError(t, err)
	assert.Equal(t, "https://gateway.pinata.cloud/ipfs/QmX", c.ContentURL("QmX"))
}
