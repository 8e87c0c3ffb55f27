package backend

import (
	"context"
	"errors"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
)

func (f MaterialsFilter) values() url.Values {
	q := url.Values{}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(f.PageSize))
	}
	if f.Subject != "" {
		q.Set("subject", f.Subject)
	}
	if f.Grade != "" {
		q.Set("grade", f.Grade)
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	return q
}

func (c *Client) get(op, path string, q url.Values) request {
	return request{op: op, method: http.MethodGet, base: c.baseURL, path: path, query: q}
}

func materialPath(id string, suffix string) string {
	return "/materials/" + url.PathEscape(id) + suffix
}

func (c *Client) ListMaterials(ctx context.Context, sess *Session, f MaterialsFilter) (*MaterialsResponse, error) {
	var out MaterialsResponse
	if err := c.call(ctx, sess, c.get("list_materials", "/materials/all", f.values()), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListMyMaterials lists the caller's materials, falling back to the full
// catalogue on backends without the /materials/my route.
func (c *Client) ListMyMaterials(ctx context.Context, sess *Session, f MaterialsFilter) (*MaterialsResponse, error) {
	var out MaterialsResponse
	err := c.call(ctx, sess, c.get("list_my_materials", "/materials/my", f.values()), &out)
	if StatusCode(err) == http.StatusNotFound {
		c.logger.Info("materials/my not available, falling back to materials/all")
		return c.ListMaterials(ctx, sess, f)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetMaterial(ctx context.Context, sess *Session, id string, includeContent bool) (*Material, error) {
	q := url.Values{}
	q.Set("include_content", strconv.FormatBool(includeContent))
	var out Material
	if err := c.call(ctx, sess, c.get("get_material", materialPath(id, ""), q), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateMaterial(ctx context.Context, sess *Session, id string, upd MaterialUpdate) (*Material, error) {
	r, err := c.jsonRequest("update_material", http.MethodPatch, materialPath(id, ""), upd)
	if err != nil {
		return nil, err
	}
	var out Material
	if err := c.call(ctx, sess, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteMaterial(ctx context.Context, sess *Session, id string) error {
	return c.call(ctx, sess, request{op: "delete_material", method: http.MethodDelete, base: c.baseURL, path: materialPath(id, "")}, nil)
}

func (c *Client) SubjectStats(ctx context.Context, sess *Session) ([]SubjectStats, error) {
	var out struct {
		Subjects []SubjectStats `json:"subjects"`
	}
	if err := c.call(ctx, sess, c.get("subject_stats", "/materials/stats/subjects", nil), &out); err != nil {
		return nil, err
	}
	return out.Subjects, nil
}

func (c *Client) Leaderboard(ctx context.Context, sess *Session, page, pageSize int) (*LeaderboardResponse, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("page_size", strconv.Itoa(pageSize))
	var out LeaderboardResponse
	if err := c.call(ctx, sess, c.get("leaderboard", "/materials/leaderboard", q), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MyStats(ctx context.Context, sess *Session) (*UserStats, error) {
	var out UserStats
	if err := c.call(ctx, sess, c.get("my_stats", "/user/my-stats", nil), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) BlockchainStats(ctx context.Context, sess *Session) (*BlockchainStats, error) {
	var out BlockchainStats
	if err := c.call(ctx, sess, c.get("blockchain_stats", "/materials/blockchain-stats", nil), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MaterialsByTokens(ctx context.Context, sess *Session, tokenIDs []*big.Int) ([]Material, error) {
	r, err := c.jsonRequest("materials_by_tokens", http.MethodPost, "/materials/by-tokens", map[string][]*big.Int{"tokenIds": tokenIDs})
	if err != nil {
		return nil, err
	}
	var out []Material
	if err := c.call(ctx, sess, r, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ===== NFT =====

func (c *Client) NFTMetadata(ctx context.Context, sess *Session, id string) (*NFTMetadata, error) {
	var out NFTMetadata
	if err := c.call(ctx, sess, c.get("nft_metadata", materialPath(id, "/nft-metadata"), nil), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckContentHash asks whether an NFT with this content hash exists.
func (c *Client) CheckContentHash(ctx context.Context, sess *Session, contentHash string) (*ContentHashCheck, error) {
	if contentHash == "" {
		return nil, errors.New("backend check_content_hash: empty hash")
	}
	q := url.Values{}
	q.Set("content_hash", contentHash)
	var out ContentHashCheck
	if err := c.call(ctx, sess, c.get("check_content_hash", "/materials/check-content-hash", q), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Ownership(ctx context.Context, sess *Session, id string) (*Ownership, error) {
	var out Ownership
	if err := c.call(ctx, sess, c.get("ownership", materialPath(id, "/ownership"), nil), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) NFTStatus(ctx context.Context, sess *Session, id string) (*NFTStatus, error) {
	var out NFTStatus
	if err := c.call(ctx, sess, c.get("nft_status", materialPath(id, "/nft-status"), nil), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SyncBlockchain records a confirmed mint against an existing material.
func (c *Client) SyncBlockchain(ctx context.Context, sess *Session, id string, refs BlockchainRefs) (*Material, error) {
	r, err := c.jsonRequest("sync_blockchain", http.MethodPost, materialPath(id, "/sync-blockchain"), refs)
	if err != nil {
		return nil, err
	}
	var out Material
	if err := c.call(ctx, sess, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateWithNFT creates a material record for content minted before it
// existed in the backend.
func (c *Client) CreateWithNFT(ctx context.Context, sess *Session, m NewMaterial, refs BlockchainRefs) (*Material, error) {
	payload := struct {
		NewMaterial
		BlockchainRefs
		Blockchain BlockchainRefs `json:"blockchain"`
	}{m, refs, refs}
	r, err := c.jsonRequest("create_with_nft", http.MethodPost, "/materials/create-with-nft", payload)
	if err != nil {
		return nil, err
	}
	var out Material
	if err := c.call(ctx, sess, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateBlockchain(ctx context.Context, sess *Session, id string, refs ContentUpdateRefs) (*Material, error) {
	r, err := c.jsonRequest("update_blockchain", http.MethodPost, materialPath(id, "/update-blockchain"), refs)
	if err != nil {
		return nil, err
	}
	var out Material
	if err := c.call(ctx, sess, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
