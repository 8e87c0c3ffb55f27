package backend

import (
	"encoding/json"
	"math/big"
	"strings"

	"github.com/RigelNana/baselibrary/services/mint-service/hitl"
)

type MaterialStatus string

const (
	StatusDraft     MaterialStatus = "draft"
	StatusPublished MaterialStatus = "published"
	StatusArchived  MaterialStatus = "archived"
)

// BlockchainInfo is the on-chain view the backend keeps for a material.
type BlockchainInfo struct {
	TokenID     *big.Int `json:"tokenId,omitempty"`
	TxHash      string   `json:"txHash,omitempty"`
	IPFSCid     string   `json:"ipfsCid,omitempty"`
	ContentHash string   `json:"contentHash,omitempty"`
	IsPublished bool     `json:"isPublished,omitempty"`
	CreatedAt   int64    `json:"createdAt,omitempty"`
	UpdatedAt   int64    `json:"updatedAt,omitempty"`
}

type Material struct {
	ID           string          `json:"id"`
	AuthorID     string          `json:"author_id"`
	AuthorWallet string          `json:"author_wallet"`
	ThreadID     string          `json:"thread_id"`
	SessionID    string          `json:"session_id"`
	FilePath     string          `json:"file_path"`
	Subject      string          `json:"subject"`
	Grade        string          `json:"grade"`
	Topic        string          `json:"topic"`
	ContentHash  string          `json:"content_hash"`
	IPFSCid      string          `json:"ipfs_cid"`
	Title        string          `json:"title"`
	WordCount    int             `json:"word_count"`
	Status       MaterialStatus  `json:"status"`
	Content      string          `json:"content,omitempty"`
	InputQuery   string          `json:"input_query,omitempty"`
	CreatedAt    string          `json:"created_at"`
	UpdatedAt    string          `json:"updated_at"`
	Blockchain   *BlockchainInfo `json:"blockchain,omitempty"`
	IsOwner      *bool           `json:"is_owner,omitempty"`
	NFTMinted    bool            `json:"nft_minted"`
	NFTTokenID   *big.Int        `json:"nft_token_id,omitempty"`
}

// AuthoredBy compares the author wallet case-insensitively.
func (m *Material) AuthoredBy(wallet string) bool {
	return m.AuthorWallet != "" && strings.EqualFold(m.AuthorWallet, wallet)
}

type MaterialsFilter struct {
	Page     int
	PageSize int
	Subject  string
	Grade    string
	Status   MaterialStatus
}

type MaterialsResponse struct {
	Materials []Material `json:"materials"`
	Total     int        `json:"total"`
	Page      int        `json:"page"`
	PageSize  int        `json:"page_size"`
}

// MaterialUpdate carries the editable fields; nil fields are left alone.
type MaterialUpdate struct {
	Title   *string         `json:"title,omitempty"`
	Subject *string         `json:"subject,omitempty"`
	Grade   *string         `json:"grade,omitempty"`
	Topic   *string         `json:"topic,omitempty"`
	Content *string         `json:"content,omitempty"`
	Status  *MaterialStatus `json:"status,omitempty"`
}

type SubjectStats struct {
	Subject string `json:"subject"`
	Count   int    `json:"count"`
}

type LeaderboardEntry struct {
	Rank           int    `json:"rank"`
	WalletAddress  string `json:"walletAddress"`
	MaterialsCount int    `json:"materialsCount"`
	NFTCount       int    `json:"nftCount"`
	TotalScore     int    `json:"totalScore"`
}

type LeaderboardResponse struct {
	Entries  []LeaderboardEntry `json:"entries"`
	Total    int                `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

type UserStats struct {
	TotalMaterials     int            `json:"totalMaterials"`
	MintedNFTs         int            `json:"mintedNFTs"`
	PublishedMaterials int            `json:"publishedMaterials"`
	DraftMaterials     int            `json:"draftMaterials"`
	Subjects           []SubjectStats `json:"subjects"`
}

type BlockchainStats struct {
	TotalNFTs     int            `json:"totalNFTs"`
	PublishedNFTs int            `json:"publishedNFTs"`
	Subjects      []SubjectStats `json:"subjects"`
}

// BlockchainRefs are the identifiers recorded after a successful mint.
type BlockchainRefs struct {
	IPFSCid     string   `json:"ipfsCid"`
	ContentHash string   `json:"contentHash"`
	TxHash      string   `json:"txHash"`
	TokenID     *big.Int `json:"tokenId"`
}

type ContentUpdateRefs struct {
	NewIPFSCid     string `json:"newIpfsCid"`
	NewContentHash string `json:"newContentHash"`
	TxHash         string `json:"txHash"`
}

type NFTMetadata struct {
	TokenID     *big.Int `json:"tokenId"`
	IPFSCid     string   `json:"ipfsCid"`
	ContentHash string   `json:"contentHash"`
	TxHash      string   `json:"txHash"`
	IsPublished bool     `json:"isPublished"`
}

type ContentHashCheck struct {
	Exists     bool     `json:"exists"`
	TokenID    *big.Int `json:"tokenId,omitempty"`
	MaterialID string   `json:"materialId,omitempty"`
}

type Ownership struct {
	IsOwner   bool     `json:"isOwner"`
	NFTMinted bool     `json:"nftMinted"`
	TokenID   *big.Int `json:"tokenId,omitempty"`
	CanMint   bool     `json:"canMint"`
}

type NFTStatus struct {
	NFTMinted bool     `json:"nftMinted"`
	TokenID   *big.Int `json:"tokenId,omitempty"`
	TxHash    string   `json:"txHash,omitempty"`
	IPFSCid   string   `json:"ipfsCid,omitempty"`
}

// NewMaterial describes a material that does not exist in the backend yet.
type NewMaterial struct {
	Title         string `json:"title"`
	Subject       string `json:"subject"`
	Grade         string `json:"grade"`
	Topic         string `json:"topic"`
	Content       string `json:"content"`
	WalletAddress string `json:"wallet_address,omitempty"`
}

// ===== auth =====

type NonceResponse struct {
	Nonce     string `json:"nonce"`
	Message   string `json:"message"`
	ExpiresIn int    `json:"expires_in"`
}

type SignatureRequest struct {
	WalletAddress string `json:"wallet_address"`
	Signature     string `json:"signature"`
	Nonce         string `json:"nonce"`
}

type User struct {
	ID            string  `json:"id"`
	Name          string  `json:"name,omitempty"`
	WalletAddress string  `json:"wallet_address"`
	CreatedAt     string  `json:"created_at"`
	LastLogin     *string `json:"last_login,omitempty"`
}

type AuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

// ===== generation / HITL =====

type Difficulty string

const (
	Beginner     Difficulty = "beginner"
	Intermediate Difficulty = "intermediate"
	Advanced     Difficulty = "advanced"
)

type Volume string

const (
	Brief    Volume = "brief"
	Standard Volume = "standard"
	Detailed Volume = "detailed"
)

type MaterialSettings struct {
	Difficulty         Difficulty `json:"difficulty"`
	Subject            string     `json:"subject"`
	Volume             Volume     `json:"volume"`
	EnableHITL         bool       `json:"enableHITL"`
	EnableEditing      bool       `json:"enableEditing"`
	EnableGapQuestions bool       `json:"enableGapQuestions"`
}

// Image is an attachment sent with a generation request.
type Image struct {
	Name string
	Data []byte
}

type ProcessRequest struct {
	Question      string
	Settings      MaterialSettings
	WalletAddress string
	Images        []Image
}

type FeedbackRequest struct {
	ThreadID      string
	Message       string
	Question      string
	WalletAddress string
	Images        []Image
}

type ProcessStatus struct {
	ThreadID         string          `json:"thread_id"`
	SessionID        string          `json:"session_id"`
	Status           string          `json:"status"`
	Result           json.RawMessage `json:"result,omitempty"`
	Interrupted      bool            `json:"interrupted"`
	InterruptMessage []string        `json:"interrupt_message,omitempty"`
	AwaitingFeedback bool            `json:"awaiting_feedback"`
	CurrentNode      hitl.Node       `json:"current_node"`
}

type HITLConfig map[string]bool

// ===== prompt config =====

type PlaceholderValue struct {
	ID            string `json:"id"`
	PlaceholderID string `json:"placeholder_id"`
	Value         string `json:"value"`
	DisplayName   string `json:"display_name"`
	Description   string `json:"description,omitempty"`
}

type Placeholder struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	DisplayName string             `json:"display_name"`
	Description string             `json:"description,omitempty"`
	Category    string             `json:"category"`
	Values      []PlaceholderValue `json:"values"`
}

type UserPlaceholderSetting struct {
	PlaceholderID          string `json:"placeholder_id"`
	PlaceholderName        string `json:"placeholder_name"`
	PlaceholderDisplayName string `json:"placeholder_display_name"`
	ValueID                string `json:"value_id"`
	Value                  string `json:"value"`
	DisplayName            string `json:"display_name"`
}

type UserPlaceholderSettings struct {
	Placeholders      map[string]UserPlaceholderSetting `json:"placeholders"`
	ActiveProfileID   *string                           `json:"active_profile_id"`
	ActiveProfileName *string                           `json:"active_profile_name"`
}

type ProfilePlaceholderSetting struct {
	PlaceholderID      string            `json:"placeholder_id"`
	PlaceholderValueID string            `json:"placeholder_value_id"`
	Placeholder        *Placeholder      `json:"placeholder,omitempty"`
	PlaceholderValue   *PlaceholderValue `json:"placeholder_value,omitempty"`
}

type Profile struct {
	ID                  string                      `json:"id"`
	Name                string                      `json:"name"`
	DisplayName         string                      `json:"display_name"`
	Description         string                      `json:"description,omitempty"`
	Category            string                      `json:"category"`
	CreatedAt           string                      `json:"created_at"`
	UpdatedAt           string                      `json:"updated_at"`
	PlaceholderSettings []ProfilePlaceholderSetting `json:"placeholder_settings"`
}
