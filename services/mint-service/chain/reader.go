package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// MaterialMetadata mirrors the contract's MaterialMetadata struct.
type MaterialMetadata struct {
	Subject     string
	Grade       string
	Topic       string
	ContentHash string
	IpfsCid     string
	Author      common.Address
	CreatedAt   *big.Int
	UpdatedAt   *big.Int
	IsPublished bool
	Title       string
	WordCount   *big.Int
}

// Reader performs read-only contract calls.
type Reader struct {
	contract *bind.BoundContract
}

func NewReader(address common.Address, caller bind.ContractCaller) *Reader {
	return &Reader{contract: bind.NewBoundContract(address, MaterialNFTABI, caller, nil, nil)}
}

func (r *Reader) call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	var out []interface{}
	if err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, method, args...); err != nil {
		return nil, fmt.Errorf("chain: call %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("chain: call %s: empty result", method)
	}
	return out, nil
}

func (r *Reader) GetMaterialMetadata(ctx context.Context, tokenID *big.Int) (*MaterialMetadata, error) {
	out, err := r.call(ctx, "getMaterialMetadata", tokenID)
	if err != nil {
		return nil, err
	}
	return abi.ConvertType(out[0], new(MaterialMetadata)).(*MaterialMetadata), nil
}

func (r *Reader) ContentHashExists(ctx context.Context, contentHash string) (bool, error) {
	out, err := r.call(ctx, "contentHashExists", contentHash)
	if err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

// TokenIDByContentHash returns the token the contract associates with the
// hash. The contract answers 0 for unknown hashes.
func (r *Reader) TokenIDByContentHash(ctx context.Context, contentHash string) (*big.Int, error) {
	out, err := r.call(ctx, "getTokenIdByContentHash", contentHash)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (r *Reader) OwnerOf(ctx context.Context, tokenID *big.Int) (common.Address, error) {
	out, err := r.call(ctx, "ownerOf", tokenID)
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

func (r *Reader) AuthorMaterials(ctx context.Context, author common.Address) ([]*big.Int, error) {
	out, err := r.call(ctx, "getAuthorMaterials", author)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int), nil
}

func (r *Reader) PublishedBySubject(ctx context.Context, subject string) ([]*big.Int, error) {
	out, err := r.call(ctx, "getPublishedMaterialsBySubject", subject)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new([]*big.Int)).(*[]*big.Int), nil
}

func (r *Reader) TokenURI(ctx context.Context, tokenID *big.Int) (string, error) {
	out, err := r.call(ctx, "tokenURI", tokenID)
	if err != nil {
		return "", err
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}
