package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Wallet is the signing account the minter acts through. msg.sender of
// every transaction is Address().
type Wallet interface {
	Address() common.Address
	ChainID(ctx context.Context) (uint64, error)
	SwitchChain(ctx context.Context, chainID uint64) error
	SendTransaction(ctx context.Context, to common.Address, data []byte) (common.Hash, error)
	WaitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

var ErrUnknownChain = errors.New("chain: no rpc endpoint configured for chain")

var (
	_ Wallet              = (*KeyedWallet)(nil)
	_ MessageSigner       = (*KeyedWallet)(nil)
	_ bind.ContractCaller = (*KeyedWallet)(nil)
)

const receiptPollInterval = 2 * time.Second

// KeyedWallet signs with a local ECDSA key and talks to one RPC endpoint at
// a time. Switching chains re-dials the endpoint configured for the target.
type KeyedWallet struct {
	mu       sync.RWMutex
	key      *ecdsa.PrivateKey
	address  common.Address
	client   *ethclient.Client
	chainID  uint64
	rpcURLs  map[uint64]string
	pollEach time.Duration
}

// ParsePrivateKey accepts a hex key with or without 0x.
func ParsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("chain: parse wallet key: %w", err)
	}
	return key, nil
}

// NewKeyedWallet dials rpcURL and records which chain it serves. rpcURLs
// lists the endpoints SwitchChain may move to.
func NewKeyedWallet(ctx context.Context, key *ecdsa.PrivateKey, rpcURL string, rpcURLs map[uint64]string) (*KeyedWallet, error) {
	client, chainID, err := dial(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	urls := make(map[uint64]string, len(rpcURLs)+1)
	for id, u := range rpcURLs {
		urls[id] = u
	}
	if _, ok := urls[chainID]; !ok {
		urls[chainID] = rpcURL
	}
	return &KeyedWallet{
		key:      key,
		address:  crypto.PubkeyToAddress(key.PublicKey),
		client:   client,
		chainID:  chainID,
		rpcURLs:  urls,
		pollEach: receiptPollInterval,
	}, nil
}

func dial(ctx context.Context, rpcURL string) (*ethclient.Client, uint64, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, 0, fmt.Errorf("chain: dial %s: %w", rpcURL, err)
	}
	id, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, 0, fmt.Errorf("chain: query chain id from %s: %w", rpcURL, err)
	}
	return client, id.Uint64(), nil
}

func (w *KeyedWallet) Address() common.Address { return w.address }

func (w *KeyedWallet) ChainID(context.Context) (uint64, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.chainID, nil
}

func (w *KeyedWallet) SwitchChain(ctx context.Context, chainID uint64) error {
	w.mu.RLock()
	current := w.chainID
	rpcURL, ok := w.rpcURLs[chainID]
	w.mu.RUnlock()
	if current == chainID {
		return nil
	}
	if !ok {
		return fmt.Errorf("%w %d", ErrUnknownChain, chainID)
	}
	client, got, err := dial(ctx, rpcURL)
	if err != nil {
		return err
	}
	if got != chainID {
		client.Close()
		return fmt.Errorf("chain: endpoint %s serves chain %d, wanted %d", rpcURL, got, chainID)
	}

	w.mu.Lock()
	old := w.client
	w.client, w.chainID = client, chainID
	w.mu.Unlock()
	old.Close()
	return nil
}

// Client is the RPC client for the current chain.
func (w *KeyedWallet) Client() *ethclient.Client {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.client
}

// CodeAt and CallContract make the wallet a bind.ContractCaller that
// follows chain switches.
func (w *KeyedWallet) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return w.Client().CodeAt(ctx, contract, blockNumber)
}

func (w *KeyedWallet) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return w.Client().CallContract(ctx, call, blockNumber)
}

func (w *KeyedWallet) SendTransaction(ctx context.Context, to common.Address, data []byte) (common.Hash, error) {
	w.mu.RLock()
	client, chainID := w.client, w.chainID
	w.mu.RUnlock()

	opts, err := bind.NewKeyedTransactorWithChainID(w.key, new(big.Int).SetUint64(chainID))
	if err != nil {
		return common.Hash{}, err
	}
	opts.Context = ctx
	contract := bind.NewBoundContract(to, abi.ABI{}, client, client, client)
	tx, err := contract.RawTransact(opts, data)
	if err != nil {
		return common.Hash{}, err
	}
	return tx.Hash(), nil
}

// WaitReceipt polls until the transaction is mined or ctx ends.
func (w *KeyedWallet) WaitReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(w.pollEach)
	defer ticker.Stop()
	for {
		receipt, err := w.Client().TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// SignMessage produces an EIP-191 personal signature.
func (w *KeyedWallet) SignMessage(msg []byte) ([]byte, error) {
	return SignPersonal(w.key, msg)
}

func (w *KeyedWallet) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.client != nil {
		w.client.Close()
	}
}
