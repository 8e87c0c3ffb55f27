package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/RigelNana/baselibrary/services/mint-service/backend"
	"github.com/RigelNana/baselibrary/services/mint-service/chain"
	"github.com/RigelNana/baselibrary/services/mint-service/config"
	"github.com/RigelNana/baselibrary/services/mint-service/database"
	"github.com/RigelNana/baselibrary/services/mint-service/events"
	"github.com/RigelNana/baselibrary/services/mint-service/repository"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

var (
	author   = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	contract = common.HexToAddress("0xd40c0000000000000000000000000000000f3fb0")
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type journal struct {
	mu      sync.Mutex
	entries []string
}

func (j *journal) add(format string, args ...interface{}) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, fmt.Sprintf(format, args...))
}

func (j *journal) index(entry string) int {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i, e := range j.entries {
		if e == entry {
			return i
		}
	}
	return -1
}

// ===== chain =====

type fakeWallet struct {
	mu           sync.Mutex
	j            *journal
	chainID      uint64
	rejectSwitch bool
	status       uint64
	logs         []*types.Log
	sent         [][]byte
}

func (w *fakeWallet) Address() common.Address { return author }

func (w *fakeWallet) ChainID(context.Context) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.chainID, nil
}

func (w *fakeWallet) SwitchChain(_ context.Context, id uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.j.add("switch:%d", id)
	if w.rejectSwitch {
		return errors.New("user rejected the request")
	}
	w.chainID = id
	return nil
}

func (w *fakeWallet) SendTransaction(_ context.Context, _ common.Address, data []byte) (common.Hash, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.j.add("send")
	w.sent = append(w.sent, data)
	return common.BigToHash(big.NewInt(int64(0xabc0 + len(w.sent)))), nil
}

func (w *fakeWallet) WaitReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return &types.Receipt{Status: w.status, TxHash: hash, Logs: w.logs, BlockNumber: big.NewInt(100)}, nil
}

func transferLog(to common.Address, tokenID int64) *types.Log {
	return &types.Log{
		Address: contract,
		Topics: []common.Hash{
			chain.TransferEventID,
			{},
			common.BytesToHash(to.Bytes()),
			common.BigToHash(big.NewInt(tokenID)),
		},
	}
}

type fakeUploader struct {
	j        *journal
	cid      string
	err      error
	calls    int
	contents []string
}

func (u *fakeUploader) UploadText(_ context.Context, content string) (string, error) {
	u.calls++
	u.j.add("upload")
	u.contents = append(u.contents, content)
	if u.err != nil {
		return "", u.err
	}
	return u.cid, nil
}

type fakeIndex struct {
	token *big.Int
	err   error
}

func (f *fakeIndex) TokenIDByContentHash(context.Context, string) (*big.Int, error) {
	return f.token, f.err
}

// ===== backend =====

type fakeBackend struct {
	mu sync.Mutex

	material     *backend.Material
	getErr       error
	check        *backend.ContentHashCheck
	checkErr     error
	ownership    *backend.Ownership
	ownershipErr error
	status       *backend.NFTStatus
	statusErr    error
	syncErr      error
	createErr    error
	updateErr    error

	calls   map[string]int
	synced  []backend.BlockchainRefs
	created []backend.NewMaterial
	updates []backend.ContentUpdateRefs
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		material: &backend.Material{
			ID:           "m1",
			AuthorWallet: strings.ToLower(author.Hex()),
			Subject:      "math",
			Grade:        "7",
			Topic:        "Linear Equations",
			Title:        "Linear Equations 101",
			Content:      "Linear Equations 101",
			WordCount:    3,
		},
		check:     &backend.ContentHashCheck{Exists: false},
		ownership: &backend.Ownership{IsOwner: true, CanMint: true},
		status:    &backend.NFTStatus{},
		calls:     map[string]int{},
	}
}

func (b *fakeBackend) count(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[name]
}

func (b *fakeBackend) hit(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls[name]++
}

func (b *fakeBackend) GetMaterial(_ context.Context, _ *backend.Session, id string, _ bool) (*backend.Material, error) {
	b.hit("get")
	if b.getErr != nil {
		return nil, b.getErr
	}
	m := *b.material
	m.ID = id
	return &m, nil
}

func (b *fakeBackend) CheckContentHash(context.Context, *backend.Session, string) (*backend.ContentHashCheck, error) {
	b.hit("check")
	if b.checkErr != nil {
		return nil, b.checkErr
	}
	c := *b.check
	return &c, nil
}

func (b *fakeBackend) Ownership(context.Context, *backend.Session, string) (*backend.Ownership, error) {
	b.hit("ownership")
	if b.ownershipErr != nil {
		return nil, b.ownershipErr
	}
	o := *b.ownership
	return &o, nil
}

func (b *fakeBackend) NFTStatus(context.Context, *backend.Session, string) (*backend.NFTStatus, error) {
	b.hit("status")
	if b.statusErr != nil {
		return nil, b.statusErr
	}
	s := *b.status
	return &s, nil
}

func (b *fakeBackend) SyncBlockchain(_ context.Context, _ *backend.Session, id string, refs backend.BlockchainRefs) (*backend.Material, error) {
	b.hit("sync")
	b.mu.Lock()
	b.synced = append(b.synced, refs)
	b.mu.Unlock()
	if b.syncErr != nil {
		return nil, b.syncErr
	}
	m := *b.material
	m.ID = id
	m.NFTMinted = true
	m.NFTTokenID = refs.TokenID
	return &m, nil
}

func (b *fakeBackend) CreateWithNFT(_ context.Context, _ *backend.Session, nm backend.NewMaterial, refs backend.BlockchainRefs) (*backend.Material, error) {
	b.hit("create")
	b.mu.Lock()
	b.created = append(b.created, nm)
	b.mu.Unlock()
	if b.createErr != nil {
		return nil, b.createErr
	}
	return &backend.Material{
		ID:           "m-new",
		AuthorWallet: nm.WalletAddress,
		Title:        nm.Title,
		Subject:      nm.Subject,
		Content:      nm.Content,
		ContentHash:  refs.ContentHash,
		NFTMinted:    true,
		NFTTokenID:   refs.TokenID,
	}, nil
}

func (b *fakeBackend) UpdateBlockchain(_ context.Context, _ *backend.Session, id string, refs backend.ContentUpdateRefs) (*backend.Material, error) {
	b.hit("update")
	b.mu.Lock()
	b.updates = append(b.updates, refs)
	b.mu.Unlock()
	if b.updateErr != nil {
		return nil, b.updateErr
	}
	m := *b.material
	m.ID = id
	m.ContentHash = refs.NewContentHash
	m.IPFSCid = refs.NewIPFSCid
	return &m, nil
}

// ===== events =====

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// ===== harness =====

type harness struct {
	j        *journal
	backend  *fakeBackend
	wallet   *fakeWallet
	uploader *fakeUploader
	index    *fakeIndex
	repo     repository.MintAttemptRepository
	events   *recordingPublisher
	logs     *logtest.Hook
	svc      MintService
}

// ledgerFailures returns the attempt writes the service logged as failed.
func (h *harness) ledgerFailures() []string {
	var out []string
	for _, e := range h.logs.AllEntries() {
		if strings.Contains(e.Message, "failed to record") {
			out = append(out, e.Message)
		}
	}
	return out
}

func newLedger(t *testing.T) repository.MintAttemptRepository {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.InitDB(&config.DatabaseConfig{Driver: "sqlite", Path: dsn})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return repository.NewMintAttemptRepository(db)
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	j := &journal{}
	h := &harness{
		j:       j,
		backend: newFakeBackend(),
		wallet: &fakeWallet{
			j:       j,
			chainID: chain.BaseMainnetChainID,
			status:  types.ReceiptStatusSuccessful,
			logs:    []*types.Log{transferLog(author, 7)},
		},
		uploader: &fakeUploader{j: j, cid: "QmMaterialCID"},
		index:    &fakeIndex{},
		repo:     newLedger(t),
		events:   &recordingPublisher{},
	}
	logger, hook := logtest.NewNullLogger()
	h.logs = hook
	minter := chain.NewMinter(h.wallet, h.uploader, chain.MinterConfig{
		ChainID:  chain.BaseMainnetChainID,
		Contract: contract,
	}, quietLogger())
	h.svc = NewMintService(Deps{
		Backend:    h.backend,
		Minter:     minter,
		Uploader:   h.uploader,
		ChainIndex: h.index,
		Attempts:   h.repo,
		Events:     h.events,
		Logger:     logger,
	})
	return h
}

func session() *backend.Session { return backend.NewTokenSession("token") }
