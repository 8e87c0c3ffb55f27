package chain

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContractAddress(t *testing.T) {
	addr, err := ParseContractAddress(" 0xD40CF2739E48D3EAEEF60F296F70B915FDD8F3FB\r\n")
	require.NoError(t, err)
	assert.Equal(t, testContract, addr)

	_, err = ParseContractAddress("0x...")
	assert.ErrorIs(t, err, ErrContractNotConfigured)
	_, err = ParseContractAddress("")
	assert.ErrorIs(t, err, ErrContractNotConfigured)
	_, err = ParseContractAddress("0x1234")
	assert.ErrorIs(t, err, ErrInvalidAddress)
	_, err = ParseContractAddress("0xd40cf2739e48d3eaeef60f296f70b915fdd8f3fbz")
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestSignPersonalRecovers(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	msg := []byte("Sign in to Base Library\nNonce: 123")

	sig, err := SignPersonal(key, msg)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.Contains(t, []byte{27, 28}, sig[64])

	addr, err := RecoverPersonal(msg, sig)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), addr)

	_, err = RecoverPersonal(msg, sig[:10])
	assert.Error(t, err)

	signer := KeySigner{Key: key}
	sig, err = signer.SignMessage(msg)
	require.NoError(t, err)
	addr, err = RecoverPersonal(msg, sig)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), addr)
}

func TestParsePrivateKey(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	hexKey := common.Bytes2Hex(crypto.FromECDSA(key))

	parsed, err := ParsePrivateKey("0x" + hexKey)
	require.NoError(t, err)
	assert.Equal(t, key.D, parsed.D)

	_, err = ParsePrivateKey("nope")
	assert.Error(t, err)
}

type fakeCaller struct {
	outputs map[string][]byte
	calls   []string
}

func (f *fakeCaller) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return []byte{0x60}, nil
}

func (f *fakeCaller) CallContract(_ context.Context, call ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	method, err := MaterialNFTABI.MethodById(call.Data[:4])
	if err != nil {
		return nil, err
	}
	f.calls = append(f.calls, method.Name)
	return f.outputs[method.Name], nil
}

func packOutput(t *testing.T, method string, values ...interface{}) []byte {
	t.Helper()
	out, err := MaterialNFTABI.Methods[method].Outputs.Pack(values...)
	require.NoError(t, err)
	return out
}

func TestReader(t *testing.T) {
	meta := MaterialMetadata{
		Subject:     "Math",
		Grade:       "7",
		Topic:       "Algebra",
		ContentHash: "ab12",
		IpfsCid:     "QmCID",
		Author:      testCaller,
		CreatedAt:   big.NewInt(1700000000),
		UpdatedAt:   big.NewInt(1700000001),
		IsPublished: true,
		Title:       "Linear Equations 101",
		WordCount:   big.NewInt(5),
	}
	caller := &fakeCaller{outputs: map[string][]byte{
		"getMaterialMetadata":     packOutput(t, "getMaterialMetadata", meta),
		"contentHashExists":       packOutput(t, "contentHashExists", true),
		"getTokenIdByContentHash": packOutput(t, "getTokenIdByContentHash", big.NewInt(42)),
		"ownerOf":                 packOutput(t, "ownerOf", testCaller),
		"getAuthorMaterials":      packOutput(t, "getAuthorMaterials", []*big.Int{big.NewInt(1), big.NewInt(42)}),
		"tokenURI":                packOutput(t, "tokenURI", "ipfs://QmCID"),
	}}
	r := NewReader(testContract, caller)
	ctx := context.Background()

	got, err := r.GetMaterialMetadata(ctx, big.NewInt(42))
	require.NoError(t, err)
	assert.Equal(t, "Linear Equations 101", got.Title)
	assert.Equal(t, testCaller, got.Author)
	assert.Equal(t, int64(5), got.WordCount.Int64())
	assert.True(t, got.IsPublished)

	exists, err := r.ContentHashExists(ctx, "ab12")
	require.NoError(t, err)
	assert.True(t, exists)

	id, err := r.TokenIDByContentHash(ctx, "ab12")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id.Int64())

	owner, err := r.OwnerOf(ctx, big.NewInt(42))
	require.NoError(t, err)
	assert.Equal(t, testCaller, owner)

	ids, err := r.AuthorMaterials(ctx, testCaller)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Equal(t, int64(42), ids[1].Int64())

	uri, err := r.TokenURI(ctx, big.NewInt(42))
	require.NoError(t, err)
	assert.Equal(t, "ipfs://QmCID", uri)
}
