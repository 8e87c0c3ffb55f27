package chain

import (
	"crypto/ecdsa"
	"errors"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// MessageSigner signs web3 login challenges.
type MessageSigner interface {
	Address() common.Address
	SignMessage(msg []byte) ([]byte, error)
}

// KeySigner signs with a bare key; it needs no RPC connection.
type KeySigner struct {
	Key *ecdsa.PrivateKey
}

func (s KeySigner) Address() common.Address { return crypto.PubkeyToAddress(s.Key.PublicKey) }

func (s KeySigner) SignMessage(msg []byte) ([]byte, error) { return SignPersonal(s.Key, msg) }

// SignPersonal signs msg the way personal_sign does: keccak256 of the
// "\x19Ethereum Signed Message:\n" prefixed text, V in {27, 28}.
func SignPersonal(key *ecdsa.PrivateKey, msg []byte) ([]byte, error) {
	sig, err := crypto.Sign(accounts.TextHash(msg), key)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// RecoverPersonal returns the address that produced sig over msg.
func RecoverPersonal(msg, sig []byte) (common.Address, error) {
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, errors.New("chain: signature must be 65 bytes")
	}
	cp := make([]byte, len(sig))
	copy(cp, sig)
	if cp[crypto.RecoveryIDOffset] >= 27 {
		cp[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(accounts.TextHash(msg), cp)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pub), nil
}
