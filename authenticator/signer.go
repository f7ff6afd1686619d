package authenticator

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/snapshot-labs/sx-monorepo-sub001/chain/starknet"
	"github.com/snapshot-labs/sx-monorepo-sub001/codec"
	"github.com/snapshot-labs/sx-monorepo-sub001/governance"
)

// Message is a typed message to sign. Exactly one of the fields is set: EIP712 for Ethereum
// signers (on EVM chains and on Starknet), SNIP12 for Starknet accounts.
type Message struct {
	EIP712 *apitypes.TypedData
	SNIP12 *starknet.TypedData
}

// Signer signs typed messages and returns the signature data an envelope carries.
type Signer interface {
	Sign(ctx context.Context, msg Message) (*governance.SignatureData, error)
}

var (
	_ Signer = &EVMSigner{}
	_ Signer = &StarknetSigner{}
)

// EVMSigner signs EIP-712 messages with a secp256k1 key.
type EVMSigner struct {
	// address is the Ethereum address of the signer.
	address common.Address
	// signHash signs the final EIP-712 digest. It returns a 65 byte [r || s || v] signature.
	signHash func([]byte) ([]byte, error)
}

// NewEVMSigner returns a signer whose key is held behind signHash, e.g. by a KMS.
func NewEVMSigner(address common.Address, signHash func([]byte) ([]byte, error)) *EVMSigner {
	return &EVMSigner{address: address, signHash: signHash}
}

// EVMSignerFromKey returns a signer for a hex encoded private key.
func EVMSignerFromKey(hexKey string) (*EVMSigner, error) {
	key, err := crypto.HexToECDSA(trimHexPrefix(hexKey))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	pub, ok := key.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("failed to derive public key")
	}

	return NewEVMSigner(crypto.PubkeyToAddress(*pub), func(hash []byte) ([]byte, error) {
		return crypto.Sign(hash, key)
	}), nil
}

// Address returns the address of the signer.
func (s *EVMSigner) Address() common.Address {
	return s.address
}

// TypedDataHash returns keccak256("\x19\x01" || domainSeparator || hashStruct(message)).
func TypedDataHash(td *apitypes.TypedData) ([]byte, error) {
	domain, err := td.HashStruct(codec.EIP712DomainPrimaryKey, td.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("failed to get hash of typed data domain: %w", err)
	}

	dataHash, err := td.HashStruct(td.PrimaryType, td.Message)
	if err != nil {
		return nil, fmt.Errorf("failed to get hash of typed message: %w", err)
	}

	prefixedData := fmt.Appendf(nil, "\x19\x01%s%s", string(domain), string(dataHash))

	return crypto.Keccak256(prefixedData), nil
}

// Sign signs msg.EIP712.
func (s *EVMSigner) Sign(_ context.Context, msg Message) (*governance.SignatureData, error) {
	td := msg.EIP712
	if td == nil {
		return nil, errors.New("EVM signer requires an EIP-712 message")
	}

	hash, err := TypedDataHash(td)
	if err != nil {
		return nil, err
	}

	sig, err := s.signHash(hash)
	if err != nil {
		return nil, fmt.Errorf("failed to sign hash of typed data: %w", err)
	}
	if len(sig) != 65 {
		return nil, fmt.Errorf("signer returned %d bytes, want 65", len(sig))
	}

	// crypto.Sign uses the traditional implementation where v is either 0 or 1,
	// while Ethereum uses newer implementation where v is either 27 or 28.
	if sig[64] < 27 {
		sig[64] += 27
	}

	types := make(map[string]any, len(td.Types))
	for name, fields := range td.Types {
		types[name] = fields
	}

	return &governance.SignatureData{
		Address:     s.address.Hex(),
		Signature:   []string{hexutil.Encode(sig)},
		Domain:      td.Domain.Map(),
		Types:       types,
		PrimaryType: td.PrimaryType,
		Message:     td.Message,
	}, nil
}

// StarkKeySigner signs a message hash with a stark curve key.
type StarkKeySigner interface {
	SignHash(ctx context.Context, hash *felt.Felt) (r, s *felt.Felt, err error)
}

// StarkKeySignerFunc adapts a function to a StarkKeySigner.
type StarkKeySignerFunc func(ctx context.Context, hash *felt.Felt) (r, s *felt.Felt, err error)

func (f StarkKeySignerFunc) SignHash(ctx context.Context, hash *felt.Felt) (r, s *felt.Felt, err error) {
	return f(ctx, hash)
}

// StarknetSigner signs SNIP-12 revision 0 messages on behalf of a Starknet account.
type StarknetSigner struct {
	account string
	key     StarkKeySigner
}

// NewStarknetSigner returns a signer for account.
func NewStarknetSigner(account string, key StarkKeySigner) *StarknetSigner {
	return &StarknetSigner{account: account, key: key}
}

// Address returns the account address.
func (s *StarknetSigner) Address() string {
	return s.account
}

// Sign signs msg.SNIP12.
func (s *StarknetSigner) Sign(ctx context.Context, msg Message) (*governance.SignatureData, error) {
	td := msg.SNIP12
	if td == nil {
		return nil, errors.New("starknet signer requires a SNIP-12 message")
	}

	account, err := codec.FeltFromHex(s.account)
	if err != nil {
		return nil, fmt.Errorf("account: %w", err)
	}
	hash, err := td.MessageHash(account)
	if err != nil {
		return nil, err
	}

	r, sv, err := s.key.SignHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to sign message hash: %w", err)
	}

	types := make(map[string]any, len(td.Types))
	for name, fields := range td.Types {
		types[name] = fields
	}

	return &governance.SignatureData{
		Address:     s.account,
		Signature:   []string{codec.FeltHex(r), codec.FeltHex(sv)},
		Domain:      td.Domain,
		Types:       types,
		PrimaryType: td.PrimaryType,
		Message:     td.Message,
	}, nil
}

func trimHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}

	return s
}
