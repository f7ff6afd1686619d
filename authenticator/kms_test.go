package authenticator

import (
	"bytes"
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"math/big"
	"testing"

	kmslib "github.com/aws/aws-sdk-go/service/kms"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/snapshot-labs/sx-monorepo-sub001/internal/kms"
)

const testKMSKeyID = "1234567-1234-1234-1234-123456789012"

type mockKMS struct {
	mock.Mock
}

func (m *mockKMS) GetPublicKey(in *kmslib.GetPublicKeyInput) (*kmslib.GetPublicKeyOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*kmslib.GetPublicKeyOutput)

	return out, args.Error(1)
}

func (m *mockKMS) Sign(in *kmslib.SignInput) (*kmslib.SignOutput, error) {
	args := m.Called(in)
	out, _ := args.Get(0).(*kmslib.SignOutput)

	return out, args.Error(1)
}

var _ kms.Client = &mockKMS{}

// testKMSPublicKey encodes the public key of testKey the way KMS returns it.
func testKMSPublicKey(t *testing.T) []byte {
	t.Helper()

	key, err := crypto.HexToECDSA(trimHexPrefix(testKey))
	require.NoError(t, err)

	pub := crypto.FromECDSAPub(&key.PublicKey)
	b, err := asn1.Marshal(kms.SPKI{
		AlgorithmIdentifier: pkix.AlgorithmIdentifier{Algorithm: asn1.ObjectIdentifier{1, 2, 840, 10045, 2, 1}},
		SubjectPublicKey:    asn1.BitString{Bytes: pub, BitLength: len(pub) * 8},
	})
	require.NoError(t, err)

	return b
}

// testKMSSignature signs hash with testKey and encodes it as KMS does, with a high s value.
func testKMSSignature(t *testing.T, hash []byte) []byte {
	t.Helper()

	key, err := crypto.HexToECDSA(trimHexPrefix(testKey))
	require.NoError(t, err)
	sig, err := crypto.Sign(hash, key)
	require.NoError(t, err)

	r := new(big.Int).SetBytes(sig[:32])
	s := new(big.Int).Sub(secp256k1N, new(big.Int).SetBytes(sig[32:64]))
	b, err := asn1.Marshal(struct{ R, S *big.Int }{r, s})
	require.NoError(t, err)

	return b
}

func TestKMSSigner_Sign(t *testing.T) {
	t.Parallel()

	want := testSigner(t).Address()

	client := &mockKMS{}
	client.On("GetPublicKey", &kmslib.GetPublicKeyInput{KeyId: &[]string{testKMSKeyID}[0]}).
		Return(&kmslib.GetPublicKeyOutput{PublicKey: testKMSPublicKey(t)}, nil).Once()

	signer, err := NewKMSSigner(client, testKMSKeyID)
	require.NoError(t, err)
	assert.Equal(t, want, signer.Address())

	builder, ok := newResolver(t, evmNetwork()).Resolve(evmEthSigA).(MessageBuilder)
	require.True(t, ok)
	msg, err := builder.ProposeMessage(evmPropose(want.Hex()), ProposeArgs{})
	require.NoError(t, err)
	hash, err := TypedDataHash(msg.EIP712)
	require.NoError(t, err)

	client.On("Sign", mock.MatchedBy(func(in *kmslib.SignInput) bool {
		return *in.KeyId == testKMSKeyID && *in.MessageType == kmslib.MessageTypeDigest && bytes.Equal(in.Message, hash)
	})).Return(&kmslib.SignOutput{Signature: testKMSSignature(t, hash)}, nil).Once()

	sd, err := signer.Sign(t.Context(), msg)
	require.NoError(t, err)
	client.AssertExpectations(t)

	sig, err := hexutil.Decode(sd.Signature[0])
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.GreaterOrEqual(t, sig[64], byte(27))
	assert.LessOrEqual(t, new(big.Int).SetBytes(sig[32:64]).Cmp(secp256k1HalfN), 0)

	sig[64] -= 27
	pub, err := crypto.SigToPub(hash, sig)
	require.NoError(t, err)
	assert.Equal(t, want, crypto.PubkeyToAddress(*pub))
}

func TestKMSSigner_Errors(t *testing.T) {
	t.Parallel()

	client := &mockKMS{}
	client.On("GetPublicKey", mock.Anything).Return(nil, errors.New("access denied")).Once()
	_, err := NewKMSSigner(client, testKMSKeyID)
	require.ErrorContains(t, err, "cannot get public key from KMS")

	client = &mockKMS{}
	client.On("GetPublicKey", mock.Anything).
		Return(&kmslib.GetPublicKeyOutput{PublicKey: []byte{0x01}}, nil).Once()
	_, err = NewKMSSigner(client, testKMSKeyID)
	require.ErrorContains(t, err, "cannot parse asn1 public key")

	client = &mockKMS{}
	client.On("GetPublicKey", mock.Anything).
		Return(&kmslib.GetPublicKeyOutput{PublicKey: testKMSPublicKey(t)}, nil).Once()
	client.On("Sign", mock.Anything).Return(nil, errors.New("throttled")).Once()
	signer, err := NewKMSSigner(client, testKMSKeyID)
	require.NoError(t, err)

	builder, ok := newResolver(t, evmNetwork()).Resolve(evmEthSigA).(MessageBuilder)
	require.True(t, ok)
	msg, err := builder.ProposeMessage(evmPropose(signer.Address().Hex()), ProposeArgs{})
	require.NoError(t, err)

	_, err = signer.Sign(t.Context(), msg)
	require.ErrorContains(t, err, "throttled")
}

func TestRecoverEVMSignature_WrongKey(t *testing.T) {
	t.Parallel()

	hash := crypto.Keccak256([]byte("message"))
	other, err := crypto.GenerateKey()
	require.NoError(t, err)

	_, err = kmsToEVMSig(testKMSSignature(t, hash), crypto.FromECDSAPub(&other.PublicKey), hash)
	require.ErrorContains(t, err, "cannot reconstruct public key from sig")

	_, err = kmsToEVMSig([]byte{0x30}, crypto.FromECDSAPub(&other.PublicKey), hash)
	require.ErrorContains(t, err, "failed to unmarshal KMS signature")
}
