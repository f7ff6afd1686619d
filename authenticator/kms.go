package authenticator

import (
	"bytes"
	"encoding/asn1"
	"errors"
	"fmt"
	"math/big"

	"github.com/aws/aws-sdk-go/aws"
	kmslib "github.com/aws/aws-sdk-go/service/kms"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/crypto/secp256k1"

	"github.com/snapshot-labs/sx-monorepo-sub001/internal/kms"
)

// NewKMSSigner returns an EVM signer for a secp256k1 key held in AWS KMS. The public key is read
// once to derive the signer address.
func NewKMSSigner(client kms.Client, keyID string) (*EVMSigner, error) {
	out, err := client.GetPublicKey(&kmslib.GetPublicKeyInput{KeyId: aws.String(keyID)})
	if err != nil {
		return nil, fmt.Errorf("cannot get public key from KMS for KeyId=%s: %w", keyID, err)
	}

	var spki kms.SPKI
	if _, err = asn1.Unmarshal(out.PublicKey, &spki); err != nil {
		return nil, fmt.Errorf("cannot parse asn1 public key for KeyId=%s: %w", keyID, err)
	}
	pubKey, err := crypto.UnmarshalPubkey(spki.SubjectPublicKey.Bytes)
	if err != nil {
		return nil, fmt.Errorf("cannot unmarshal public key bytes: %w", err)
	}
	pubKeyBytes := secp256k1.S256().Marshal(pubKey.X, pubKey.Y)

	return NewEVMSigner(crypto.PubkeyToAddress(*pubKey), func(hash []byte) ([]byte, error) {
		var (
			mType = kmslib.MessageTypeDigest
			algo  = kmslib.SigningAlgorithmSpecEcdsaSha256
		)
		out, err := client.Sign(&kmslib.SignInput{
			KeyId:            aws.String(keyID),
			SigningAlgorithm: &algo,
			MessageType:      &mType,
			Message:          hash,
		})
		if err != nil {
			return nil, fmt.Errorf("call to kms.Sign() failed on typed data hash: %w", err)
		}

		return kmsToEVMSig(out.Signature, pubKeyBytes, hash)
	}), nil
}

var (
	secp256k1N     = crypto.S256().Params().N
	secp256k1HalfN = new(big.Int).Div(secp256k1N, big.NewInt(2))
)

// kmsToEVMSig converts an ASN.1 KMS signature to [r || s || v] with a low s (EIP-2).
func kmsToEVMSig(kmsSig, pubKeyBytes, hash []byte) ([]byte, error) {
	var sig kms.ECDSASig
	if _, err := asn1.Unmarshal(kmsSig, &sig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal KMS signature: %w", err)
	}

	sBytes := sig.S.Bytes
	if s := new(big.Int).SetBytes(sBytes); s.Cmp(secp256k1HalfN) > 0 {
		sBytes = new(big.Int).Sub(secp256k1N, s).Bytes()
	}

	return recoverEVMSignature(pubKeyBytes, hash, sig.R.Bytes, sBytes)
}

// recoverEVMSignature finds the recovery id under which the signature recovers to the expected
// public key.
func recoverEVMSignature(expectedPublicKey, hash, r, s []byte) ([]byte, error) {
	rs := append(padTo32Bytes(r), padTo32Bytes(s)...)

	for _, v := range []byte{0, 1} {
		sig := append(append([]byte{}, rs...), v)
		recovered, err := crypto.Ecrecover(hash, sig)
		if err != nil {
			return nil, fmt.Errorf("failed to recover signature with v=%d: %w", v, err)
		}
		if bytes.Equal(recovered, expectedPublicKey) {
			return sig, nil
		}
	}

	return nil, errors.New("cannot reconstruct public key from sig")
}

func padTo32Bytes(b []byte) []byte {
	return common.LeftPadBytes(bytes.TrimLeft(b, "\x00"), 32)
}
