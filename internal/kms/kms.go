// Package kms wraps the AWS KMS API used to sign with keys that never leave KMS.
package kms

import (
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	kmslib "github.com/aws/aws-sdk-go/service/kms"
)

// Client is the subset of the KMS API the signers use.
type Client interface {
	GetPublicKey(input *kmslib.GetPublicKeyInput) (*kmslib.GetPublicKeyOutput, error)
	Sign(input *kmslib.SignInput) (*kmslib.SignOutput, error)
}

// ClientConfig locates a KMS key.
type ClientConfig struct {
	KeyID     string
	KeyRegion string
	// AWSProfile is the shared config profile to use. Empty uses the environment.
	AWSProfile string
}

func (c ClientConfig) validate() error {
	if c.KeyID == "" {
		return errors.New("KMS key ID is required")
	}
	if c.KeyRegion == "" {
		return errors.New("KMS key region is required")
	}

	return nil
}

// NewClient returns a KMS client for the region of the key.
func NewClient(cfg ClientConfig) (Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid KMS config: %w", err)
	}

	sess, err := session.NewSessionWithOptions(session.Options{
		Config:  aws.Config{Region: aws.String(cfg.KeyRegion)},
		Profile: cfg.AWSProfile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return kmslib.New(sess), nil
}

// SPKI is the ASN.1 SubjectPublicKeyInfo structure KMS returns public keys in.
type SPKI struct {
	AlgorithmIdentifier pkix.AlgorithmIdentifier
	SubjectPublicKey    asn1.BitString
}

// ECDSASig is the ASN.1 structure of a KMS ECDSA signature.
type ECDSASig struct {
	R asn1.RawValue
	S asn1.RawValue
}
