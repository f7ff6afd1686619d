package client

import (
	"github.com/snapshot-labs/sx-monorepo-sub001/authenticator"
	"github.com/snapshot-labs/sx-monorepo-sub001/config"
	"github.com/snapshot-labs/sx-monorepo-sub001/internal/kms"
)

// SignerFromConfig returns the EVM signer cfg describes: a KMS key when one is configured,
// else the private key. It returns nil when neither is set.
func SignerFromConfig(cfg config.SignerConfig) (*authenticator.EVMSigner, error) {
	if cfg.KMSKeyID != "" {
		client, err := kms.NewClient(kms.ClientConfig{
			KeyID:      cfg.KMSKeyID,
			KeyRegion:  cfg.KMSKeyRegion,
			AWSProfile: cfg.AWSProfile,
		})
		if err != nil {
			return nil, err
		}

		return authenticator.NewKMSSigner(client, cfg.KMSKeyID)
	}
	if cfg.EVMPrivateKey != "" {
		return authenticator.EVMSignerFromKey(cfg.EVMPrivateKey)
	}

	return nil, nil
}
