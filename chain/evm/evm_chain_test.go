package evm_test

import (
	"testing"

	chain_selectors "github.com/smartcontractkit/chain-selectors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snapshot-labs/sx-monorepo-sub001/chain/evm"
)

func TestChain_ChainInfo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		selector    uint64
		wantName    string
		wantChainID int64
	}{
		{
			name:        "mainnet",
			selector:    chain_selectors.ETHEREUM_MAINNET.Selector,
			wantName:    chain_selectors.ETHEREUM_MAINNET.Name,
			wantChainID: 1,
		},
		{
			name:        "sepolia",
			selector:    chain_selectors.ETHEREUM_TESTNET_SEPOLIA.Selector,
			wantName:    chain_selectors.ETHEREUM_TESTNET_SEPOLIA.Name,
			wantChainID: 11155111,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := evm.Chain{Selector: tt.selector}
			assert.Equal(t, tt.selector, c.ChainSelector())
			assert.Equal(t, tt.wantName, c.Name())
			assert.Equal(t, chain_selectors.FamilyEVM, c.Family())

			id, err := c.ChainID()
			require.NoError(t, err)
			assert.Equal(t, tt.wantChainID, id.Int64())
		})
	}
}

func TestNormalizeAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		give    string
		want    string
		wantErr string
	}{
		{
			name: "checksummed",
			give: "0x556B14CbdA79A36dC33FcD461a04A5BCb5dC2A70",
			want: "0x556b14cbda79a36dc33fcd461a04a5bcb5dc2a70",
		},
		{
			name: "no prefix",
			give: "556B14CbdA79A36dC33FcD461a04A5BCb5dC2A70",
			want: "0x556b14cbda79a36dc33fcd461a04a5bcb5dc2a70",
		},
		{
			name:    "too short",
			give:    "0x1234",
			wantErr: "invalid EVM address format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := evm.AddressConverter{}.Normalize(tt.give)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			b, err := evm.AddressToBytes(tt.give)
			require.NoError(t, err)
			assert.Len(t, b, 20)
		})
	}

	assert.True(t, evm.AddressConverter{}.Supports(chain_selectors.FamilyEVM))
	assert.False(t, evm.AddressConverter{}.Supports(chain_selectors.FamilyStarknet))
}

func TestSelector(t *testing.T) {
	t.Parallel()

	sel, err := evm.Selector(evm.SpaceABI, "cancel")
	require.NoError(t, err)
	// cancel(uint256)
	assert.Equal(t, [4]byte{0x40, 0xe5, 0x8e, 0xe5}, sel)

	_, err = evm.Selector(evm.SpaceABI, "missing")
	require.Error(t, err)
}
