package strategy

import (
	"context"

	"github.com/holiman/uint256"

	"github.com/snapshot-labs/sx-monorepo-sub001/governance"
	"github.com/snapshot-labs/sx-monorepo-sub001/network"
)

// vanilla grants every address a voting power of one.
type vanilla struct{}

func (vanilla) Kind() network.StrategyKind { return network.StrategyVanilla }

func (vanilla) GetParams(context.Context, governance.Call, governance.StrategyConfig, string, *governance.StrategyMetadata, governance.ActionData) ([]byte, error) {
	return emptyParams(), nil
}

func (vanilla) GetVotingPower(context.Context, string, string, *governance.StrategyMetadata, *governance.Snapshot, string) (*uint256.Int, error) {
	return uint256.NewInt(1), nil
}
