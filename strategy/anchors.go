package strategy

import (
	"context"
	"errors"
	"fmt"

	"github.com/snapshot-labs/sx-monorepo-sub001/pkg/retry"
)

// anchors resolves anchored L1 blocks through the cache.
type anchors struct {
	resolver AnchorResolver
	cache    *Cache
	policy   retry.Policy
	l2Chain  string
	l1Chain  string
}

// l1Block returns the L1 block anchored to the L2 timestamp.
func (a *anchors) l1Block(ctx context.Context, timestamp uint64) (uint64, error) {
	if a.resolver == nil {
		return 0, errors.New("no anchoring service configured")
	}
	if a.l1Chain == "" {
		return 0, fmt.Errorf("no L1 chain known for %s", a.l2Chain)
	}

	key := fmt.Sprintf("%s:%s:%d", a.l2Chain, a.l1Chain, timestamp)
	if block, ok := a.cache.L1Block(key); ok {
		return block, nil
	}

	block, err := a.resolver.WaitL1BlockNumber(ctx, timestamp, a.l2Chain, a.l1Chain, a.policy)
	if err != nil {
		return 0, err
	}
	a.cache.AddL1Block(key, block)

	return block, nil
}
