package strategy

import (
	"context"
	"sync"

	"github.com/holiman/uint256"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/snapshot-labs/sx-monorepo-sub001/governance"
)

// GetVotingPowers evaluates every strategy for voter at the same snapshot. Strategies are
// evaluated concurrently. Failed strategies are logged and left out of the result, the others
// keep their input order. Unconfigured strategies report zero.
func (r *Resolver) GetVotingPowers(
	ctx context.Context,
	strategies []governance.StrategyConfig,
	voter string,
	at *governance.Snapshot,
) []governance.VotingPowerResult {
	type outcome struct {
		result governance.VotingPowerResult
		ok     bool
	}
	outcomes := make([]outcome, len(strategies))

	var wg sync.WaitGroup
	for i, cfg := range strategies {
		wg.Add(1)
		go func() {
			defer wg.Done()

			result, err := r.votingPower(ctx, cfg, voter, at)
			if err != nil {
				r.lggr.Warnw("Dropping strategy from voting power",
					"strategy", cfg.Address, "index", cfg.Index, "voter", voter, "err", err)

				return
			}
			outcomes[i] = outcome{result: result, ok: true}
		}()
	}
	wg.Wait()

	return lo.FilterMap(outcomes, func(o outcome, _ int) (governance.VotingPowerResult, bool) {
		return o.result, o.ok
	})
}

func (r *Resolver) votingPower(
	ctx context.Context,
	cfg governance.StrategyConfig,
	voter string,
	at *governance.Snapshot,
) (governance.VotingPowerResult, error) {
	result := governance.VotingPowerResult{StrategyAddress: cfg.Address, Value: new(uint256.Int)}
	if m := cfg.Metadata; m != nil {
		result.Decimals = m.Decimals
		result.Symbol = m.Symbol
		result.Token = m.Token
		result.ChainID = m.ChainID
		result.SwapLink = m.SwapLink
	}

	s := r.Resolve(cfg.Address)
	if s == nil {
		return result, nil
	}

	value, err := s.GetVotingPower(ctx, cfg.Address, voter, cfg.Metadata, at, cfg.Params)
	if err != nil {
		return governance.VotingPowerResult{}, err
	}
	result.Value = value

	return result, nil
}

// GetStrategiesParams builds the user params of every strategy for an authorised call. Params are
// built concurrently and the first failure aborts the call. The result keeps the input order.
func (r *Resolver) GetStrategiesParams(
	ctx context.Context,
	call governance.Call,
	strategies []governance.StrategyConfig,
	signer string,
	action governance.ActionData,
) ([]governance.IndexedStrategy, error) {
	resolved := make([]Strategy, len(strategies))
	for i, cfg := range strategies {
		if resolved[i] = r.Resolve(cfg.Address); resolved[i] == nil {
			return nil, &governance.ConfigurationError{Component: "strategy", Address: cfg.Address}
		}
	}

	out := make([]governance.IndexedStrategy, len(strategies))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, cfg := range strategies {
		eg.Go(func() error {
			params, err := resolved[i].GetParams(egCtx, call, cfg, signer, cfg.Metadata, action)
			if err != nil {
				return err
			}
			out[i] = governance.IndexedStrategy{Index: cfg.Index, Params: params}

			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}
