package starknet

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/NethermindEth/juno/core/felt"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/google/uuid"

	"github.com/snapshot-labs/sx-monorepo-sub001/codec"
	"github.com/snapshot-labs/sx-monorepo-sub001/pkg/logger"
	"github.com/snapshot-labs/sx-monorepo-sub001/pkg/retry"
)

// ErrTransactionNotFound is returned while a transaction is not known to the node yet.
var ErrTransactionNotFound = errors.New("transaction not found")

// starknet JSON-RPC error code for an unknown transaction hash.
const txnHashNotFoundCode = 29

// FunctionCall is a read-only invocation of a contract entrypoint.
type FunctionCall struct {
	ContractAddress    *felt.Felt
	EntryPointSelector *felt.Felt
	Calldata           []*felt.Felt
}

// BlockID selects the block a call is evaluated at. The zero value is "latest".
type BlockID struct {
	Number *uint64
}

// Latest is the latest accepted block.
var Latest = BlockID{}

// AtBlock returns the BlockID of a block number.
func AtBlock(n uint64) BlockID { return BlockID{Number: &n} }

func (b BlockID) param() any {
	if b.Number == nil {
		return "latest"
	}

	return map[string]uint64{"block_number": *b.Number}
}

// Receipt is the subset of a transaction receipt the client waits on.
type Receipt struct {
	TransactionHash string `json:"transaction_hash"`
	FinalityStatus  string `json:"finality_status"`
	ExecutionStatus string `json:"execution_status"`
	RevertReason    string `json:"revert_reason,omitempty"`
	BlockNumber     uint64 `json:"block_number"`
}

// Accepted reports whether the receipt is accepted on L2 or L1.
func (r Receipt) Accepted() bool {
	return r.FinalityStatus == "ACCEPTED_ON_L2" || r.FinalityStatus == "ACCEPTED_ON_L1"
}

// Reverted reports whether execution reverted.
func (r Receipt) Reverted() bool {
	return r.ExecutionStatus == "REVERTED"
}

// Reader is the read-only Starknet client the strategies need.
type Reader interface {
	Call(ctx context.Context, call FunctionCall, block BlockID) ([]*felt.Felt, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

var _ Reader = &Client{}

// Client is a Starknet JSON-RPC client.
type Client struct {
	rpc  *rpc.Client
	lggr logger.Logger
}

// Dial connects to a Starknet JSON-RPC endpoint.
func Dial(ctx context.Context, lggr logger.Logger, url string) (*Client, error) {
	c, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial starknet rpc %s: %w", url, err)
	}

	return NewClient(lggr, c), nil
}

// NewClient wraps an existing rpc client.
func NewClient(lggr logger.Logger, c *rpc.Client) *Client {
	return &Client{rpc: c, lggr: lggr.Named("starknet")}
}

// Close closes the underlying connection.
func (c *Client) Close() {
	c.rpc.Close()
}

// ChainID returns the chain id as a short string, e.g. SN_SEPOLIA.
func (c *Client) ChainID(ctx context.Context) (string, error) {
	var id string
	if err := c.rpc.CallContext(ctx, &id, "starknet_chainId"); err != nil {
		return "", fmt.Errorf("starknet_chainId: %w", err)
	}
	f, err := codec.FeltFromHex(id)
	if err != nil {
		return "", err
	}

	return codec.DecodeShortString(f), nil
}

// BlockNumber returns the latest accepted block number.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var n uint64
	if err := c.rpc.CallContext(ctx, &n, "starknet_blockNumber"); err != nil {
		return 0, fmt.Errorf("starknet_blockNumber: %w", err)
	}

	return n, nil
}

// Call evaluates a view entrypoint.
func (c *Client) Call(ctx context.Context, call FunctionCall, block BlockID) ([]*felt.Felt, error) {
	calldata := make([]string, len(call.Calldata))
	for i, f := range call.Calldata {
		calldata[i] = codec.FeltHex(f)
	}
	req := map[string]any{
		"contract_address":     codec.FeltHex(call.ContractAddress),
		"entry_point_selector": codec.FeltHex(call.EntryPointSelector),
		"calldata":             calldata,
	}

	var out []string
	if err := c.rpc.CallContext(ctx, &out, "starknet_call", req, block.param()); err != nil {
		return nil, fmt.Errorf("starknet_call %s: %w", codec.FeltHex(call.ContractAddress), err)
	}

	result := make([]*felt.Felt, len(out))
	for i, s := range out {
		f, err := codec.FeltFromHex(s)
		if err != nil {
			return nil, fmt.Errorf("starknet_call result %d: %w", i, err)
		}
		result[i] = f
	}

	return result, nil
}

// TransactionReceipt returns the receipt of a transaction, or ErrTransactionNotFound.
func (c *Client) TransactionReceipt(ctx context.Context, txHash string) (*Receipt, error) {
	var r Receipt
	err := c.rpc.CallContext(ctx, &r, "starknet_getTransactionReceipt", txHash)
	if err != nil {
		var rpcErr rpc.Error
		if errors.As(err, &rpcErr) && rpcErr.ErrorCode() == txnHashNotFoundCode {
			return nil, ErrTransactionNotFound
		}

		return nil, fmt.Errorf("starknet_getTransactionReceipt %s: %w", txHash, err)
	}

	return &r, nil
}

// WaitForTransaction polls until txHash is accepted, reverted, or the policy is exhausted.
func (c *Client) WaitForTransaction(ctx context.Context, txHash string, policy retry.Policy) (*Receipt, error) {
	traceID := uuid.New()
	c.lggr.Debugw("Waiting for transaction", "traceID", traceID.String(), "txHash", txHash)

	receipt, err := retry.Do(ctx, policy, func(ctx context.Context) (*Receipt, error) {
		r, err := c.TransactionReceipt(ctx, txHash)
		if err != nil {
			return nil, err
		}
		if !r.Accepted() && !r.Reverted() {
			return nil, errPending
		}

		return r, nil
	}, retry.If(func(err error) bool {
		return errors.Is(err, ErrTransactionNotFound) || errors.Is(err, errPending)
	}), retry.WithLogger(c.lggr.With("traceID", traceID.String()), "WaitForTransaction"))
	if err != nil {
		return nil, fmt.Errorf("waiting for transaction %s: %w", txHash, err)
	}
	if receipt.Reverted() {
		return receipt, fmt.Errorf("transaction %s reverted: %s", txHash, strings.TrimSpace(receipt.RevertReason))
	}

	return receipt, nil
}

var errPending = errors.New("transaction pending")
