package storageproof

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/snapshot-labs/sx-monorepo-sub001/governance"
	"github.com/snapshot-labs/sx-monorepo-sub001/pkg/logger"
	"github.com/snapshot-labs/sx-monorepo-sub001/pkg/retry"
)

const (
	binsearchPath    = "/binsearch-path"
	noPathFoundError = "No path found"
	// l1WaypointIndex is the waypoint of a path holding the L1 block used for proofs.
	l1WaypointIndex = 1
)

// Waypoint is a single step of an anchoring path.
type Waypoint struct {
	BlockNumber uint64 `json:"block_number"`
	Timestamp   uint64 `json:"timestamp"`
}

type pathResponse struct {
	Path  []Waypoint `json:"path"`
	Error string     `json:"error"`
}

// AnchorClient queries the anchoring service for the L1 block anchored to an L2 timestamp.
type AnchorClient struct {
	client *resty.Client
	apiKey string
	lggr   logger.Logger
}

// AnchorOption configures an AnchorClient.
type AnchorOption func(*AnchorClient)

// WithAPIKey sends key as the apiKey query parameter of every request.
func WithAPIKey(key string) AnchorOption {
	return func(c *AnchorClient) { c.apiKey = key }
}

// WithTimeout sets the per request timeout.
func WithTimeout(d time.Duration) AnchorOption {
	return func(c *AnchorClient) { c.client.SetTimeout(d) }
}

// NewAnchorClient returns a client for the anchoring service at baseURL.
func NewAnchorClient(baseURL string, lggr logger.Logger, opts ...AnchorOption) *AnchorClient {
	c := &AnchorClient{
		client: resty.New().
			SetBaseURL(strings.TrimSuffix(baseURL, "/")).
			SetHeader("Accept", "application/json"),
		lggr: lggr.Named("anchor"),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Path returns the anchoring path of timestamp from l2Chain (e.g. SN_SEPOLIA) to l1Chain (e.g.
// 11155111). A "No path found" reply or an empty path is a *governance.NotReadyYetError.
func (c *AnchorClient) Path(ctx context.Context, timestamp uint64, l2Chain, l1Chain string) ([]Waypoint, error) {
	query := map[string]string{
		"timestamp":         strconv.FormatUint(timestamp, 10),
		"deployed_on_chain": l2Chain,
		"accumulates_chain": l1Chain,
	}
	if c.apiKey != "" {
		query["apiKey"] = c.apiKey
	}

	resp, err := c.client.R().SetContext(ctx).SetQueryParams(query).Get(binsearchPath)
	if err != nil {
		return nil, fmt.Errorf("failed to query anchoring service: %w", err)
	}

	var body pathResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("anchoring service replied %s with invalid body: %w", resp.Status(), err)
	}
	if strings.Contains(body.Error, noPathFoundError) {
		return nil, governance.NewNotReadyYetError(timestamp)
	}
	if body.Error != "" {
		return nil, fmt.Errorf("anchoring service error: %s", body.Error)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("anchoring service replied %s", resp.Status())
	}
	if len(body.Path) == 0 {
		return nil, governance.NewNotReadyYetError(timestamp)
	}

	return body.Path, nil
}

// L1BlockNumber returns the L1 block anchored to timestamp.
func (c *AnchorClient) L1BlockNumber(ctx context.Context, timestamp uint64, l2Chain, l1Chain string) (uint64, error) {
	path, err := c.Path(ctx, timestamp, l2Chain, l1Chain)
	if err != nil {
		return 0, err
	}
	if len(path) <= l1WaypointIndex {
		return 0, fmt.Errorf("anchoring path for timestamp %d has %d waypoints, want at least %d", timestamp, len(path), l1WaypointIndex+1)
	}

	block := path[l1WaypointIndex].BlockNumber
	c.lggr.Debugw("Resolved anchored L1 block", "timestamp", timestamp, "l2Chain", l2Chain, "l1Chain", l1Chain, "block", block)

	return block, nil
}

// WaitL1BlockNumber polls L1BlockNumber under policy, retrying only while the anchor is not
// ready. The last *governance.NotReadyYetError is returned once the policy is exhausted.
func (c *AnchorClient) WaitL1BlockNumber(ctx context.Context, timestamp uint64, l2Chain, l1Chain string, policy retry.Policy) (uint64, error) {
	return retry.Do(ctx, policy, func(ctx context.Context) (uint64, error) {
		return c.L1BlockNumber(ctx, timestamp, l2Chain, l1Chain)
	}, retry.If(governance.IsNotReadyYet), retry.WithLogger(c.lggr, "anchor"))
}
