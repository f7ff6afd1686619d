package authenticator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/snapshot-labs/sx-monorepo-sub001/governance"
	"github.com/snapshot-labs/sx-monorepo-sub001/pkg/logger"
)

type relayRequest struct {
	JSONRPC string         `json:"jsonrpc"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params"`
	ID      *int           `json:"id"`
}

type relayError struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message"`
}

type relayResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *relayError     `json:"error"`
}

// RelayClient submits signed envelopes to a relay over JSON-RPC.
type RelayClient struct {
	client *resty.Client
	url    string
	lggr   logger.Logger
}

// RelayOption configures a RelayClient.
type RelayOption func(*RelayClient)

// WithRelayTimeout bounds each relay request.
func WithRelayTimeout(d time.Duration) RelayOption {
	return func(c *RelayClient) { c.client.SetTimeout(d) }
}

// NewRelayClient returns a client for the relay at url.
func NewRelayClient(url string, lggr logger.Logger, opts ...RelayOption) *RelayClient {
	c := &RelayClient{
		client: resty.New().
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json"),
		url:  url,
		lggr: lggr.Named("relay"),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Send posts the envelope with the "send" method. A relay error is returned verbatim as a
// *governance.RelayRejectionError.
func (c *RelayClient) Send(ctx context.Context, envelope any) (json.RawMessage, error) {
	payload := relayRequest{
		JSONRPC: "2.0",
		Method:  "send",
		Params:  map[string]any{"envelope": envelope},
	}

	resp, err := c.client.R().SetContext(ctx).SetBody(payload).Post(c.url)
	if err != nil {
		return nil, fmt.Errorf("failed to reach relay: %w", err)
	}

	var body relayResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		if resp.IsError() {
			return nil, fmt.Errorf("relay replied %s", resp.Status())
		}

		return nil, fmt.Errorf("relay replied with invalid body: %w", err)
	}
	if body.Error != nil {
		c.lggr.Warnw("Relay rejected envelope", "message", body.Error.Message, "code", body.Error.Code)

		return nil, &governance.RelayRejectionError{Message: body.Error.Message}
	}
	if resp.IsError() {
		return nil, fmt.Errorf("relay replied %s", resp.Status())
	}

	c.lggr.Infow("Relayed envelope", "result", string(body.Result))

	return body.Result, nil
}

// relaying is embedded by relay eligible authenticators.
type relaying struct {
	client *RelayClient
	lggr   logger.Logger
}

func (r relaying) Send(ctx context.Context, envelope any) (json.RawMessage, error) {
	if r.client == nil {
		return nil, errors.New("no relay configured for this network")
	}

	return r.client.Send(ctx, envelope)
}
