package strategy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/snapshot-labs/sx-monorepo-sub001/governance"
	"github.com/snapshot-labs/sx-monorepo-sub001/pkg/logger"
)

const ipfsScheme = "ipfs://"

// MetadataFetcher loads strategy metadata payloads. Payloads are inline JSON documents or
// ipfs:// and http(s):// URIs.
type MetadataFetcher struct {
	client  *resty.Client
	gateway string
	cache   *Cache
	lggr    logger.Logger
}

// NewMetadataFetcher returns a fetcher resolving ipfs:// URIs through gateway.
func NewMetadataFetcher(lggr logger.Logger, gateway string, timeout time.Duration, cache *Cache) *MetadataFetcher {
	return &MetadataFetcher{
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		gateway: strings.TrimSuffix(gateway, "/"),
		cache:   cache,
		lggr:    lggr.Named("metadata"),
	}
}

// URL returns the HTTP URL a payload URI is fetched from.
func (f *MetadataFetcher) URL(uri string) (string, error) {
	switch {
	case strings.HasPrefix(uri, ipfsScheme):
		return f.gateway + "/ipfs/" + strings.TrimPrefix(uri, ipfsScheme), nil
	case strings.HasPrefix(uri, "https://"), strings.HasPrefix(uri, "http://"):
		return uri, nil
	default:
		return "", fmt.Errorf("unsupported metadata uri %q", uri)
	}
}

// Fetch returns the raw JSON document behind payload. Inline documents are returned as is, even
// by a nil fetcher.
func (f *MetadataFetcher) Fetch(ctx context.Context, payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	if strings.HasPrefix(payload, "{") || strings.HasPrefix(payload, "[") {
		return []byte(payload), nil
	}
	if f == nil {
		return nil, errors.New("no metadata fetcher configured")
	}
	if b, ok := f.cache.Metadata(payload); ok {
		return b, nil
	}

	url, err := f.URL(payload)
	if err != nil {
		return nil, err
	}

	f.lggr.Debugw("Fetching strategy metadata", "uri", payload, "url", url)
	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch metadata %s: %w", payload, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("failed to fetch metadata %s: %s", payload, resp.Status())
	}

	body := resp.Body()
	if !json.Valid(body) {
		return nil, fmt.Errorf("metadata %s is not valid JSON", payload)
	}
	f.cache.AddMetadata(payload, body)

	return body, nil
}

// Decode fetches the payload of metadata and decodes it into v. strategy and field name the
// requirement in the MissingMetadataError returned when no payload is set.
func (f *MetadataFetcher) Decode(ctx context.Context, strategy, field string, metadata *governance.StrategyMetadata, v any) error {
	if metadata == nil || metadata.Payload == "" {
		return &governance.MissingMetadataError{Strategy: strategy, Field: field}
	}

	body, err := f.Fetch(ctx, metadata.Payload)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode metadata of strategy %s: %w", strategy, err)
	}

	return nil
}
