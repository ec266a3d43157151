package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"portfolioapi.app/errors"
	"portfolioapi.app/models"
)

// SharedSecretHeader authenticates this backend to the quality proxy
const SharedSecretHeader = "X-Quality-Secret"

// ProxySource reads the latest quality snapshot from the CI metrics proxy.
// One attempt per aggregation call; any failure falls through to the next
// source in the chain.
type ProxySource struct {
	url    string
	secret string
	client *http.Client
}

// NewProxySource creates a proxy source for the given endpoint
func NewProxySource(url, secret string) *ProxySource {
	return &ProxySource{
		url:    url,
		secret: secret,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// FetchLatest retrieves the current snapshot from the proxy endpoint
func (p *ProxySource) FetchLatest(ctx context.Context) (*models.QualitySnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, errors.NewSourceError(SourceProxy, err)
	}
	if p.secret != "" {
		req.Header.Set(SharedSecretHeader, p.secret)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, errors.NewSourceError(SourceProxy, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewSourceError(SourceProxy,
			fmt.Errorf("proxy returned status code %d", resp.StatusCode))
	}

	var snapshot models.QualitySnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		return nil, errors.NewSourceError(SourceProxy, fmt.Errorf("decode snapshot: %w", err))
	}

	return &snapshot, nil
}
