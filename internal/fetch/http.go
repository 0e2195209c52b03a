package fetch

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/goccy/go-json"

	"github.com/onceinteractive/cascade/pkg/types"
)

const defaultTimeout = 10 * time.Second

// HTTPFetcher calls the remote lookup service with an authenticated POST and
// the standard {success, data:{choices}} envelope.
type HTTPFetcher struct {
	endpoint string
	token    string
	client   *http.Client
	logger   *log.Logger
}

// HTTPOption configures an HTTPFetcher.
type HTTPOption func(*HTTPFetcher)

// WithClient replaces the underlying HTTP client.
func WithClient(client *http.Client) HTTPOption {
	return func(f *HTTPFetcher) {
		f.client = client
	}
}

// WithLogger sets the logger used for degraded lookups.
func WithLogger(logger *log.Logger) HTTPOption {
	return func(f *HTTPFetcher) {
		f.logger = logger
	}
}

// NewHTTP creates a fetcher against the given lookup endpoint. The token is
// sent with every request and validated server-side.
func NewHTTP(endpoint, token string, opts ...HTTPOption) *HTTPFetcher {
	f := &HTTPFetcher{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: defaultTimeout},
		logger:   log.Default(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fetch resolves one operation. Empty required filters short-circuit without a
// remote call; transport failures and failure envelopes degrade to nil.
func (f *HTTPFetcher) Fetch(ctx context.Context, operation string, filters map[string]string) []types.Choice {
	if MissingFilter(filters) {
		return nil
	}

	body, err := json.Marshal(types.LookupRequest{
		Operation: operation,
		Token:     f.token,
		Filters:   filters,
	})
	if err != nil {
		f.logger.Debug("lookup request encode failed", "operation", operation, "err", err)
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint, bytes.NewReader(body))
	if err != nil {
		f.logger.Debug("lookup request build failed", "operation", operation, "err", err)
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Debug("lookup transport failed", "operation", operation, "err", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		f.logger.Debug("lookup rejected", "operation", operation, "status", resp.StatusCode)
		return nil
	}

	var env types.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		f.logger.Debug("lookup envelope malformed", "operation", operation, "err", err)
		return nil
	}
	if !env.Success || env.Data == nil {
		return nil
	}
	return env.Data.Choices
}
