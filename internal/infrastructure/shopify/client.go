package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/storefront/backend/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// MockStoreMarker identifies the public mock storefront, which takes no access token
	MockStoreMarker = "mock.shop"

	accessTokenHeader = "X-Shopify-Storefront-Access-Token"
	maxAttempts       = 3
	defaultFirst      = 50
	defaultSortKey    = "BEST_SELLING"
)

// Config holds Storefront API client settings
type Config struct {
	StoreDomain       string
	AccessToken       string
	APIVersion        string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// RequestObserver is notified about every GraphQL operation the client performs
type RequestObserver interface {
	ObserveStorefrontRequest(operation, outcome string, duration time.Duration)
}

// Client handles communication with the Storefront GraphQL API
type Client struct {
	httpClient  *http.Client
	endpoint    string
	accessToken string
	mock        bool
	rateLimiter *rate.Limiter
	backoff     func(attempt int) time.Duration
	observer    RequestObserver
	logger      *zap.Logger
	debug       bool
}

// NewClient creates a new Storefront API client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		endpoint:    buildEndpoint(cfg.StoreDomain, cfg.APIVersion),
		accessToken: cfg.AccessToken,
		mock:        IsMockDomain(cfg.StoreDomain),
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		backoff:     exponentialBackoff,
		logger:      logger.Named("shopify"),
	}
}

// IsMockDomain reports whether the domain points at the public mock storefront
func IsMockDomain(storeDomain string) bool {
	return strings.Contains(storeDomain, MockStoreMarker)
}

// SetDebug enables logging of every GraphQL request
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// SetObserver registers a metrics observer
func (c *Client) SetObserver(observer RequestObserver) {
	c.observer = observer
}

// Endpoint returns the GraphQL endpoint URL
func (c *Client) Endpoint() string {
	return c.endpoint
}

// buildEndpoint joins the store domain and API version into the GraphQL URL.
// A domain that already carries a scheme is used verbatim.
func buildEndpoint(storeDomain, apiVersion string) string {
	base := strings.TrimRight(storeDomain, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}
	return fmt.Sprintf("%s/api/%s/graphql.json", base, apiVersion)
}

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempts 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// Execute runs a GraphQL operation and decodes its data into out.
// Queries are retried with backoff on transport errors, 429 and 5xx
// responses. Mutations are retried on 429 only, since a failed attempt may
// already have been applied.
func (c *Client) Execute(ctx context.Context, operation, query string, variables map[string]interface{}, out interface{}) error {
	start := time.Now()
	err := c.execute(ctx, operation, query, variables, out)
	if c.observer != nil {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		c.observer.ObserveStorefrontRequest(operation, outcome, time.Since(start))
	}
	return err
}

func (c *Client) execute(ctx context.Context, operation, query string, variables map[string]interface{}, out interface{}) error {
	if variables == nil {
		variables = map[string]interface{}{}
	}
	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	if c.debug {
		c.logger.Debug("GraphQL request", zap.String("operation", operation), zap.Any("variables", variables))
	}

	mutation := isMutation(query)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		body, status, err := c.doRequest(ctx, payload)
		if err != nil {
			c.logger.Warn("request error", zap.String("operation", operation), zap.Int("attempt", attempt), zap.Error(err))
			if mutation {
				return err
			}
			lastErr = err
			if waitErr := c.wait(ctx, attempt); waitErr != nil {
				return waitErr
			}
			continue
		}

		switch {
		case status == http.StatusUnauthorized || status == http.StatusForbidden:
			return fmt.Errorf("%w: status %d", domain.ErrUnauthorized, status)
		case status >= http.StatusInternalServerError && mutation:
			c.logger.Warn("API error", zap.String("operation", operation), zap.Int("status", status))
			return fmt.Errorf("%w: status %d", domain.ErrPlatformFailure, status)
		case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
			c.logger.Warn("API error", zap.String("operation", operation), zap.Int("attempt", attempt), zap.Int("status", status))
			lastErr = fmt.Errorf("%w: status %d", domain.ErrPlatformFailure, status)
			if waitErr := c.wait(ctx, attempt); waitErr != nil {
				return waitErr
			}
			continue
		case status != http.StatusOK:
			return fmt.Errorf("%w: status %d, body: %s", domain.ErrPlatformFailure, status, truncate(body, 512))
		}

		return decodeResponse(body, out)
	}

	c.logger.Error("all retries failed", zap.String("operation", operation), zap.Error(lastErr))
	return lastErr
}

func isMutation(query string) bool {
	return strings.HasPrefix(strings.TrimSpace(query), "mutation")
}

// doRequest executes one HTTP POST with the GraphQL payload
func (c *Client) doRequest(ctx context.Context, payload []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Storefront/1.0")
	if !c.mock && c.accessToken != "" {
		req.Header.Set(accessTokenHeader, c.accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", domain.ErrPlatformFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: reading body: %v", domain.ErrPlatformFailure, err)
	}
	return body, resp.StatusCode, nil
}

// wait sleeps for the backoff of the given attempt unless it was the last one
func (c *Client) wait(ctx context.Context, attempt int) error {
	if attempt >= maxAttempts {
		return nil
	}
	timer := time.NewTimer(c.backoff(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func decodeResponse(body []byte, out interface{}) error {
	var resp graphQLResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", domain.ErrPlatformFailure, err)
	}

	if len(resp.Errors) > 0 {
		messages := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			messages = append(messages, e.Message)
		}
		return fmt.Errorf("%w: %s", domain.ErrGraphQL, strings.Join(messages, ", "))
	}

	if len(resp.Data) == 0 || string(resp.Data) == "null" {
		return fmt.Errorf("%w: no data returned", domain.ErrPlatformFailure)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("%w: failed to decode data: %v", domain.ErrPlatformFailure, err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// Products lists products
func (c *Client) Products(ctx context.Context, query domain.ProductQuery) ([]domain.ShopifyProduct, error) {
	first := query.First
	if first <= 0 {
		first = defaultFirst
	}
	sortKey := query.SortKey
	if sortKey == "" {
		sortKey = defaultSortKey
	}
	variables := map[string]interface{}{
		"first":   first,
		"query":   nil,
		"sortKey": sortKey,
		"reverse": query.Reverse,
	}
	if query.Query != "" {
		variables["query"] = query.Query
	}

	var data struct {
		Products domain.Connection[domain.ShopifyProduct] `json:"products"`
	}
	if err := c.Execute(ctx, "GetProducts", getProductsQuery, variables, &data); err != nil {
		return nil, err
	}

	return data.Products.Nodes(), nil
}

// ProductByHandle fetches a single product by its handle
func (c *Client) ProductByHandle(ctx context.Context, handle string) (*domain.ShopifyProduct, error) {
	var data struct {
		Product *domain.ShopifyProduct `json:"product"`
	}
	if err := c.Execute(ctx, "GetProductByHandle", getProductByHandleQuery, map[string]interface{}{"handle": handle}, &data); err != nil {
		return nil, err
	}
	if data.Product == nil {
		return nil, domain.ErrProductNotFound
	}
	return data.Product, nil
}

// Collections lists collections with a sample of their products
func (c *Client) Collections(ctx context.Context, first int) ([]domain.ShopifyCollection, error) {
	if first <= 0 {
		first = 10
	}

	var data struct {
		Collections domain.Connection[domain.ShopifyCollection] `json:"collections"`
	}
	if err := c.Execute(ctx, "GetCollections", getCollectionsQuery, map[string]interface{}{"first": first}, &data); err != nil {
		return nil, err
	}

	return data.Collections.Nodes(), nil
}

// ShopName returns the store name; used as a connection test
func (c *Client) ShopName(ctx context.Context) (string, error) {
	var data struct {
		Shop struct {
			Name string `json:"name"`
		} `json:"shop"`
	}
	if err := c.Execute(ctx, "TestConnection", testConnectionQuery, nil, &data); err != nil {
		return "", err
	}
	return data.Shop.Name, nil
}
