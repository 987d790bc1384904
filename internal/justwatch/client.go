package justwatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned when upstream has no titles for the query.
// Search reports it as an empty result.
var ErrNotFound = errors.New("justwatch: not found")

const (
	siteURL   = "https://justwatch.com"
	imagesURL = "https://images.justwatch.com"
)

// Query selects the titles a search returns.
type Query struct {
	Title    string
	Country  string
	Language string
	Limit    int
	BestOnly bool
}

// MediaEntry is one search result with its purchase offers.
type MediaEntry struct {
	Title            string
	URL              string
	ReleaseYear      *int
	ReleaseDate      *time.Time
	RuntimeMinutes   *int
	ShortDescription *string
	Poster           *string
	Offers           []Offer
}

// Offer is one vendor offer attached to a MediaEntry.
type Offer struct {
	PackageName      string
	MonetizationType string
	PresentationType string
	PriceValue       *decimal.Decimal
	Currency         string
}

// Client defines the contract for querying the offer catalog.
type Client interface {
	Search(ctx context.Context, q Query) ([]MediaEntry, error)
}

// HTTPClient implements Client over the GraphQL endpoint.
type HTTPClient struct {
	endpoint *url.URL
	client   *http.Client
	logger   logrus.FieldLogger
}

// NewHTTPClient constructs a new HTTP-backed lookup client.
func NewHTTPClient(endpoint string, timeout time.Duration, logger logrus.FieldLogger) (*HTTPClient, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	parsed, err := url.Parse(strings.TrimRight(endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse justwatch url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("parse justwatch url: %q is not absolute", endpoint)
	}
	return &HTTPClient{
		endpoint: parsed,
		client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   timeout,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
				MaxIdleConnsPerHost:   8,
			},
		},
		logger: logger,
	}, nil
}

// Search runs a title search. A 404 or an empty result yields no entries and no error.
func (c *HTTPClient) Search(ctx context.Context, q Query) ([]MediaEntry, error) {
	entries, err := c.search(ctx, q)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return entries, err
}

func (c *HTTPClient) search(ctx context.Context, q Query) ([]MediaEntry, error) {
	body, err := json.Marshal(newSearchRequest(q))
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("justwatch: search %q: %w", q.Title, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, resp.Body)
		c.logger.WithFields(logrus.Fields{"status": resp.StatusCode, "title": q.Title}).Warn("justwatch: unexpected status")
		return nil, fmt.Errorf("justwatch: upstream returned %d", resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if len(payload.Errors) > 0 {
		return nil, fmt.Errorf("justwatch: %s", payload.Errors[0].Message)
	}
	if len(payload.Data.PopularTitles.Edges) == 0 {
		return nil, ErrNotFound
	}

	entries := make([]MediaEntry, 0, len(payload.Data.PopularTitles.Edges))
	for _, edge := range payload.Data.PopularTitles.Edges {
		entries = append(entries, convertNode(edge.Node))
	}
	return entries, nil
}
