package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultNagerURL is the public Nager.Date endpoint.
const DefaultNagerURL = "https://date.nager.at"

// Nager fetches public holidays from a Nager.Date compatible API:
//
//	GET {base}/api/v3/PublicHolidays/{year}/{country}
type Nager struct {
	baseURL string
	country string
	client  *http.Client
	limiter *rate.Limiter
}

// NagerOption configures a Nager source.
type NagerOption func(*Nager)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(c *http.Client) NagerOption {
	return func(n *Nager) { n.client = c }
}

// WithRateLimit paces outbound requests.
func WithRateLimit(l *rate.Limiter) NagerOption {
	return func(n *Nager) { n.limiter = l }
}

// NewNager creates a remote source for country (ISO 3166-1 alpha-2).
func NewNager(baseURL, country string, opts ...NagerOption) *Nager {
	if baseURL == "" {
		baseURL = DefaultNagerURL
	}
	n := &Nager{
		baseURL: strings.TrimRight(baseURL, "/"),
		country: strings.ToUpper(country),
		client:  &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type nagerHoliday struct {
	Date      string `json:"date"`
	LocalName string `json:"localName"`
	Name      string `json:"name"`
}

// Holidays implements Source.
func (n *Nager) Holidays(ctx context.Context, year int) ([]Date, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("nager: rate limit: %w", err)
	}

	url := fmt.Sprintf("%s/api/v3/PublicHolidays/%d/%s", n.baseURL, year, n.country)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("nager: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nager: fetch %d/%s: %w", year, n.country, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("nager: fetch %d/%s: status %d: %s",
			year, n.country, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload []nagerHoliday
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("nager: decode response: %w", err)
	}

	dates := make([]Date, 0, len(payload))
	for _, h := range payload {
		d, err := ParseDate(h.Date)
		if err != nil {
			return nil, fmt.Errorf("nager: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, nil
}
