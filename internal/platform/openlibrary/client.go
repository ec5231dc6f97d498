package openlibrary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://openlibrary.org"

// ErrNotFound is returned when Open Library has no edition for the ISBN.
var ErrNotFound = errors.New("openlibrary: isbn not found")

type Config struct {
	UserAgent  string
	RPS        float64
	MaxRetries int
	BaseURL    string
	Timeout    time.Duration
}

type Client struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		userAgent:  cfg.UserAgent,
		baseURL:    cfg.BaseURL,
		limiter:    rate.NewLimiter(limit, 1),
		maxRetries: cfg.MaxRetries,
		backoff:    time.Second,
	}
}

type Named struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Edition matches one entry of api/books?jscmd=data.
type Edition struct {
	Title       string  `json:"title"`
	Subtitle    string  `json:"subtitle"`
	Publishers  []Named `json:"publishers"`
	PublishDate string  `json:"publish_date"`
	Authors     []Named `json:"authors"`
	Subjects    []Named `json:"subjects"`
	Notes       string  `json:"notes"`
	Excerpts    []struct {
		Text string `json:"text"`
	} `json:"excerpts"`
}

// Summary picks the best free-text description available for the edition.
func (e Edition) Summary() string {
	if e.Notes != "" {
		return e.Notes
	}
	if len(e.Excerpts) > 0 {
		return e.Excerpts[0].Text
	}
	return e.Subtitle
}

// Imprint formats the first publisher and publish date, e.g. "Tor, 2005".
func (e Edition) Imprint() string {
	switch {
	case len(e.Publishers) > 0 && e.PublishDate != "":
		return e.Publishers[0].Name + ", " + e.PublishDate
	case len(e.Publishers) > 0:
		return e.Publishers[0].Name
	default:
		return e.PublishDate
	}
}

func (c *Client) GetBookByISBN(ctx context.Context, isbn string) (*Edition, error) {
	key := "ISBN:" + isbn
	u := fmt.Sprintf("%s/api/books?bibkeys=%s&jscmd=data&format=json", c.baseURL, url.QueryEscape(key))

	var res map[string]Edition
	if err := c.get(ctx, u, &res); err != nil {
		return nil, err
	}
	ed, ok := res[key]
	if !ok {
		return nil, ErrNotFound
	}
	return &ed, nil
}

func (c *Client) get(ctx context.Context, url string, target any) error {
	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			// 1s, 2s, 4s...
			wait := c.backoff * time.Duration(1<<uint(i-1))
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		retry, err := c.do(ctx, url, target)
		if err == nil {
			return nil
		}
		if !retry {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("after %d retries: %w", c.maxRetries, lastErr)
}

func (c *Client) do(ctx context.Context, url string, target any) (bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		retry := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return retry, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return false, json.NewDecoder(resp.Body).Decode(target)
}
