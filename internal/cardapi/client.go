package cardapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const defaultPageSize = 250

type Client struct {
	baseURL        string
	apiKey         string
	httpClient     *http.Client
	pageSize       int
	pageDelay      time.Duration
	retryInitial   time.Duration
	retryMaxElapse time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithPageDelay spaces out the page requests of a ListAll walk.
func WithPageDelay(d time.Duration) Option {
	return func(c *Client) { c.pageDelay = d }
}

func WithRetry(initial, maxElapsed time.Duration) Option {
	return func(c *Client) {
		c.retryInitial = initial
		c.retryMaxElapse = maxElapsed
	}
}

func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		apiKey:         apiKey,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		pageSize:       defaultPageSize,
		retryInitial:   500 * time.Millisecond,
		retryMaxElapse: time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ListSets(ctx context.Context, page, pageSize int) (*Page[Set], error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(pageSize))
	q.Set("orderBy", "releaseDate")

	var out Page[Set]
	if err := c.get(ctx, "/sets", q, &out); err != nil {
		return nil, fmt.Errorf("list sets page %d: %w", page, err)
	}
	return &out, nil
}

func (c *Client) ListAllSets(ctx context.Context) ([]Set, error) {
	return collect(ctx, c.pageSize, c.pageDelay, c.ListSets)
}

func (c *Client) ListSetCards(ctx context.Context, setID string, page, pageSize int) (*Page[Card], error) {
	q := url.Values{}
	q.Set("q", "set.id:"+setID)
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(pageSize))

	var out Page[Card]
	if err := c.get(ctx, "/cards", q, &out); err != nil {
		return nil, fmt.Errorf("list cards of set %s page %d: %w", setID, page, err)
	}
	return &out, nil
}

func (c *Client) ListAllSetCards(ctx context.Context, setID string) ([]Card, error) {
	return collect(ctx, c.pageSize, c.pageDelay, func(ctx context.Context, page, pageSize int) (*Page[Card], error) {
		return c.ListSetCards(ctx, setID, page, pageSize)
	})
}

func (c *Client) GetCard(ctx context.Context, id string) (*Card, error) {
	var out single[Card]
	if err := c.get(ctx, "/cards/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, fmt.Errorf("get card %s: %w", id, err)
	}
	return &out.Data, nil
}

func collect[T any](ctx context.Context, pageSize int, delay time.Duration, fetch func(context.Context, int, int) (*Page[T], error)) ([]T, error) {
	var all []T
	for page := 1; ; page++ {
		if page > 1 && delay > 0 {
			t := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, ctx.Err()
			case <-t.C:
			}
		}
		p, err := fetch(ctx, page, pageSize)
		if err != nil {
			return nil, err
		}
		all = append(all, p.Data...)
		if len(p.Data) == 0 || len(p.Data) < pageSize || (p.TotalCount > 0 && len(all) >= p.TotalCount) {
			return all, nil
		}
	}
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	return Retry(ctx, c.retryInitial, c.retryMaxElapse, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")
		if c.apiKey != "" {
			req.Header.Set("X-Api-Key", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNotFound {
			return backoff.Permanent(ErrNotFound)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			serr := &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
			if retryable(resp.StatusCode) {
				return serr
			}
			return backoff.Permanent(serr)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return nil
	})
}
