package anilist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrUserNotFound marks the normal "no such username" outcome. Callers
// branch on it with errors.Is rather than treating it as a failure.
var ErrUserNotFound = errors.New("anilist: user not found")

type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cb         *gobreaker.CircuitBreaker
	log        *zap.Logger
}

// Option configures the Client.
type Option func(*Client)

func WithCircuitBreaker(cb *gobreaker.CircuitBreaker) Option {
	return func(c *Client) { c.cb = cb }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

func WithRateInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.limiter = rate.NewLimiter(rate.Every(interval), 1)
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = "https://graphql.anilist.co"
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(700*time.Millisecond), 1),
		log:        zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ResolveUser maps a display name to the catalog identity. A missing user
// is reported as ErrUserNotFound; anything else is a transport or decode
// failure.
func (c *Client) ResolveUser(ctx context.Context, username string) (User, error) {
	var out userResponse
	err := c.query(ctx, userQuery, map[string]any{"name": username}, &out, true)
	if err != nil {
		return User{}, err
	}
	if out.Data.User == nil {
		c.log.Info("username not present in catalog", zap.String("username", username))
		return User{}, ErrUserNotFound
	}
	return *out.Data.User, nil
}

// Lists fetches the full list collection for a numeric identity. Any
// transport or decode failure aborts the caller's reconciliation; partial
// remote data is never usable.
func (c *Client) Lists(ctx context.Context, userID int) ([]List, error) {
	var out listResponse
	err := c.query(ctx, listQuery, map[string]any{"userId": userID}, &out, false)
	if err != nil {
		return nil, err
	}
	return out.Data.MediaListCollection.Lists, nil
}

func (c *Client) query(ctx context.Context, query string, variables map[string]any, dest any, allowNotFound bool) error {
	if c.cb == nil {
		return c.post(ctx, query, variables, dest, allowNotFound)
	}
	_, err := c.cb.Execute(func() (any, error) {
		return nil, c.post(ctx, query, variables, dest, allowNotFound)
	})
	return err
}

func (c *Client) post(ctx context.Context, query string, variables map[string]any, dest any, allowNotFound bool) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := json.Marshal(map[string]any{"query": query, "variables": variables})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("anilist: request: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("anilist: read body: %w", err)
	}
	// AniList answers 404 for unknown users on the User query; the payload
	// still decodes with a null data.User, which is the signal we use. On
	// every other query a non-200 is a hard failure, never empty data.
	if resp.StatusCode != http.StatusOK {
		if !(allowNotFound && resp.StatusCode == http.StatusNotFound) {
			return fmt.Errorf("anilist: status %d body=%q", resp.StatusCode, truncate(b, 200))
		}
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return fmt.Errorf("anilist: decode: %w body=%q", err, truncate(b, 200))
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
