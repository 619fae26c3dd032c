// Package aur is a client for the AUR's JSON RPC v5 endpoint: batched
// package metadata lookups and name/description search, used by both the
// resolver (to classify a dependency as AUR vs. missing) and the upgrade
// planner (to compare installed versions against upstream).
package aur

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/Manpreet113/ax/internal/errdefs"
)

const (
	baseURL   = "https://aur.archlinux.org/rpc/"
	userAgent = "ax/1.0 (+https://github.com/Manpreet113/ax)"
)

// Package is the subset of AUR RPC package fields ax cares about.
type Package struct {
	Name           string   `json:"Name"`
	PackageBase    string   `json:"PackageBase"`
	Version        string   `json:"Version"`
	Description    string   `json:"Description"`
	URL            string   `json:"URL"`
	Depends        []string `json:"Depends"`
	MakeDepends    []string `json:"MakeDepends"`
	OutOfDate      *int64   `json:"OutOfDate"`
	NumVotes       int      `json:"NumVotes"`
	Popularity     float64  `json:"Popularity"`
	Maintainer     string   `json:"Maintainer"`
	FirstSubmitted int64    `json:"FirstSubmitted"`
	LastModified   int64    `json:"LastModified"`
}

type response struct {
	Type        string    `json:"type"`
	ResultCount int       `json:"resultcount"`
	Results     []Package `json:"results"`
	Error       string    `json:"error"`
}

// Client is an AUR RPC client with a bounded retry policy for transient
// failures (rate limiting, connection resets).
type Client struct {
	http *http.Client
}

func NewClient() *Client {
	return &Client{http: &http.Client{Timeout: 30 * time.Second}}
}

// Info fetches metadata for the given package names in a single batched
// request. An empty input returns an empty result without any request.
func (c *Client) Info(ctx context.Context, names []string) ([]Package, error) {
	if len(names) == 0 {
		return nil, nil
	}
	return c.call(ctx, "info", names)
}

// Search looks up packages by name/description substring.
func (c *Client) Search(ctx context.Context, query string) ([]Package, error) {
	if query == "" {
		return nil, nil
	}
	return c.call(ctx, "search", []string{query})
}

func (c *Client) call(ctx context.Context, rpcType string, args []string) ([]Package, error) {
	q := url.Values{}
	q.Set("v", "5")
	q.Set("type", rpcType)
	for _, a := range args {
		q.Add("arg[]", a)
	}
	reqURL := baseURL + "?" + q.Encode()

	var result response
	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("aur rpc returned status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(fmt.Errorf("aur rpc returned status %d", resp.StatusCode))
		}

		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}

	// Waits 1s, 2s, then 4s between attempts: at most three retries.
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = time.Second
	expo.Multiplier = 2
	expo.RandomizationFactor = 0
	expo.MaxInterval = 4 * time.Second
	policy := backoff.WithMaxRetries(expo, 3)
	if err := backoff.Retry(op, backoff.WithContext(policy, ctx)); err != nil {
		return nil, errdefs.Wrap(errdefs.ErrTypeNetwork, "", err)
	}
	if result.Type == "error" {
		return nil, errdefs.Newf(errdefs.ErrTypeNetwork, "aur rpc error: %s", result.Error)
	}
	return result.Results, nil
}
