// Package gamma reads market metadata from the Polymarket Gamma API.
package gamma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"poly-mergesplit/internal/ethutil"
)

const DefaultURL = "https://gamma-api.polymarket.com"

// DefaultUserAgent mimics a browser UA to avoid Cloudflare 403s.
const DefaultUserAgent = "Mozilla/5.0"

type Client struct {
	host       string
	httpClient *http.Client
	userAgent  string
}

func NewClient(host string) (*Client, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		host = DefaultURL
	}
	host = strings.TrimRight(host, "/")

	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("gamma url parse %q: %w", host, err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return nil, fmt.Errorf("gamma url must be http(s), got %q", host)
	}

	return &Client{
		host: host,
		httpClient: &http.Client{
			Timeout: 12 * time.Second,
		},
		userAgent: DefaultUserAgent,
	}, nil
}

// stringList decodes a JSON array of strings. Gamma often sends arrays such as
// outcomes and clobTokenIds as a string holding the encoded array.
type stringList []string

func (s *stringList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*s = nil
		return nil
	}
	if b[0] == '"' {
		var inner string
		if err := json.Unmarshal(b, &inner); err != nil {
			return err
		}
		b = []byte(strings.TrimSpace(inner))
		if len(b) == 0 {
			*s = nil
			return nil
		}
	}
	var vals []string
	if err := json.Unmarshal(b, &vals); err != nil {
		return err
	}
	*s = vals
	return nil
}

type market struct {
	Slug         string     `json:"slug"`
	Question     string     `json:"question"`
	ConditionID  string     `json:"conditionId"`
	NegRisk      bool       `json:"negRisk"`
	Closed       bool       `json:"closed"`
	Outcomes     stringList `json:"outcomes"`
	ClobTokenIDs stringList `json:"clobTokenIds"`
}

// Market is what a split or merge needs to know about a binary market.
type Market struct {
	Slug        string
	Question    string
	ConditionID common.Hash
	NegRisk     bool
	Closed      bool
	Outcomes    []string
	TokenIDs    []string
}

// MarketBySlug looks up one binary market by its market slug.
func (c *Client) MarketBySlug(ctx context.Context, slug string) (Market, error) {
	if c == nil {
		return Market{}, fmt.Errorf("gamma client nil")
	}
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return Market{}, fmt.Errorf("market slug required")
	}

	q := url.Values{}
	q.Set("slug", slug)
	endpoint := c.host + "/markets?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Market{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Market{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readBodyLimit(resp.Body, 8<<10)
		return Market{}, fmt.Errorf("gamma %s: status=%d body=%q", endpoint, resp.StatusCode, body)
	}

	var markets []market
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&markets); err != nil {
		return Market{}, fmt.Errorf("gamma decode: %w", err)
	}
	if len(markets) == 0 {
		return Market{}, fmt.Errorf("gamma: no market for slug %q", slug)
	}

	// Prefer an exact slug match, else fall back to the first market.
	chosen := &markets[0]
	for i := range markets {
		if strings.TrimSpace(markets[i].Slug) == slug {
			chosen = &markets[i]
			break
		}
	}

	conditionID, err := ethutil.ParseConditionID(chosen.ConditionID)
	if err != nil {
		return Market{}, fmt.Errorf("gamma: market %q: %w", slug, err)
	}

	ids := make([]string, 0, len(chosen.ClobTokenIDs))
	for _, id := range chosen.ClobTokenIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) != 2 {
		return Market{}, fmt.Errorf("gamma: expected 2 clobTokenIds for %q, got %d", slug, len(ids))
	}

	return Market{
		Slug:        strings.TrimSpace(chosen.Slug),
		Question:    chosen.Question,
		ConditionID: conditionID,
		NegRisk:     chosen.NegRisk,
		Closed:      chosen.Closed,
		Outcomes:    append([]string(nil), chosen.Outcomes...),
		TokenIDs:    ids,
	}, nil
}

func readBodyLimit(r io.Reader, max int64) string {
	if r == nil || max <= 0 {
		return ""
	}
	lr := &io.LimitedReader{R: r, N: max}
	b, _ := io.ReadAll(lr)
	return strings.TrimSpace(string(b))
}
