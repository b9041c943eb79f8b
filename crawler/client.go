package crawler

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"

	"steam-market-crawler/config"
)

type searchEnvelope struct {
	TotalCount *int            `json:"total_count"`
	Results    json.RawMessage `json:"results"`
}

// SearchPage is the decoded envelope of one search response. TotalCount is
// only meaningful on the probe request; Results carries the raw item
// payloads for normalization.
type SearchPage struct {
	TotalCount int
	HasTotal   bool
	Results    []json.RawMessage
	HasResults bool
}

// Client issues search requests through a colly collector. Requests are
// strictly sequential; the collector is never shared between goroutines.
type Client struct {
	cfg       *config.Config
	collector *colly.Collector

	body   []byte
	status int
}

// NewClient builds the HTTP client for the search endpoint.
func NewClient(cfg *config.Config) (*Client, error) {
	parsed, err := url.Parse(cfg.SearchURL)
	if err != nil {
		return nil, fmt.Errorf("parse search url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("search url must include a host")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(parsed.Host),
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	collector.SetRequestTimeout(cfg.Timeout)
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	c := &Client{cfg: cfg, collector: collector}
	collector.OnResponse(func(r *colly.Response) {
		c.body = r.Body
		c.status = r.StatusCode
	})
	collector.OnError(func(r *colly.Response, _ error) {
		if r != nil {
			c.status = r.StatusCode
		}
	})
	return c, nil
}

// WithTransport swaps the collector transport; tests inject mocks here.
func (c *Client) WithTransport(rt http.RoundTripper) {
	c.collector.WithTransport(rt)
}

// FetchPage issues one GET with the given parameters and decodes the
// response envelope. Transport failures, timeouts and non-success statuses
// come back as classified errors for the caller to skip on.
func (c *Client) FetchPage(params url.Values) (*SearchPage, error) {
	requestURL := c.cfg.SearchURL + "?" + params.Encode()

	c.body, c.status = nil, 0
	if err := c.collector.Visit(requestURL); err != nil {
		return nil, classifyError(err, c.status)
	}

	var envelope searchEnvelope
	if err := json.Unmarshal(c.body, &envelope); err != nil {
		return nil, ErrEnvelope{Err: err}
	}

	page := &SearchPage{}
	if envelope.TotalCount != nil {
		page.TotalCount = *envelope.TotalCount
		page.HasTotal = true
	}
	if envelope.Results != nil {
		if err := json.Unmarshal(envelope.Results, &page.Results); err != nil {
			return nil, ErrEnvelope{Err: err}
		}
		page.HasResults = true
	}
	return page, nil
}

// Probe requests a single result to learn the total item count before
// pagination begins.
func (c *Client) Probe() (int, error) {
	params := BuildParams(c.cfg.Query, c.cfg.AppID, c.cfg.Currency, 0, 1)
	page, err := c.FetchPage(params)
	if err != nil {
		return 0, err
	}
	if !page.HasTotal {
		return 0, ErrEnvelope{Err: fmt.Errorf("response missing total_count")}
	}
	return page.TotalCount, nil
}
