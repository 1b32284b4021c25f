// Package valuation prices collateral and quotes BTC/USD over HTTP.
package valuation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	domain "btc-lending-backend/internal/domain/valuation"
)

var _ domain.Service = (*Client)(nil)

var (
	ErrUnknownCity = errors.New("no price per square foot for city")
	ErrNoGoldFeed  = errors.New("gold price feed not configured")
)

const userAgent = "btc-lending-backend/1.0"

type Client struct {
	http      *http.Client
	tickerURL string
	goldURL   string
	cityRates map[string]float64
}

// NewClient builds a client. cityRates maps city name to USD per square
// foot; lookups ignore case and surrounding space.
func NewClient(hc *http.Client, tickerURL, goldURL string, cityRates map[string]float64) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	rates := make(map[string]float64, len(cityRates))
	for k, v := range cityRates {
		rates[cityKey(k)] = v
	}
	return &Client{http: hc, tickerURL: tickerURL, goldURL: goldURL, cityRates: rates}
}

func cityKey(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (c *Client) PropertyValue(_ context.Context, city string, areaSqFt float64) (float64, error) {
	rate, ok := c.cityRates[cityKey(city)]
	if !ok || rate <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCity, city)
	}
	return rate * areaSqFt, nil
}

func (c *Client) GoldValue(ctx context.Context, ounces float64) (float64, error) {
	if c.goldURL == "" {
		return 0, ErrNoGoldFeed
	}
	perOz, err := c.quote(ctx, c.goldURL)
	if err != nil {
		return 0, fmt.Errorf("gold quote: %w", err)
	}
	return perOz * ounces, nil
}

func (c *Client) LatestBtcUsd(ctx context.Context) (float64, error) {
	p, err := c.quote(ctx, c.tickerURL)
	if err != nil {
		return 0, fmt.Errorf("btc ticker: %w", err)
	}
	return p, nil
}

// quote fetches url and reads a positive price from the first of price,
// last, amount or rate, looking inside a "data" object when present.
func (c *Client) quote(ctx context.Context, url string) (float64, error) {
	body, err := c.get(ctx, url)
	if err != nil {
		return 0, err
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return 0, fmt.Errorf("decode quote: %w", err)
	}
	if inner, ok := doc["data"]; ok {
		var nested map[string]json.RawMessage
		if json.Unmarshal(inner, &nested) == nil {
			doc = nested
		}
	}
	for _, k := range []string{"price", "last", "amount", "rate"} {
		raw, ok := doc[k]
		if !ok {
			continue
		}
		p, err := parsePrice(raw)
		if err != nil {
			return 0, fmt.Errorf("field %s: %w", k, err)
		}
		if !(p > 0) {
			return 0, fmt.Errorf("field %s: non-positive price %v", k, p)
		}
		return p, nil
	}
	return 0, errors.New("quote has no price field")
}

// parsePrice accepts both 123.4 and "123.4".
func parsePrice(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.ParseFloat(strings.TrimSpace(s), 64)
	}
	var f float64
	err := json.Unmarshal(raw, &f)
	return f, err
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HttpStatusCode:%d, Desc:%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}
