package valuation

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func quoteServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Errorf("missing user agent")
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLatestBtcUsd(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    float64
		wantErr bool
	}{
		{"coinbase ticker", 200, `{"trade_id":1,"price":"60123.45","size":"0.1"}`, 60123.45, false},
		{"spot data amount", 200, `{"data":{"base":"BTC","currency":"USD","amount":"59000"}}`, 59000, false},
		{"numeric last", 200, `{"last":61000.5}`, 61000.5, false},
		{"zero price", 200, `{"price":"0"}`, 0, true},
		{"no price", 200, `{"volume":"12"}`, 0, true},
		{"bad status", 502, `upstream down`, 0, true},
		{"garbage", 200, `<html>`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := quoteServer(t, tt.status, tt.body)
			c := NewClient(srv.Client(), srv.URL, "", nil)
			got, err := c.LatestBtcUsd(context.Background())
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("price = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGoldValue(t *testing.T) {
	srv := quoteServer(t, 200, `{"price":2300}`)
	c := NewClient(srv.Client(), "", srv.URL, nil)
	v, err := c.GoldValue(context.Background(), 2.5)
	if err != nil {
		t.Fatalf("GoldValue: %v", err)
	}
	if v != 5750 {
		t.Fatalf("value = %v", v)
	}

	if _, err := NewClient(nil, "", "", nil).GoldValue(context.Background(), 1); !errors.Is(err, ErrNoGoldFeed) {
		t.Fatalf("want ErrNoGoldFeed, got %v", err)
	}
}

func TestPropertyValue(t *testing.T) {
	c := NewClient(nil, "", "", map[string]float64{"Jakarta": 180, " Singapore ": 1500})

	v, err := c.PropertyValue(context.Background(), "jakarta", 1000)
	if err != nil || v != 180_000 {
		t.Fatalf("jakarta = %v, %v", v, err)
	}
	v, err = c.PropertyValue(context.Background(), "SINGAPORE", 10)
	if err != nil || v != 15_000 {
		t.Fatalf("singapore = %v, %v", v, err)
	}
	_, err = c.PropertyValue(context.Background(), "Atlantis", 10)
	if !errors.Is(err, ErrUnknownCity) || !strings.Contains(err.Error(), "Atlantis") {
		t.Fatalf("want ErrUnknownCity, got %v", err)
	}
}
