package valuation

import "context"

// Service converts asset attributes to USD and quotes BTC/USD.
type Service interface {
	PropertyValue(ctx context.Context, city string, areaSqFt float64) (float64, error)
	GoldValue(ctx context.Context, ounces float64) (float64, error)
	LatestBtcUsd(ctx context.Context) (float64, error)
}
