package valuationmock

import (
	"context"
	"errors"

	"btc-lending-backend/internal/domain/valuation"
)

var _ valuation.Service = (*Service)(nil)

var errUnimplemented = errors.New("valuationmock: method not implemented")

type Service struct {
	PropertyValueFn func(ctx context.Context, city string, areaSqFt float64) (float64, error)
	GoldValueFn     func(ctx context.Context, ounces float64) (float64, error)
	LatestBtcUsdFn  func(ctx context.Context) (float64, error)
}

// Fixed quotes BTC at price, gold at 2300/oz and property at 250/sqft.
func Fixed(price float64) *Service {
	return &Service{
		PropertyValueFn: func(_ context.Context, _ string, area float64) (float64, error) { return area * 250, nil },
		GoldValueFn:     func(_ context.Context, oz float64) (float64, error) { return oz * 2300, nil },
		LatestBtcUsdFn:  func(context.Context) (float64, error) { return price, nil },
	}
}

func (m *Service) PropertyValue(ctx context.Context, city string, areaSqFt float64) (float64, error) {
	if m.PropertyValueFn != nil {
		return m.PropertyValueFn(ctx, city, areaSqFt)
	}
	return 0, errUnimplemented
}

func (m *Service) GoldValue(ctx context.Context, ounces float64) (float64, error) {
	if m.GoldValueFn != nil {
		return m.GoldValueFn(ctx, ounces)
	}
	return 0, errUnimplemented
}

func (m *Service) LatestBtcUsd(ctx context.Context) (float64, error) {
	if m.LatestBtcUsdFn != nil {
		return m.LatestBtcUsdFn(ctx)
	}
	return 0, errUnimplemented
}
