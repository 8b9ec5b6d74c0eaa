package cointax

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EUR is a helper for tests to create euro money from const
func EUR(v float64) Money { return M(v, "EUR") }

// utc is a helper for tests to build timestamps
func utc(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

type priceKey struct {
	coin string
	at   time.Time
}

// stubPrices is a deterministic in-memory CostBasis for tests. The
// reporting fiat is always priced at 1; any other missing price fails
// with ErrPriceUnavailable.
type stubPrices struct {
	fiat   string
	prices map[priceKey]float64
}

func newStubPrices(fiat string) *stubPrices {
	return &stubPrices{fiat: fiat, prices: make(map[priceKey]float64)}
}

func (s *stubPrices) set(coin string, at time.Time, price float64) {
	s.prices[priceKey{coin, at}] = price
}

func (s *stubPrices) price(coin string, at time.Time) (decimal.Decimal, error) {
	if coin == s.fiat {
		return decimal.NewFromInt(1), nil
	}
	if p, ok := s.prices[priceKey{coin, at}]; ok {
		return decimal.NewFromFloat(p), nil
	}
	return decimal.Decimal{}, fmt.Errorf("%w: %s at %s", ErrPriceUnavailable, coin, at)
}

func (s *stubPrices) Cost(v Priceable) (Money, error) {
	price, err := s.price(v.Coin(), v.When())
	if err != nil {
		return Money{}, err
	}
	return M(price, s.fiat).Mul(v.Change()), nil
}

func (s *stubPrices) PartialCost(v Priceable, proportion Quantity) (Money, error) {
	cost, err := s.Cost(v)
	if err != nil {
		return Money{}, err
	}
	return cost.Mul(proportion), nil
}
