package cointax

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func openTestPriceDB(t *testing.T) *PriceDB {
	t.Helper()
	p, err := OpenPriceDB(filepath.Join(t.TempDir(), "prices.db"), "EUR")
	if err != nil {
		t.Fatalf("OpenPriceDB() error = %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p
}

func TestPriceDB_SetAndGet(t *testing.T) {
	p := openTestPriceDB(t)
	at := utc(2021, time.March, 1, 10)

	if err := p.SetPrice("kraken", "BTC", at, decimal.NewFromInt(40000)); err != nil {
		t.Fatalf("SetPrice() error = %v", err)
	}
	price, err := p.Price("kraken", "BTC", at)
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	if !price.Equal(decimal.NewFromInt(40000)) {
		t.Errorf("Price() = %s, want 40000", price)
	}
}

func TestPriceDB_NearestWithinTolerance(t *testing.T) {
	p := openTestPriceDB(t)
	at := utc(2021, time.March, 1, 12)

	// two candidates inside the window, the closer one wins
	if err := p.SetPrice("kraken", "BTC", at.Add(-5*time.Hour), decimal.NewFromInt(100)); err != nil {
		t.Fatalf("SetPrice() error = %v", err)
	}
	if err := p.SetPrice("kraken", "BTC", at.Add(2*time.Hour), decimal.NewFromInt(110)); err != nil {
		t.Fatalf("SetPrice() error = %v", err)
	}

	price, err := p.Price("kraken", "BTC", at)
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	if !price.Equal(decimal.NewFromInt(110)) {
		t.Errorf("Price() = %s, want the closer stored price 110", price)
	}
}

func TestPriceDB_OutsideToleranceIsUnavailable(t *testing.T) {
	p := openTestPriceDB(t)
	at := utc(2021, time.March, 1, 12)

	if err := p.SetPrice("kraken", "BTC", at.Add(-7*time.Hour), decimal.NewFromInt(100)); err != nil {
		t.Fatalf("SetPrice() error = %v", err)
	}
	_, err := p.Price("kraken", "BTC", at)
	if !errors.Is(err, ErrPriceUnavailable) {
		t.Fatalf("Price() error = %v, want ErrPriceUnavailable", err)
	}
}

func TestPriceDB_FiatIsAlwaysOne(t *testing.T) {
	p := openTestPriceDB(t)
	price, err := p.Price("kraken", "EUR", utc(2021, time.March, 1, 10))
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	if !price.Equal(decimal.NewFromInt(1)) {
		t.Errorf("Price(EUR) = %s, want 1", price)
	}
}

// countingFetcher serves a fixed price and counts how often it is asked.
type countingFetcher struct {
	price decimal.Decimal
	calls int
}

func (f *countingFetcher) Price(platform, coin, fiat string, at time.Time) (decimal.Decimal, error) {
	f.calls++
	return f.price, nil
}

func TestPriceDB_FetcherFillsAndCaches(t *testing.T) {
	p := openTestPriceDB(t)
	fetcher := &countingFetcher{price: decimal.NewFromInt(250)}
	p.SetFetcher(fetcher)
	at := utc(2021, time.March, 1, 10)

	price, err := p.Price("kraken", "ETH", at)
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	if !price.Equal(decimal.NewFromInt(250)) {
		t.Errorf("Price() = %s, want the fetched 250", price)
	}

	// the fetched price is stored, the second lookup hits the database
	if _, err := p.Price("kraken", "ETH", at); err != nil {
		t.Fatalf("Price() second lookup error = %v", err)
	}
	if fetcher.calls != 1 {
		t.Errorf("fetcher called %d times, want 1", fetcher.calls)
	}
}

func TestPriceDB_Cost(t *testing.T) {
	p := openTestPriceDB(t)
	at := utc(2021, time.March, 1, 10)
	if err := p.SetPrice("kraken", "BTC", at, decimal.NewFromInt(100)); err != nil {
		t.Fatalf("SetPrice() error = %v", err)
	}

	buy := NewBuy("kraken", at, "BTC", Q(0.5))
	cost, err := p.Cost(buy)
	if err != nil {
		t.Fatalf("Cost() error = %v", err)
	}
	if !cost.Equal(EUR(50)) {
		t.Errorf("Cost() = %s, want 50 EUR", cost)
	}

	partial, err := p.PartialCost(buy, Q(0.5))
	if err != nil {
		t.Fatalf("PartialCost() error = %v", err)
	}
	if !partial.Equal(EUR(25)) {
		t.Errorf("PartialCost() = %s, want 25 EUR", partial)
	}
}
