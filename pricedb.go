package cointax

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// priceTolerance is how far a stored price may be from the requested
// time and still be used.
const priceTolerance = 6 * time.Hour

// PriceFetcher retrieves a coin price from an external source when the
// local store has none. Implementations are platform specific.
type PriceFetcher interface {
	Price(platform, coin, fiat string, at time.Time) (decimal.Decimal, error)
}

// PriceDB is a SQLite backed store of historical coin prices in the
// reporting fiat. It implements CostBasis. A fetcher, when set, fills
// missing prices from the platform's API and caches them.
type PriceDB struct {
	db      *sql.DB
	fiat    string
	fetcher PriceFetcher
}

// OpenPriceDB opens (or creates) the price database at path, with prices
// quoted in the given fiat currency.
func OpenPriceDB(path, fiat string) (*PriceDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening price database %q: %w", path, err)
	}
	const schema = `
	CREATE TABLE IF NOT EXISTS prices (
		platform TEXT NOT NULL,
		coin     TEXT NOT NULL,
		fiat     TEXT NOT NULL,
		utc      INTEGER NOT NULL,
		price    TEXT NOT NULL,
		PRIMARY KEY (platform, coin, fiat, utc)
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating price table: %w", err)
	}
	return &PriceDB{db: db, fiat: fiat}, nil
}

// SetFetcher installs a fallback source for prices missing in the store.
func (p *PriceDB) SetFetcher(f PriceFetcher) { p.fetcher = f }

func (p *PriceDB) Close() error { return p.db.Close() }

// SetPrice records the price of one coin in fiat at the given time.
func (p *PriceDB) SetPrice(platform, coin string, at time.Time, price decimal.Decimal) error {
	_, err := p.db.Exec(
		`INSERT OR REPLACE INTO prices (platform, coin, fiat, utc, price) VALUES (?, ?, ?, ?, ?)`,
		platform, coin, p.fiat, at.UTC().Unix(), price.String(),
	)
	if err != nil {
		return fmt.Errorf("storing price of %s/%s on %s: %w", coin, p.fiat, platform, err)
	}
	return nil
}

// Price returns the price of coin in fiat at the given time: the stored
// price closest to it within the tolerance window, the fetcher's answer
// (cached for next time), or ErrPriceUnavailable.
func (p *PriceDB) Price(platform, coin string, at time.Time) (decimal.Decimal, error) {
	if coin == p.fiat {
		return decimal.NewFromInt(1), nil
	}

	utc := at.UTC().Unix()
	row := p.db.QueryRow(
		`SELECT price FROM prices
		 WHERE platform = ? AND coin = ? AND fiat = ? AND abs(utc - ?) <= ?
		 ORDER BY abs(utc - ?) LIMIT 1`,
		platform, coin, p.fiat, utc, int64(priceTolerance/time.Second), utc,
	)
	var stored string
	switch err := row.Scan(&stored); err {
	case nil:
		price, err := decimal.NewFromString(stored)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("corrupt price %q for %s/%s: %w", stored, coin, p.fiat, err)
		}
		return price, nil
	case sql.ErrNoRows:
		// fall through to the fetcher
	default:
		return decimal.Decimal{}, fmt.Errorf("querying price of %s/%s: %w", coin, p.fiat, err)
	}

	if p.fetcher == nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %s/%s on %s at %s", ErrPriceUnavailable, coin, p.fiat, platform, at)
	}
	price, err := p.fetcher.Price(platform, coin, p.fiat, at)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %s/%s on %s at %s: %v", ErrPriceUnavailable, coin, p.fiat, platform, at, err)
	}
	if err := p.SetPrice(platform, coin, at, price); err != nil {
		return decimal.Decimal{}, err
	}
	return price, nil
}

// Cost implements CostBasis: the fiat value of the full change of v.
func (p *PriceDB) Cost(v Priceable) (Money, error) {
	price, err := p.Price(v.Platform(), v.Coin(), v.When())
	if err != nil {
		return Money{}, err
	}
	return M(price, p.fiat).Mul(v.Change()), nil
}

// PartialCost implements CostBasis: the fiat value of a proportion of
// the change of v.
func (p *PriceDB) PartialCost(v Priceable, proportion Quantity) (Money, error) {
	cost, err := p.Cost(v)
	if err != nil {
		return Money{}, err
	}
	return cost.Mul(proportion), nil
}
