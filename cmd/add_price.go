package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// addPriceCmd holds the flags for the 'add-price' subcommand.
type addPriceCmd struct {
	platform string
	coin     string
	fiat     string
	at       string
	price    string
}

func (*addPriceCmd) Name() string     { return "add-price" }
func (*addPriceCmd) Synopsis() string { return "record a historical price in the price database" }
func (*addPriceCmd) Usage() string {
	return `ctm add-price -platform <platform> -coin <coin> -time <RFC3339> -price <decimal>

  Records the price of a coin in the reporting fiat at a point in time.
  Useful for platforms without a price source, e.g. before evaluating
  unrealized gains at the deadline.
`
}

func (c *addPriceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.platform, "platform", "", "Platform the price applies to")
	f.StringVar(&c.coin, "coin", "", "Coin symbol, e.g. BTC")
	f.StringVar(&c.fiat, "fiat", "EUR", "Reporting fiat currency")
	f.StringVar(&c.at, "time", "", "Time of the price (RFC3339)")
	f.StringVar(&c.price, "price", "", "Price of one coin in fiat")
}

func (c *addPriceCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.platform == "" || c.coin == "" || c.at == "" || c.price == "" {
		fmt.Fprintln(os.Stderr, "-platform, -coin, -time and -price are required")
		return subcommands.ExitUsageError
	}
	at, err := time.Parse(time.RFC3339, c.at)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing time: %v\n", err)
		return subcommands.ExitUsageError
	}
	price, err := decimal.NewFromString(c.price)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing price: %v\n", err)
		return subcommands.ExitUsageError
	}

	prices, err := OpenPrices(c.fiat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening price database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer prices.Close()

	if err := prices.SetPrice(c.platform, c.coin, at, price); err != nil {
		fmt.Fprintf(os.Stderr, "Error storing price: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Recorded %s/%s on %s at %s: %s\n", c.coin, c.fiat, c.platform, at.Format(time.RFC3339), price)
	return subcommands.ExitSuccess
}
