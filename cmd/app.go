// Package cmd implements the CLI application to evaluate a crypto tax year.
package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/haeber/cointax"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&evaluateCmd{}, "taxation")
	c.Register(&addPriceCmd{}, "prices")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var ledgerFile = flag.String("ledger-file", "operations.jsonl", "Path to the ledger file containing operations (JSONL format)")
var priceDBFile = flag.String("price-db", "prices.db", "Path to the price database (SQLite)")

// DecodeLedgerFile reads the operations from the app ledger file.
func DecodeLedgerFile() ([]cointax.Operation, error) {
	f, err := os.Open(*ledgerFile)
	if err != nil {
		return nil, fmt.Errorf("opening ledger file %q: %w", *ledgerFile, err)
	}
	defer f.Close()
	return cointax.DecodeOperations(*ledgerFile, f)
}

// OpenPrices opens the app price database.
func OpenPrices(fiat string) (*cointax.PriceDB, error) {
	return cointax.OpenPriceDB(*priceDBFile, fiat)
}
