package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/haeber/cointax"
	"github.com/haeber/cointax/renderer"
)

// evaluateCmd holds the flags for the 'evaluate' subcommand.
type evaluateCmd struct {
	year       int
	country    string
	fiat       string
	principle  string
	multiDepot bool
	gifts      bool
	fetch      bool
	raw        bool
}

func (*evaluateCmd) Name() string     { return "evaluate" }
func (*evaluateCmd) Synopsis() string { return "evaluate the taxation of one tax year" }
func (*evaluateCmd) Usage() string {
	return `ctm evaluate -year <year> [-country <country>] [-fiat <currency>] [-principle <fifo|lifo>]

  Evaluates the ledger for one tax year and renders the tax report.
`
}

func (c *evaluateCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.year, "year", 0, "Tax year to evaluate")
	f.StringVar(&c.country, "country", "germany", "Taxation jurisdiction")
	f.StringVar(&c.fiat, "fiat", "EUR", "Reporting fiat currency")
	f.StringVar(&c.principle, "principle", "fifo", "Accounting principle (fifo, lifo)")
	f.BoolVar(&c.multiDepot, "multi-depot", false, "Keep one balance per platform and coin instead of per coin")
	f.BoolVar(&c.gifts, "airdrops-are-gifts", false, "Treat all airdrops as gifts")
	f.BoolVar(&c.fetch, "fetch-prices", false, "Fetch missing prices from the Kraken public API")
	f.BoolVar(&c.raw, "raw", false, "Print raw markdown instead of rendering for the terminal")
}

func (c *evaluateCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.year == 0 {
		fmt.Fprintln(os.Stderr, "-year is required")
		return subcommands.ExitUsageError
	}
	principle, err := cointax.ParsePrinciple(c.principle)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing principle: %v\n", err)
		return subcommands.ExitUsageError
	}

	ops, err := DecodeLedgerFile()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading ledger: %v\n", err)
		return subcommands.ExitFailure
	}

	prices, err := OpenPrices(c.fiat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening price database: %v\n", err)
		return subcommands.ExitFailure
	}
	defer prices.Close()
	if c.fetch {
		prices.SetFetcher(cointax.NewKrakenFetcher())
	}

	taxman, err := cointax.New(cointax.Config{
		TaxYear:          c.year,
		Country:          c.country,
		Fiat:             c.fiat,
		Principle:        principle,
		MultiDepot:       c.multiDepot,
		AirdropsAreGifts: c.gifts,
	}, prices)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating taxman: %v\n", err)
		return subcommands.ExitFailure
	}

	report, err := taxman.Evaluate(ops)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Evaluation failed: %v\n", err)
		return subcommands.ExitFailure
	}

	md := renderer.TaxReportMarkdown(report)
	if c.raw {
		fmt.Println(md)
		return subcommands.ExitSuccess
	}
	out, err := glamour.Render(md, "auto")
	if err != nil {
		// fall back to the raw markdown
		fmt.Println(md)
		return subcommands.ExitSuccess
	}
	fmt.Println(out)
	return subcommands.ExitSuccess
}
