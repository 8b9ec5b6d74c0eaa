// Package renderer renders evaluation results into markdown documents.
package renderer

import (
	"fmt"
	"strings"

	"github.com/haeber/cointax"
)

const timeFormat = "2006-01-02 15:04"

// TaxReportMarkdown renders the full tax report to a markdown string:
// taxable totals per category, unrealized gains at the deadline, the
// closing portfolio and one table per entry kind.
func TaxReportMarkdown(r *cointax.TaxReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Tax Evaluation %d\n\n", r.TaxYear)
	fmt.Fprintf(&b, "Deadline: %s\n\n", r.Deadline.Format("2006-01-02"))

	fmt.Fprint(&b, "## Taxable Income per Category\n\n")
	fmt.Fprintf(&b, "| Category | Taxable (%s) |\n", r.Fiat)
	fmt.Fprintln(&b, "|:---|---:|")
	byCategory := r.TaxableByCategory()
	for _, category := range r.Categories() {
		fmt.Fprintf(&b, "| %s | %s |\n", category, byCategory[category].String())
	}

	fmt.Fprint(&b, "\n## Unrealized Gains at Deadline\n\n")
	fmt.Fprintf(&b, "Unrealized gain: %s\n\n", r.UnrealizedGain().SignedString())
	fmt.Fprintf(&b, "Unrealized taxable gain: %s\n\n", r.UnrealizedTaxableGain().SignedString())

	fmt.Fprint(&b, "## Portfolio at Deadline\n\n")
	fmt.Fprintln(&b, "| Platform | Coin | Amount |")
	fmt.Fprintln(&b, "|:---|:---|---:|")
	for _, platform := range r.Portfolio.Platforms() {
		for _, coin := range r.Portfolio.Coins(platform) {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", platform, coin, r.Portfolio.Amount(platform, coin))
		}
	}

	renderSells(&b, r, false)
	renderSells(&b, r, true)
	renderIncome(&b, r)
	renderTransfers(&b, r)

	if len(r.Warnings) > 0 {
		fmt.Fprint(&b, "\n## Warnings\n\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	return b.String()
}

func renderSells(b *strings.Builder, r *cointax.TaxReport, unrealized bool) {
	var sells []*cointax.SellReport
	for _, e := range r.Entries {
		if s, ok := e.(*cointax.SellReport); ok && s.Unrealized == unrealized {
			sells = append(sells, s)
		}
	}
	if len(sells) == 0 {
		return
	}

	if unrealized {
		fmt.Fprint(b, "\n## Unrealized Sells\n\n")
	} else {
		fmt.Fprint(b, "\n## Sells\n\n")
	}
	fmt.Fprintln(b, "| Coin | Amount | Bought | Sold | Buy Value | Sell Value | Fees | Taxable | Gain |")
	fmt.Fprintln(b, "|:---|---:|:---|:---|---:|---:|---:|:---|---:|")
	for _, s := range sells {
		fees := s.FirstFee.InFiat.Add(s.SecondFee.InFiat)
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %s | %s | %v | %s |\n",
			s.Coin, s.Amount,
			s.BuyTime.Format(timeFormat), s.SellTime.Format(timeFormat),
			s.BuyValue, s.SellValue, fees, s.Taxable, s.TaxableGain().SignedString(),
		)
	}
}

func renderIncome(b *strings.Builder, r *cointax.TaxReport) {
	var incomes []*cointax.IncomeReport
	for _, e := range r.Entries {
		if i, ok := e.(*cointax.IncomeReport); ok {
			incomes = append(incomes, i)
		}
	}
	if len(incomes) == 0 {
		return
	}

	fmt.Fprint(b, "\n## Received Coins\n\n")
	fmt.Fprintln(b, "| Event | Platform | Coin | Amount | Received | Value | Category |")
	fmt.Fprintln(b, "|:---|:---|:---|---:|:---|---:|:---|")
	for _, i := range incomes {
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %s | %s |\n",
			i.Event, i.Platform, i.Coin, i.Amount, i.Time.Format(timeFormat), i.InFiat, i.TaxationType,
		)
	}
}

func renderTransfers(b *strings.Builder, r *cointax.TaxReport) {
	var transfers []*cointax.TransferReport
	for _, e := range r.Entries {
		if t, ok := e.(*cointax.TransferReport); ok {
			transfers = append(transfers, t)
		}
	}
	if len(transfers) == 0 {
		return
	}

	fmt.Fprint(b, "\n## Transfers\n\n")
	fmt.Fprintln(b, "| Coin | Amount | From | To | Withdrawn | Deposited | Fee | Fee Value |")
	fmt.Fprintln(b, "|:---|---:|:---|:---|:---|:---|---:|---:|")
	for _, t := range transfers {
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %s | %s | %s |\n",
			t.Coin, t.Amount, t.FromPlatform, t.ToPlatform,
			t.WithdrawTime.Format(timeFormat), t.DepositTime.Format(timeFormat),
			t.Fee.Amount, t.Fee.InFiat,
		)
	}
}
