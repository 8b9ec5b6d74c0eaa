package cointax

import (
	"sort"
	"time"
)

// TaxReportEntry is one tax relevant event in the evaluation report.
type TaxReportEntry interface {
	// EventType returns the entry kind, e.g. "Sell" or "Interest".
	EventType() string
	// Category returns the jurisdiction's taxation category label.
	Category() string
	When() time.Time
	// TaxableGain returns the gain subject to taxation in fiat. It is zero
	// whenever the event is not taxable.
	TaxableGain() Money
}

// FeeValue is a prorated fee in its own coin with its fiat equivalent.
type FeeValue struct {
	Coin   string
	Amount Quantity
	InFiat Money
}

// SellReport is the evaluation of one consumed lot of a disposal. A sell
// matched against several lots produces one entry per lot. Unrealized
// entries come from the deadline liquidation of remaining balances.
type SellReport struct {
	SellPlatform string
	BuyPlatform  string
	Coin         string
	Amount       Quantity
	SellTime     time.Time
	BuyTime      time.Time
	FirstFee     FeeValue
	SecondFee    FeeValue
	SellValue    Money // fiat value at disposal
	BuyValue     Money // fiat value at acquisition, fees included
	Taxable      bool
	TaxationType string
	Note         string
	Unrealized   bool
}

func (r *SellReport) EventType() string {
	if r.Unrealized {
		return "Unrealized Sell"
	}
	return "Sell"
}

func (r *SellReport) Category() string { return r.TaxationType }
func (r *SellReport) When() time.Time  { return r.SellTime }

// Gain returns disposal value minus acquisition value minus the prorated
// disposal fees.
func (r *SellReport) Gain() Money {
	return r.SellValue.Sub(r.BuyValue).Sub(r.FirstFee.InFiat).Sub(r.SecondFee.InFiat)
}

func (r *SellReport) TaxableGain() Money {
	if !r.Taxable {
		return M(0, r.SellValue.Currency())
	}
	return r.Gain()
}

// IncomeReport is the shared shape of interest, airdrop and commission
// entries: coins received, valued in fiat at receipt, fully taxable in
// their category.
type IncomeReport struct {
	Event        string
	Platform     string
	Coin         string
	Amount       Quantity
	Time         time.Time
	InFiat       Money
	TaxationType string
	Note         string
}

func (r *IncomeReport) EventType() string  { return r.Event }
func (r *IncomeReport) Category() string   { return r.TaxationType }
func (r *IncomeReport) When() time.Time    { return r.Time }
func (r *IncomeReport) TaxableGain() Money { return r.InFiat }

// TransferReport documents an internal transfer between two platforms and
// its implicit fee. Informational: it carries no taxable gain.
type TransferReport struct {
	ToPlatform   string
	FromPlatform string
	Coin         string
	Amount       Quantity
	DepositTime  time.Time
	WithdrawTime time.Time
	Fee          FeeValue
	Note         string
}

func (r *TransferReport) EventType() string  { return "Transfer" }
func (r *TransferReport) Category() string   { return "" }
func (r *TransferReport) When() time.Time    { return r.DepositTime }
func (r *TransferReport) TaxableGain() Money { return Money{} }

// TaxReport is the outcome of one evaluation run.
type TaxReport struct {
	TaxYear   int
	Fiat      string
	Deadline  time.Time
	Entries   []TaxReportEntry
	Portfolio *Snapshot
	Warnings  []string
}

// TaxableByCategory sums the taxable gain of realized entries per
// taxation category. Unrealized sells and category-less entries are
// excluded.
func (r *TaxReport) TaxableByCategory() map[string]Money {
	totals := make(map[string]Money)
	for _, e := range r.Entries {
		if e.Category() == "" {
			continue
		}
		if s, ok := e.(*SellReport); ok && s.Unrealized {
			continue
		}
		totals[e.Category()] = totals[e.Category()].Add(e.TaxableGain())
	}
	return totals
}

// Categories returns the taxation categories present in the report,
// sorted for stable output.
func (r *TaxReport) Categories() []string {
	byCat := r.TaxableByCategory()
	cats := make([]string, 0, len(byCat))
	for c := range byCat {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}

// UnrealizedGain sums the gain of all unrealized sell entries.
func (r *TaxReport) UnrealizedGain() Money {
	total := M(0, r.Fiat)
	for _, e := range r.Entries {
		if s, ok := e.(*SellReport); ok && s.Unrealized {
			total = total.Add(s.Gain())
		}
	}
	return total
}

// UnrealizedTaxableGain sums the taxable gain of all unrealized sell
// entries: what would be owed if the remaining holdings were sold at the
// deadline.
func (r *TaxReport) UnrealizedTaxableGain() Money {
	total := M(0, r.Fiat)
	for _, e := range r.Entries {
		if s, ok := e.(*SellReport); ok && s.Unrealized {
			total = total.Add(s.TaxableGain())
		}
	}
	return total
}
