package cointax

import (
	"errors"
	"fmt"
	"log"
	"time"
)

// Config selects the tax period and the accounting and taxation rules
// for an evaluation run.
type Config struct {
	TaxYear   int
	Country   string // jurisdiction, e.g. "germany"
	Fiat      string // reporting fiat currency, e.g. "EUR"
	Principle Principle

	// MultiDepot keeps one balance per (platform, coin) instead of one
	// per coin across all platforms.
	MultiDepot bool

	// AirdropsAreGifts treats every airdrop as a gift instead of
	// miscellaneous income.
	AirdropsAreGifts bool

	// Location is the timezone defining the tax year boundaries.
	// Defaults to UTC.
	Location *time.Location

	// Now overrides the clock, for reproducible runs. The deadline is the
	// earlier of Now and the end of the tax year.
	Now time.Time
}

func (c Config) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// Deadline returns the evaluation deadline: the end of the tax year, or
// now if the year is still running.
func (c Config) Deadline() time.Time {
	now := c.Now
	if now.IsZero() {
		now = time.Now()
	}
	endOfYear := time.Date(c.TaxYear, time.December, 31, 23, 59, 59, 0, c.location())
	if now.Before(endOfYear) {
		return now
	}
	return endOfYear
}

// balanceKey identifies one balance queue. The platform is empty unless
// the multi depot accounting granularity is configured.
type balanceKey struct {
	platform string
	coin     string
}

// Taxman is the taxation state machine: a single pass over the sorted
// operation stream that maintains the balance queues, links transfers and
// accumulates the tax report.
type Taxman struct {
	cfg    Config
	rule   TaxationRule
	prices CostBasis

	balances  map[balanceKey]BalanceQueue
	order     []balanceKey // balances in first-use order, for deterministic liquidation
	transfers *transferLog

	entries   []TaxReportEntry
	portfolio *Snapshot
	warnings  []string
}

// New creates a taxation engine. The country and the accounting
// principle are resolved here so that unsupported selections fail before
// any operation is processed.
func New(cfg Config, prices CostBasis) (*Taxman, error) {
	rule, err := NewTaxationRule(cfg.Country)
	if err != nil {
		return nil, err
	}
	if cfg.Principle != FIFO && cfg.Principle != LIFO {
		return nil, fmt.Errorf("unknown accounting principle: %v", cfg.Principle)
	}
	if cfg.Fiat == "" {
		return nil, errors.New("reporting fiat currency is missing")
	}
	if prices == nil {
		return nil, errors.New("cost basis lookup is missing")
	}
	return &Taxman{
		cfg:       cfg,
		rule:      rule,
		prices:    prices,
		balances:  make(map[balanceKey]BalanceQueue),
		transfers: newTransferLog(),
		portfolio: newSnapshot(),
	}, nil
}

// warnf records a user visible warning and logs it.
func (t *Taxman) warnf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	t.warnings = append(t.warnings, msg)
	log.Printf("warning: %s", msg)
}

func (t *Taxman) inTaxYear(op Operation) bool {
	return op.When().In(t.cfg.location()).Year() == t.cfg.TaxYear
}

// balance returns the queue for (platform, coin), creating it on first
// use. With MultiDepot unset, all platforms share one queue per coin.
func (t *Taxman) balance(platform, coin string) BalanceQueue {
	key := balanceKey{coin: coin}
	if t.cfg.MultiDepot {
		key.platform = platform
	}
	if q, ok := t.balances[key]; ok {
		return q
	}
	q, err := NewBalanceQueue(coin, t.cfg.Principle)
	if err != nil {
		// principle was validated in New
		panic(err)
	}
	t.balances[key] = q
	t.order = append(t.order, key)
	return q
}

func (t *Taxman) addToBalance(op Operation) {
	t.balance(op.Platform(), op.Coin()).Add(op)
}

func (t *Taxman) removeFromBalance(op Operation) ([]SoldCoin, error) {
	sold, err := t.balance(op.Platform(), op.Coin()).Remove(op.Change())
	if err != nil {
		return nil, fmt.Errorf("removing %s %s (%s): %w", op.Change(), op.Coin(), op.SourceRef(), err)
	}
	return sold, nil
}

func (t *Taxman) removeFeesFromBalance(fees []*Fee) error {
	for _, fee := range fees {
		if _, err := t.balance(fee.Platform(), fee.Coin()).RemoveFee(fee.Change()); err != nil {
			return fmt.Errorf("removing fee of %s %s: %w", fee.Change(), fee.Coin(), err)
		}
	}
	return nil
}

// Evaluate runs the taxation over the given operations and returns the
// tax report. The input must not contain operations after the tax year;
// any fatal condition aborts the run without a partial report.
func (t *Taxman) Evaluate(ops []Operation) (*TaxReport, error) {
	for _, op := range ops {
		if op.When().In(t.cfg.location()).Year() > t.cfg.TaxYear {
			return nil, fmt.Errorf("%w: %s %s at %s (%s)",
				ErrPostDeadlineOperation, op.What(), op.Coin(), op.When(), op.SourceRef())
		}
	}

	sorted := make([]Operation, len(ops))
	copy(sorted, ops)
	SortOperations(sorted)

	for _, op := range sorted {
		if err := t.evaluateOperation(op); err != nil {
			return nil, err
		}
	}

	if err := t.liquidate(); err != nil {
		return nil, err
	}

	return &TaxReport{
		TaxYear:   t.cfg.TaxYear,
		Fiat:      t.cfg.Fiat,
		Deadline:  t.cfg.Deadline(),
		Entries:   t.entries,
		Portfolio: t.portfolio,
		Warnings:  t.warnings,
	}, nil
}

// evaluateOperation dispatches one operation. The type switch is the
// closed transition table: a kind outside it is a fatal error, because
// silently skipping a ledger event would corrupt the tax result.
func (t *Taxman) evaluateOperation(op Operation) error {
	switch op := op.(type) {
	case *CoinLend, *Staking:
		// Coins stay in balance and remain disposable. Marking them
		// unavailable for the duration of the lend/stake is an open gap.

	case *CoinLendEnd, *StakingEnd:
		// Symmetric no-op, see above.

	case *Buy:
		// The acquisition itself is not taxable; the buying fees matter
		// only later, as part of the acquisition cost of the sold coins.
		t.addToBalance(op)

	case *Sell:
		sold, err := t.removeFromBalance(op)
		if err != nil {
			return err
		}
		if err := t.removeFeesFromBalance(op.Fees()); err != nil {
			return err
		}
		if op.Coin() != t.cfg.Fiat && t.inTaxYear(op) {
			return t.evaluateSell(op, sold)
		}

	case *CoinLendInterest:
		t.addToBalance(op)
		if t.inTaxYear(op) {
			return t.evaluateIncome(op, "Interest", t.rule.InterestCategory(op.Coin() == t.cfg.Fiat))
		}

	case *StakingInterest:
		t.addToBalance(op)
		if t.inTaxYear(op) {
			return t.evaluateIncome(op, "Interest", t.rule.InterestCategory(false))
		}

	case *Airdrop:
		t.addToBalance(op)
		if t.inTaxYear(op) {
			return t.evaluateIncome(op, "Airdrop", t.rule.AirdropCategory(t.cfg.AirdropsAreGifts))
		}

	case *Commission:
		t.addToBalance(op)
		if t.inTaxYear(op) {
			return t.evaluateIncome(op, "Commission", t.rule.CommissionCategory())
		}

	case *Deposit:
		t.addToBalance(op)
		if op.Link() != nil {
			return t.evaluateTransfer(op)
		}

	case *Withdrawal:
		// Only remove the coins here; the consumed lots are kept so a later
		// sell on the destination platform can trace them back.
		sold, err := t.removeFromBalance(op)
		if err != nil {
			return err
		}
		t.transfers.record(op, sold)

	default:
		return fmt.Errorf("%w: %s (%s)", ErrUnsupportedOperation, op.What(), op.SourceRef())
	}
	return nil
}

// evaluateIncome emits the report entry for received coins (interest,
// airdrop, commission) valued at receipt.
func (t *Taxman) evaluateIncome(op Operation, event, category string) error {
	inFiat, err := t.prices.Cost(op)
	if err != nil {
		return fmt.Errorf("valuing %s of %s %s at %s: %w", event, op.Change(), op.Coin(), op.When(), err)
	}
	t.entries = append(t.entries, &IncomeReport{
		Event:        event,
		Platform:     op.Platform(),
		Coin:         op.Coin(),
		Amount:       op.Change(),
		Time:         op.When(),
		InFiat:       inFiat,
		TaxationType: category,
		Note:         op.Remark(),
	})
	return nil
}

// evaluateTransfer emits the informational entry for a linked deposit,
// pricing the implicit transfer fee (the withdrawn minus the deposited
// amount) at the deposit.
func (t *Taxman) evaluateTransfer(dep *Deposit) error {
	link := dep.Link()
	feeAmount := link.Change().Sub(dep.Change())
	feeInFiat := M(0, t.cfg.Fiat)
	if feeAmount.IsPositive() && dep.Change().IsPositive() {
		var err error
		feeInFiat, err = t.prices.PartialCost(dep, feeAmount.Div(dep.Change()))
		if err != nil {
			return fmt.Errorf("valuing transfer fee of %s %s at %s: %w", feeAmount, dep.Coin(), dep.When(), err)
		}
	}
	t.entries = append(t.entries, &TransferReport{
		ToPlatform:   dep.Platform(),
		FromPlatform: link.Platform(),
		Coin:         dep.Coin(),
		Amount:       dep.Change(),
		DepositTime:  dep.When(),
		WithdrawTime: link.When(),
		Fee:          FeeValue{Coin: dep.Coin(), Amount: feeAmount, InFiat: feeInFiat},
		Note:         dep.Remark(),
	})
	return nil
}

// evaluateSell evaluates every consumed lot of a realized sell,
// recursing through deposit links so that coins sold after an internal
// transfer keep their original acquisition date and cost.
func (t *Taxman) evaluateSell(op Operation, sold []SoldCoin) error {
	for _, sc := range sold {
		dep, isDeposit := sc.Op.(*Deposit)

		if isDeposit && dep.Link() != nil {
			link := dep.Link()
			// The difference between the two legs is the transfer fee, paid
			// in the withdrawn coin.
			transferFee := link.Change().Sub(dep.Change())
			soldProportion := sc.Sold.Div(dep.Change())
			soldTransferFee := transferFee.Mul(soldProportion)

			withdrawn, ok := t.transfers.partialWithdrawnCoins(link, soldProportion)
			if !ok {
				// Cross-platform clock skew can timestamp the deposit and sell
				// before the matching withdrawal. The provenance is then not
				// available yet; fall back to the deposit as acquisition
				// rather than dropping the coins from the report.
				t.warnf("sold %s %s on %s before the linked withdrawal from %s was processed: "+
					"correct taxation cannot be guaranteed, assuming the coins were acquired at the deposit",
					sc.Sold, dep.Coin(), dep.Platform(), link.Platform())
				if err := t.evaluateSoldCoin(op, sc, M(0, t.cfg.Fiat), false); err != nil {
					return err
				}
				continue
			}

			for _, wsc := range withdrawn {
				wscProportion := wsc.Sold.Div(link.Change())
				wscTransferFee := soldTransferFee.Mul(wscProportion)

				// Whether withdrawal/deposit fees reduce the taxable gain is
				// jurisdiction dependent and unresolved; they are surfaced
				// but not counted.
				additionalFee := M(0, t.cfg.Fiat)
				if !wscTransferFee.IsZero() {
					t.warnf("transfer fee of %s %s for coins sold at %s is not included in the taxable gain",
						wscTransferFee, dep.Coin(), op.When())
				}
				if err := t.evaluateSoldCoin(op, wsc, additionalFee, false); err != nil {
					return err
				}
			}
			continue
		}

		if isDeposit {
			t.warnf("sold %s %s deposited from an unknown source onto %s (%s): "+
				"correct taxation cannot be guaranteed, assuming the coins were acquired at the deposit",
				sc.Sold, dep.Coin(), dep.Platform(), dep.SourceRef())
		}
		if err := t.evaluateSoldCoin(op, sc, M(0, t.cfg.Fiat), false); err != nil {
			return err
		}
	}
	return nil
}

// evaluateFee prorates one fee of a disposal and values it in fiat.
func (t *Taxman) evaluateFee(fee *Fee, proportion Quantity) (FeeValue, error) {
	inFiat, err := t.prices.PartialCost(fee, proportion)
	if err != nil {
		return FeeValue{}, fmt.Errorf("valuing fee of %s %s at %s: %w", fee.Change(), fee.Coin(), fee.When(), err)
	}
	return FeeValue{
		Coin:   fee.Coin(),
		Amount: fee.Change().Mul(proportion),
		InFiat: inFiat,
	}, nil
}

// evaluateSoldCoin evaluates one consumed lot of a disposal and emits its
// sell report entry. This is the single evaluation path for realized
// sells and for the synthetic sells of the deadline liquidation.
//
// additionalFee is an extra acquisition cost attributed by the caller
// (reserved for transfer fee attribution).
func (t *Taxman) evaluateSoldCoin(op Operation, sc SoldCoin, additionalFee Money, unrealized bool) error {
	// Share the fees and the sell value proportionally to the coins sold.
	proportion := sc.Sold.Div(op.Change())

	var firstFee, secondFee FeeValue
	fees := op.Fees()
	if len(fees) > 2 {
		return fmt.Errorf("%w: %d fee coins on %s at %s", ErrUnsupportedFeeStructure, len(fees), op.Coin(), op.When())
	}
	var err error
	if len(fees) >= 1 {
		if firstFee, err = t.evaluateFee(fees[0], proportion); err != nil {
			return err
		}
	}
	if len(fees) == 2 {
		if secondFee, err = t.evaluateFee(fees[1], proportion); err != nil {
			return err
		}
	}

	// The fees paid when acquiring the lot add to its cost basis, at the
	// consumed fraction of the lot.
	buyingFees := M(0, t.cfg.Fiat)
	lotProportion := sc.Sold.Div(sc.Op.Change())
	for _, f := range sc.Op.Fees() {
		inFiat, err := t.prices.PartialCost(f, lotProportion)
		if err != nil {
			return fmt.Errorf("valuing acquisition fee of %s %s at %s: %w", f.Change(), f.Coin(), f.When(), err)
		}
		buyingFees = buyingFees.Add(inFiat)
	}

	buyCost, err := t.prices.PartialCost(sc.Op, lotProportion)
	if err != nil {
		return fmt.Errorf("valuing acquisition of %s %s at %s: %w", sc.Sold, sc.Op.Coin(), sc.Op.When(), err)
	}
	buyValue := buyCost.Add(buyingFees).Add(additionalFee)

	sellValue, err := t.prices.PartialCost(op, proportion)
	if err != nil {
		if !unrealized || !errors.Is(err, ErrPriceUnavailable) {
			// A realized gain must never be silently zeroed.
			return fmt.Errorf("valuing sell of %s %s at %s: %w", sc.Sold, op.Coin(), op.When(), err)
		}
		t.warnf("no price for %s on %s at the deadline: unrealized sell value assumed zero", op.Coin(), op.Platform())
		sellValue = M(0, t.cfg.Fiat)
	}

	t.entries = append(t.entries, &SellReport{
		SellPlatform: op.Platform(),
		BuyPlatform:  sc.Op.Platform(),
		Coin:         op.Coin(),
		Amount:       sc.Sold,
		SellTime:     op.When(),
		BuyTime:      sc.Op.When(),
		FirstFee:     firstFee,
		SecondFee:    secondFee,
		SellValue:    sellValue,
		BuyValue:     buyValue,
		Taxable:      t.rule.IsTaxable(sc.Op.When(), op.When()),
		TaxationType: t.rule.SellCategory(),
		Note:         op.Remark(),
		Unrealized:   unrealized,
	})
	return nil
}

// liquidate drains every balance at the deadline: each remaining lot
// feeds the portfolio snapshot and is evaluated as a synthetic,
// unrealized sell dated at the deadline.
func (t *Taxman) liquidate() error {
	deadline := t.cfg.Deadline()
	for _, key := range t.order {
		queue := t.balances[key]
		if err := queue.SanityCheck(); err != nil {
			return err
		}
		for _, sc := range queue.RemoveAll() {
			t.portfolio.add(sc.Op.Platform(), sc.Op.Coin(), sc.Sold)

			unrealized := NewSell(sc.Op.Platform(), deadline, sc.Op.Coin(), sc.Sold)
			if err := t.evaluateSoldCoin(unrealized, sc, M(0, t.cfg.Fiat), true); err != nil {
				return err
			}
		}
	}
	return nil
}
