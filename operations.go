package cointax

import (
	"fmt"
	"slices"
	"time"
)

// OperationType is a typed string identifying a ledger operation kind.
type OperationType string

// Operation kinds recorded in a ledger.
const (
	OpBuy              OperationType = "buy"
	OpSell             OperationType = "sell"
	OpDeposit          OperationType = "deposit"
	OpWithdrawal       OperationType = "withdrawal"
	OpCoinLend         OperationType = "coin-lend"
	OpCoinLendEnd      OperationType = "coin-lend-end"
	OpCoinLendInterest OperationType = "coin-lend-interest"
	OpStaking          OperationType = "staking"
	OpStakingEnd       OperationType = "staking-end"
	OpStakingInterest  OperationType = "staking-interest"
	OpAirdrop          OperationType = "airdrop"
	OpCommission       OperationType = "commission"
)

// Priceable is any coin flow that can be valued in fiat at a point in
// time: operations and their fees.
type Priceable interface {
	Platform() string
	Coin() string
	Change() Quantity
	When() time.Time
}

// Operation defines the common interface for all kinds of ledger events
// consumed by the taxation engine.
type Operation interface {
	Priceable
	What() OperationType // What returns the operation kind (e.g. "buy", "sell").
	Fees() []*Fee
	Remark() string
	SourceRef() string // SourceRef returns the "file:line" provenance for diagnostics.
}

// Fee is a transaction fee attached to an operation, denominated in its
// own coin. Its platform and time are those of the parent operation.
type Fee struct {
	coin     string
	change   Quantity
	platform string
	time     time.Time
}

// NewFee creates a fee of the given coin and amount. It is bound to the
// platform and time of the operation it is attached to.
func NewFee(coin string, change Quantity) *Fee {
	return &Fee{coin: coin, change: change}
}

func (f *Fee) Coin() string     { return f.coin }
func (f *Fee) Change() Quantity { return f.change }
func (f *Fee) Platform() string { return f.platform }
func (f *Fee) When() time.Time  { return f.time }

// baseOp carries the payload common to every operation kind.
type baseOp struct {
	kind     OperationType
	time     time.Time
	platform string
	coin     string
	change   Quantity
	fees     []*Fee
	remark   string
	file     string
	line     int
}

func newBaseOp(kind OperationType, platform string, t time.Time, coin string, change Quantity, fees []*Fee) baseOp {
	for _, f := range fees {
		f.platform = platform
		f.time = t
	}
	return baseOp{kind: kind, time: t, platform: platform, coin: coin, change: change, fees: fees}
}

func (o *baseOp) What() OperationType { return o.kind }
func (o *baseOp) When() time.Time     { return o.time }
func (o *baseOp) Platform() string    { return o.platform }
func (o *baseOp) Coin() string        { return o.coin }
func (o *baseOp) Change() Quantity    { return o.change }
func (o *baseOp) Fees() []*Fee        { return o.fees }
func (o *baseOp) Remark() string      { return o.remark }

// SetRemark attaches a free-text note to the operation.
func (o *baseOp) SetRemark(remark string) { o.remark = remark }

// SetSource records where the operation came from (export file and line).
func (o *baseOp) SetSource(file string, line int) { o.file, o.line = file, line }

func (o *baseOp) SourceRef() string {
	if o.file == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", o.file, o.line)
}

// Buy is an acquisition of coins against fiat or another asset.
type Buy struct{ baseOp }

// Sell is a disposal of coins. Disposals are matched against acquisition
// lots by the balance queues.
type Sell struct{ baseOp }

// Deposit records coins arriving on a platform. If the deposit is one leg
// of an internal transfer, Link points at the matching withdrawal.
type Deposit struct {
	baseOp
	link *Withdrawal
}

// Withdrawal records coins leaving a platform. If the withdrawal is one
// leg of an internal transfer, Link points at the matching deposit.
type Withdrawal struct {
	baseOp
	link *Deposit
}

// CoinLend marks coins as lent out. Currently a no-op for taxation: the
// coins stay in balance and remain disposable.
type CoinLend struct{ baseOp }

// CoinLendEnd marks lent coins as returned. Currently a no-op, symmetric
// to CoinLend.
type CoinLendEnd struct{ baseOp }

// CoinLendInterest is interest received for lending coins.
type CoinLendInterest struct{ baseOp }

// Staking marks coins as staked. Currently a no-op like CoinLend.
type Staking struct{ baseOp }

// StakingEnd marks staked coins as unstaked. Currently a no-op.
type StakingEnd struct{ baseOp }

// StakingInterest is a staking reward.
type StakingInterest struct{ baseOp }

// Airdrop is a receipt of coins without a purchase.
type Airdrop struct{ baseOp }

// Commission is a bonus received from a platform, e.g. a referral reward.
type Commission struct{ baseOp }

func NewBuy(platform string, t time.Time, coin string, change Quantity, fees ...*Fee) *Buy {
	return &Buy{newBaseOp(OpBuy, platform, t, coin, change, fees)}
}

func NewSell(platform string, t time.Time, coin string, change Quantity, fees ...*Fee) *Sell {
	return &Sell{newBaseOp(OpSell, platform, t, coin, change, fees)}
}

func NewDeposit(platform string, t time.Time, coin string, change Quantity, fees ...*Fee) *Deposit {
	return &Deposit{baseOp: newBaseOp(OpDeposit, platform, t, coin, change, fees)}
}

func NewWithdrawal(platform string, t time.Time, coin string, change Quantity, fees ...*Fee) *Withdrawal {
	return &Withdrawal{baseOp: newBaseOp(OpWithdrawal, platform, t, coin, change, fees)}
}

func NewCoinLend(platform string, t time.Time, coin string, change Quantity) *CoinLend {
	return &CoinLend{newBaseOp(OpCoinLend, platform, t, coin, change, nil)}
}

func NewCoinLendEnd(platform string, t time.Time, coin string, change Quantity) *CoinLendEnd {
	return &CoinLendEnd{newBaseOp(OpCoinLendEnd, platform, t, coin, change, nil)}
}

func NewCoinLendInterest(platform string, t time.Time, coin string, change Quantity) *CoinLendInterest {
	return &CoinLendInterest{newBaseOp(OpCoinLendInterest, platform, t, coin, change, nil)}
}

func NewStaking(platform string, t time.Time, coin string, change Quantity) *Staking {
	return &Staking{newBaseOp(OpStaking, platform, t, coin, change, nil)}
}

func NewStakingEnd(platform string, t time.Time, coin string, change Quantity) *StakingEnd {
	return &StakingEnd{newBaseOp(OpStakingEnd, platform, t, coin, change, nil)}
}

func NewStakingInterest(platform string, t time.Time, coin string, change Quantity) *StakingInterest {
	return &StakingInterest{newBaseOp(OpStakingInterest, platform, t, coin, change, nil)}
}

func NewAirdrop(platform string, t time.Time, coin string, change Quantity) *Airdrop {
	return &Airdrop{newBaseOp(OpAirdrop, platform, t, coin, change, nil)}
}

func NewCommission(platform string, t time.Time, coin string, change Quantity) *Commission {
	return &Commission{newBaseOp(OpCommission, platform, t, coin, change, nil)}
}

// Link returns the withdrawal this deposit was transferred from, or nil.
func (d *Deposit) Link() *Withdrawal { return d.link }

// Link returns the deposit this withdrawal was transferred to, or nil.
func (w *Withdrawal) Link() *Deposit { return w.link }

// LinkTransfer pairs a withdrawal with the deposit of the same coins on
// the destination platform. The withdrawn amount must cover the deposited
// amount; the difference is the implicit transfer fee, paid in the
// withdrawn coin.
func LinkTransfer(w *Withdrawal, d *Deposit) error {
	if w.Coin() != d.Coin() {
		return fmt.Errorf("cannot link transfer: withdrawal coin %q != deposit coin %q", w.Coin(), d.Coin())
	}
	if w.Change().LessThan(d.Change()) {
		return fmt.Errorf("cannot link transfer of %s: withdrawal change %s is less than deposit change %s",
			w.Coin(), w.Change(), d.Change())
	}
	w.link = d
	d.link = w
	return nil
}

// SortOperations sorts operations chronologically, in place. The sort is
// stable: operations sharing a timestamp keep their relative order.
func SortOperations(ops []Operation) {
	slices.SortStableFunc(ops, func(a, b Operation) int {
		return a.When().Compare(b.When())
	})
}
