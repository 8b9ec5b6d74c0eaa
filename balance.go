package cointax

import "fmt"

// lot is a single acquisition with a remaining, disposable amount. It is
// owned exclusively by one balance queue and removed once fully consumed.
type lot struct {
	op   Operation // the acquiring operation
	left Quantity  // remaining amount
}

// SoldCoin is a disposal's match against one acquisition lot: the
// operation that acquired the coins and the amount consumed from it.
type SoldCoin struct {
	Op   Operation
	Sold Quantity
}

// BalanceQueue tracks the acquisition lots of one coin and matches
// disposals against them in accounting order.
type BalanceQueue interface {
	Coin() string
	// Add appends a new lot for the full change of the acquiring operation.
	Add(op Operation)
	// Remove consumes exactly amount from the queue in accounting order and
	// returns the consumed lots. It fails with ErrInsufficientBalance,
	// without mutating the queue, if the available total is too small.
	Remove(amount Quantity) ([]SoldCoin, error)
	// RemoveFee behaves like Remove but tolerates a zero amount, returning
	// no consumed lots (fees are optional).
	RemoveFee(amount Quantity) ([]SoldCoin, error)
	// RemoveAll drains every remaining lot. Used at deadline liquidation.
	RemoveAll() []SoldCoin
	// Total returns the sum of all remaining lot amounts.
	Total() Quantity
	// SanityCheck fails with ErrNegativeBalance if any lot carries a
	// negative remaining amount.
	SanityCheck() error
}

// NewBalanceQueue returns a balance queue for coin consuming lots in the
// order defined by the accounting principle.
func NewBalanceQueue(coin string, principle Principle) (BalanceQueue, error) {
	switch principle {
	case FIFO:
		return &fifoQueue{baseQueue{coin: coin}}, nil
	case LIFO:
		return &lifoQueue{baseQueue{coin: coin}}, nil
	default:
		return nil, fmt.Errorf("unknown accounting principle: %v", principle)
	}
}

// baseQueue implements everything except the consumption order.
type baseQueue struct {
	coin string
	lots []*lot
}

func (q *baseQueue) Coin() string { return q.coin }

func (q *baseQueue) Add(op Operation) {
	q.lots = append(q.lots, &lot{op: op, left: op.Change()})
}

func (q *baseQueue) Total() Quantity {
	total := Q(0)
	for _, l := range q.lots {
		total = total.Add(l.left)
	}
	return total
}

func (q *baseQueue) SanityCheck() error {
	for _, l := range q.lots {
		if l.left.IsNegative() {
			return fmt.Errorf("%w: lot of %s acquired at %s has %s left",
				ErrNegativeBalance, q.coin, l.op.When(), l.left)
		}
	}
	return nil
}

func (q *baseQueue) RemoveAll() []SoldCoin {
	sold := make([]SoldCoin, 0, len(q.lots))
	for _, l := range q.lots {
		if l.left.IsZero() {
			continue
		}
		sold = append(sold, SoldCoin{Op: l.op, Sold: l.left})
	}
	q.lots = nil
	return sold
}

// remove consumes amount lot by lot, newest first when lifo is set. The
// availability check runs before any mutation so a failed removal leaves
// the queue untouched.
func (q *baseQueue) remove(amount Quantity, lifo bool) ([]SoldCoin, error) {
	if amount.IsNegative() {
		return nil, fmt.Errorf("cannot remove a negative amount of %s: %s", q.coin, amount)
	}
	if q.Total().LessThan(amount) {
		return nil, fmt.Errorf("%w: tried to remove %s %s but only %s available",
			ErrInsufficientBalance, amount, q.coin, q.Total())
	}

	var sold []SoldCoin
	for !amount.IsZero() {
		i := 0
		if lifo {
			i = len(q.lots) - 1
		}
		l := q.lots[i]
		if l.left.IsZero() {
			// empty lots carry no value, drop them
			q.lots = append(q.lots[:i], q.lots[i+1:]...)
			continue
		}
		take := l.left.Min(amount)
		l.left = l.left.Sub(take)
		amount = amount.Sub(take)
		sold = append(sold, SoldCoin{Op: l.op, Sold: take})
		if l.left.IsZero() {
			q.lots = append(q.lots[:i], q.lots[i+1:]...)
		}
	}
	return sold, nil
}

func (q *baseQueue) removeFee(amount Quantity, lifo bool) ([]SoldCoin, error) {
	if amount.IsZero() {
		return nil, nil
	}
	return q.remove(amount, lifo)
}

// fifoQueue consumes the oldest lot first.
type fifoQueue struct{ baseQueue }

func (q *fifoQueue) Remove(amount Quantity) ([]SoldCoin, error)    { return q.remove(amount, false) }
func (q *fifoQueue) RemoveFee(amount Quantity) ([]SoldCoin, error) { return q.removeFee(amount, false) }

// lifoQueue consumes the newest lot first.
type lifoQueue struct{ baseQueue }

func (q *lifoQueue) Remove(amount Quantity) ([]SoldCoin, error)    { return q.remove(amount, true) }
func (q *lifoQueue) RemoveFee(amount Quantity) ([]SoldCoin, error) { return q.removeFee(amount, true) }
