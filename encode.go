package cointax

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// feeJSON is the wire form of a fee.
type feeJSON struct {
	Coin   string          `json:"coin"`
	Change decimal.Decimal `json:"change"`
}

// opJSON is the wire form of an operation: one JSON object per line. All
// operation kinds share the same payload; Link carries the line number
// of the withdrawal a deposit was transferred from.
type opJSON struct {
	Op       OperationType   `json:"op"`
	Time     time.Time       `json:"time"`
	Platform string          `json:"platform"`
	Coin     string          `json:"coin"`
	Change   decimal.Decimal `json:"change"`
	Fees     []feeJSON       `json:"fees,omitempty"`
	Remark   string          `json:"remark,omitempty"`
	Link     int             `json:"link,omitempty"`
}

// DecodeOperations decodes operations from a stream of JSONL data,
// resolving deposit↔withdrawal transfer links by line number. The
// filename is only used for provenance in diagnostics.
func DecodeOperations(filename string, r io.Reader) ([]Operation, error) {
	var ops []Operation
	byLine := make(map[int]Operation)
	links := make(map[int]int) // deposit line -> withdrawal line

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		lineBytes := scanner.Bytes()
		if len(lineBytes) == 0 {
			continue // Skip empty lines
		}

		var js opJSON
		if err := json.Unmarshal(lineBytes, &js); err != nil {
			return nil, fmt.Errorf("could not decode operation in line %d: %w", line, err)
		}

		fees := make([]*Fee, 0, len(js.Fees))
		for _, f := range js.Fees {
			fees = append(fees, NewFee(f.Coin, Q(f.Change)))
		}

		var op Operation
		switch js.Op {
		case OpBuy:
			op = NewBuy(js.Platform, js.Time, js.Coin, Q(js.Change), fees...)
		case OpSell:
			op = NewSell(js.Platform, js.Time, js.Coin, Q(js.Change), fees...)
		case OpDeposit:
			dep := NewDeposit(js.Platform, js.Time, js.Coin, Q(js.Change), fees...)
			if js.Link != 0 {
				links[line] = js.Link
			}
			op = dep
		case OpWithdrawal:
			op = NewWithdrawal(js.Platform, js.Time, js.Coin, Q(js.Change), fees...)
		case OpCoinLend:
			op = NewCoinLend(js.Platform, js.Time, js.Coin, Q(js.Change))
		case OpCoinLendEnd:
			op = NewCoinLendEnd(js.Platform, js.Time, js.Coin, Q(js.Change))
		case OpCoinLendInterest:
			op = NewCoinLendInterest(js.Platform, js.Time, js.Coin, Q(js.Change))
		case OpStaking:
			op = NewStaking(js.Platform, js.Time, js.Coin, Q(js.Change))
		case OpStakingEnd:
			op = NewStakingEnd(js.Platform, js.Time, js.Coin, Q(js.Change))
		case OpStakingInterest:
			op = NewStakingInterest(js.Platform, js.Time, js.Coin, Q(js.Change))
		case OpAirdrop:
			op = NewAirdrop(js.Platform, js.Time, js.Coin, Q(js.Change))
		case OpCommission:
			op = NewCommission(js.Platform, js.Time, js.Coin, Q(js.Change))
		default:
			return nil, fmt.Errorf("%w: %q in line %d", ErrUnsupportedOperation, js.Op, line)
		}

		if base, ok := op.(interface {
			SetRemark(string)
			SetSource(string, int)
		}); ok {
			base.SetRemark(js.Remark)
			base.SetSource(filename, line)
		}

		byLine[line] = op
		ops = append(ops, op)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	for depositLine, withdrawalLine := range links {
		dep := byLine[depositLine].(*Deposit)
		w, ok := byLine[withdrawalLine].(*Withdrawal)
		if !ok {
			return nil, fmt.Errorf("deposit in line %d links to line %d, which is not a withdrawal", depositLine, withdrawalLine)
		}
		if err := LinkTransfer(w, dep); err != nil {
			return nil, fmt.Errorf("linking line %d to line %d: %w", depositLine, withdrawalLine, err)
		}
	}

	return ops, nil
}

// EncodeOperations writes operations as JSONL, one object per line, in
// the given order. Transfer links are encoded as the line number of the
// linked withdrawal.
func EncodeOperations(w io.Writer, ops []Operation) error {
	lineOf := make(map[Operation]int, len(ops))
	for i, op := range ops {
		lineOf[op] = i + 1
	}

	for _, op := range ops {
		fees := make([]feeJSON, 0, len(op.Fees()))
		for _, f := range op.Fees() {
			fees = append(fees, feeJSON{Coin: f.Coin(), Change: f.Change().Decimal()})
		}
		js := opJSON{
			Op:       op.What(),
			Time:     op.When(),
			Platform: op.Platform(),
			Coin:     op.Coin(),
			Change:   op.Change().Decimal(),
			Fees:     fees,
			Remark:   op.Remark(),
		}
		if dep, ok := op.(*Deposit); ok && dep.Link() != nil {
			line, ok := lineOf[dep.Link()]
			if !ok {
				return fmt.Errorf("deposit of %s %s at %s links to a withdrawal that is not among the encoded operations",
					dep.Change(), dep.Coin(), dep.When())
			}
			js.Link = line
		}
		b, err := json.Marshal(js)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\n", b); err != nil {
			return err
		}
	}
	return nil
}
