package cointax

// transferLog records, for every withdrawal, the lots it consumed. A sell
// on the destination platform of a linked transfer queries this table to
// trace deposited coins back to their original acquisition, instead of
// mutating the withdrawal record itself.
type transferLog struct {
	withdrawn map[*Withdrawal][]SoldCoin
}

func newTransferLog() *transferLog {
	return &transferLog{withdrawn: make(map[*Withdrawal][]SoldCoin)}
}

// record stores the lots a withdrawal consumed.
func (t *transferLog) record(w *Withdrawal, coins []SoldCoin) {
	t.withdrawn[w] = coins
}

// partialWithdrawnCoins returns the lots consumed by w, scaled to the
// given proportion of the withdrawal. A later sell of a fraction of the
// deposited coins maps to the same fraction of every original lot. The
// second return reports whether w has been recorded at all.
func (t *transferLog) partialWithdrawnCoins(w *Withdrawal, proportion Quantity) ([]SoldCoin, bool) {
	coins, ok := t.withdrawn[w]
	if !ok {
		return nil, false
	}
	partial := make([]SoldCoin, 0, len(coins))
	for _, sc := range coins {
		partial = append(partial, SoldCoin{Op: sc.Op, Sold: sc.Sold.Mul(proportion)})
	}
	return partial, true
}
