package cointax

// CostBasis looks up the fiat value of coin flows at their time. It is
// the boundary to historical price data; PriceDB is the shipped
// implementation.
type CostBasis interface {
	// Cost returns the fiat value of the full change of p at its time.
	// Fails with ErrPriceUnavailable when no price can be determined.
	Cost(p Priceable) (Money, error)
	// PartialCost returns the fiat value of the given proportion
	// (0 < proportion <= 1) of the change of p at its time.
	PartialCost(p Priceable, proportion Quantity) (Money, error)
}
