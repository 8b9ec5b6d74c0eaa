package cointax

import "sort"

// Snapshot is the closing portfolio at the tax deadline: remaining coin
// amounts per platform. Lookups of unknown keys return a zero quantity.
type Snapshot struct {
	holdings map[string]map[string]Quantity
}

func newSnapshot() *Snapshot {
	return &Snapshot{holdings: make(map[string]map[string]Quantity)}
}

func (s *Snapshot) add(platform, coin string, amount Quantity) {
	coins, ok := s.holdings[platform]
	if !ok {
		coins = make(map[string]Quantity)
		s.holdings[platform] = coins
	}
	coins[coin] = coins[coin].Add(amount)
}

// Amount returns the remaining amount of coin on platform, zero if none.
func (s *Snapshot) Amount(platform, coin string) Quantity {
	return s.holdings[platform][coin]
}

// Platforms returns all platforms holding coins, sorted.
func (s *Snapshot) Platforms() []string {
	platforms := make([]string, 0, len(s.holdings))
	for p := range s.holdings {
		platforms = append(platforms, p)
	}
	sort.Strings(platforms)
	return platforms
}

// Coins returns the coins held on platform, sorted.
func (s *Snapshot) Coins(platform string) []string {
	coins := make([]string, 0, len(s.holdings[platform]))
	for c := range s.holdings[platform] {
		coins = append(coins, c)
	}
	sort.Strings(coins)
	return coins
}
