// Package cointax computes taxable gains and income from a chronological
// ledger of cryptocurrency operations for a single tax year.
//
// The engine is a single deterministic pass: operations are sorted by
// time, each one is dispatched to the country-specific taxation rule,
// acquisitions are tracked in per-coin (or per platform and coin) balance
// queues, disposals are matched against those queues using the configured
// accounting principle (FIFO or LIFO), and every tax relevant event emits
// a report entry. At the tax deadline, the remaining balances are drained
// as synthetic sells to value the closing portfolio and report unrealized
// gains.
//
// All amounts are exact decimals; no floating point is used anywhere in
// the accounting path.
package cointax
