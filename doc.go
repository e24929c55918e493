// Package cgt computes UK capital-gains tax positions for a portfolio of
// trades, corporate actions, dividends and derivatives.
//
// The core of the package is the trade-matching and cost-basis engine: it
// pairs disposals with acquisitions under the statutory ordering rules
// (same-day, 30-day bed-and-breakfast, short-cover, Section 104 pooling),
// maintains a rolling average-cost Section 104 pool per asset, applies
// corporate actions (splits, takeovers, spin-offs, partner transfers,
// returns of capital, excess reportable income), resolves option and
// future lifecycles (exercise, assignment, expiry, cash settlement), and
// stamps every match with a taxability verdict derived from a residency
// timeline.
//
// The engine consumes normalized TaxEvent records with amounts already
// converted to the base currency (GBP) alongside the originating amount,
// and produces calculation lots carrying a full match history, which the
// renderer and cmd packages project into per-tax-year reports.
package cgt
