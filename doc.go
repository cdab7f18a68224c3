// Package ghostimport provides the shared vocabulary of the gfi tool, which
// converts brokerage transaction exports into Ghostfolio activity imports.
//
// The hard part of such a conversion is not the CSV mapping, it is finding,
// for every security a broker mentions, the symbol that the quote provider
// used by Ghostfolio knows. That work is split between:
//   - Query normalization: a SymbolQuery (ISIN, ticker, exchange, currency)
//     is reduced to a deterministic CacheKey.
//   - The cache package: a durable store of resolved symbols and known
//     misses (tombstones), loaded at start and saved at the end of a run.
//   - The lookup package: provider searches with matching heuristics,
//     pacing and retries.
//   - The resolver package: the orchestration of the three above.
//
// This package also holds the currency aliasing table used at the boundary
// between converters and the resolver, and the Ghostfolio export model.
package ghostimport
