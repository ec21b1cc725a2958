// Package balance computes account balances from splits.
//
// SignedAmount is the only place the sign convention is decided: a split
// counts positively when its type matches the normal balance side of the
// account it is evaluated against. Every balance is a sum of SignedAmount
// over a filtered set of postings; currencies are never converted, and
// postings or sub-accounts in a foreign currency are either an error
// (own balance) or skipped (subtree and type aggregates).
//
// The Engine is pure and holds no locks. It may be used concurrently as long
// as the Chart and SplitSource it reads are not mutated meanwhile.
package balance
