package model

import "errors"

var (
	// ErrCyclicHierarchy is returned when a parent assignment would make an
	// account its own ancestor.
	ErrCyclicHierarchy = errors.New("cyclic account hierarchy")
	// ErrTransactionEmpty is returned when a transaction has no real splits.
	ErrTransactionEmpty = errors.New("transaction has no splits")
	// ErrHierarchyTooDeep is returned when a hierarchy walk exceeds the depth cap.
	ErrHierarchyTooDeep = errors.New("account hierarchy too deep")
	// ErrUnknownEntity is returned when an id is not present in the graph or store.
	ErrUnknownEntity = errors.New("unknown entity")
	// ErrPlaceholderAccount is returned when a split targets a placeholder account.
	ErrPlaceholderAccount = errors.New("placeholder account cannot own splits")
	// ErrUnbalanced is returned when a transaction's splits do not net to zero.
	ErrUnbalanced = errors.New("transaction is not balanced")
)
