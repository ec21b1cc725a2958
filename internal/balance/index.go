package balance

import (
	"time"

	"github.com/cleared-dev/pocketbook/internal/model"
)

// Posting is a split together with its transaction's timestamp.
type Posting struct {
	Split     model.Split
	Timestamp time.Time
}

// Index is an in-memory snapshot of postings grouped by account.
// It satisfies SplitSource.
type Index struct {
	byAccount map[string][]Posting
}

// NewIndex snapshots the splits of txns.
func NewIndex(txns ...*model.Transaction) *Index {
	ix := &Index{byAccount: make(map[string][]Posting)}
	for _, txn := range txns {
		for _, s := range txn.Splits() {
			ix.Add(Posting{Split: s, Timestamp: txn.Timestamp})
		}
	}
	return ix
}

// Add appends postings to the snapshot.
func (ix *Index) Add(postings ...Posting) {
	for _, p := range postings {
		ix.byAccount[p.Split.AccountID] = append(ix.byAccount[p.Split.AccountID], p)
	}
}

// SplitsForAccount returns the postings of accountID inside w.
func (ix *Index) SplitsForAccount(accountID string, w Window) ([]Posting, error) {
	var out []Posting
	for _, p := range ix.byAccount[accountID] {
		if w.Contains(p.Timestamp) {
			out = append(out, p)
		}
	}
	return out, nil
}
