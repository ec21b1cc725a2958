package accounts

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cleared-dev/pocketbook/internal/id"
	"github.com/cleared-dev/pocketbook/internal/model"
	"github.com/cleared-dev/pocketbook/internal/money"
)

// DefaultMaxDepth caps every walk over the hierarchy.
const DefaultMaxDepth = 128

// ImbalancePrefix starts the name of every per-currency imbalance account.
const ImbalancePrefix = "Imbalance-"

// Service is an in-memory account forest. It is not safe for concurrent
// mutation; readers may share it once it is no longer written.
type Service struct {
	byID     map[string]model.Account
	order    []string
	children map[string][]string
	maxDepth int
}

// Option configures a Service.
type Option func(*Service)

// WithMaxDepth overrides DefaultMaxDepth.
func WithMaxDepth(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxDepth = n
		}
	}
}

// NewService builds a Service from a slice of accounts in any order.
// It rejects unknown parents and cycles.
func NewService(accounts []model.Account, opts ...Option) (*Service, error) {
	s := &Service{
		byID:     make(map[string]model.Account, len(accounts)),
		children: make(map[string][]string),
		maxDepth: DefaultMaxDepth,
	}
	for _, o := range opts {
		o(s)
	}
	for _, a := range accounts {
		if err := validAccount(a); err != nil {
			return nil, err
		}
		if _, dup := s.byID[a.ID]; dup {
			return nil, fmt.Errorf("duplicate account %s", a.ID)
		}
		a.Currency = money.Code(a.Currency)
		s.byID[a.ID] = a
		s.order = append(s.order, a.ID)
	}
	for _, aid := range s.order {
		a := s.byID[aid]
		if a.ParentID == "" {
			continue
		}
		if _, ok := s.byID[a.ParentID]; !ok {
			return nil, fmt.Errorf("%w: parent %s of account %s", model.ErrUnknownEntity, a.ParentID, a.ID)
		}
		s.children[a.ParentID] = append(s.children[a.ParentID], a.ID)
	}
	// Overly deep charts still load; walks over them report the depth.
	if err := s.checkForest(); err != nil {
		return nil, err
	}
	return s, nil
}

// checkForest follows every parent chain once, independent of maxDepth.
func (s *Service) checkForest() error {
	done := make(map[string]bool, len(s.order))
	for _, start := range s.order {
		path := make(map[string]bool)
		for cur := start; cur != "" && !done[cur]; cur = s.byID[cur].ParentID {
			if path[cur] {
				return fmt.Errorf("%w: at account %s", model.ErrCyclicHierarchy, cur)
			}
			path[cur] = true
		}
		for aid := range path {
			done[aid] = true
		}
	}
	return nil
}

func validAccount(a model.Account) error {
	if a.ID == "" {
		return fmt.Errorf("account %q has no id", a.Name)
	}
	if !a.Type.Valid() {
		return fmt.Errorf("account %s: unknown type %q", a.ID, a.Type)
	}
	if money.Code(a.Currency) == "" {
		return fmt.Errorf("account %s: missing currency", a.ID)
	}
	if a.ParentID == a.ID {
		return fmt.Errorf("%w: account %s is its own parent", model.ErrCyclicHierarchy, a.ID)
	}
	return nil
}

// MaxDepth returns the walk cap.
func (s *Service) MaxDepth() int { return s.maxDepth }

// All returns all accounts in insertion order.
func (s *Service) All() []model.Account {
	out := make([]model.Account, 0, len(s.order))
	for _, aid := range s.order {
		out = append(out, s.byID[aid])
	}
	return out
}

// Visible returns all accounts except hidden ones.
func (s *Service) Visible() []model.Account {
	var out []model.Account
	for _, aid := range s.order {
		if a := s.byID[aid]; !a.Hidden {
			out = append(out, a)
		}
	}
	return out
}

// Get returns an account by ID.
func (s *Service) Get(accountID string) (model.Account, bool) {
	a, ok := s.byID[accountID]
	return a, ok
}

// Exists reports whether an account ID exists.
func (s *Service) Exists(accountID string) bool {
	_, ok := s.byID[accountID]
	return ok
}

// ByType returns all accounts of the given type.
func (s *Service) ByType(accountType model.AccountType) []model.Account {
	var result []model.Account
	for _, aid := range s.order {
		if a := s.byID[aid]; a.Type == accountType {
			result = append(result, a)
		}
	}
	return result
}

// Children returns the direct children of an account.
func (s *Service) Children(accountID string) []model.Account {
	kids := s.children[accountID]
	out := make([]model.Account, 0, len(kids))
	for _, k := range kids {
		out = append(out, s.byID[k])
	}
	return out
}

// Create adds a new top-level account with a generated identifier.
func (s *Service) Create(name string, accountType model.AccountType, currency string) (model.Account, error) {
	a := model.Account{
		ID:       id.New(),
		Name:     name,
		Type:     accountType,
		Currency: currency,
	}
	if err := s.Add(a); err != nil {
		return model.Account{}, err
	}
	return s.byID[a.ID], nil
}

// Add inserts an account with a caller-chosen identifier.
func (s *Service) Add(a model.Account) error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("account name is empty")
	}
	if err := validAccount(a); err != nil {
		return err
	}
	if s.Exists(a.ID) {
		return fmt.Errorf("duplicate account %s", a.ID)
	}
	if a.ParentID != "" && !s.Exists(a.ParentID) {
		return fmt.Errorf("%w: parent %s", model.ErrUnknownEntity, a.ParentID)
	}
	if a.DefaultTransferID != "" && !s.Exists(a.DefaultTransferID) {
		return fmt.Errorf("%w: default transfer account %s", model.ErrUnknownEntity, a.DefaultTransferID)
	}
	a.Currency = money.Code(a.Currency)
	s.byID[a.ID] = a
	s.order = append(s.order, a.ID)
	if a.ParentID != "" {
		s.children[a.ParentID] = append(s.children[a.ParentID], a.ID)
	}
	return nil
}

// Update replaces an account's attributes. A parent change is checked like SetParent.
func (s *Service) Update(a model.Account) error {
	old, ok := s.byID[a.ID]
	if !ok {
		return fmt.Errorf("%w: account %s", model.ErrUnknownEntity, a.ID)
	}
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("account name is empty")
	}
	if err := validAccount(a); err != nil {
		return err
	}
	if a.DefaultTransferID != "" && !s.Exists(a.DefaultTransferID) {
		return fmt.Errorf("%w: default transfer account %s", model.ErrUnknownEntity, a.DefaultTransferID)
	}
	if a.ParentID != old.ParentID {
		if err := s.checkParent(a.ID, a.ParentID); err != nil {
			return err
		}
		s.relink(a.ID, old.ParentID, a.ParentID)
	}
	a.Currency = money.Code(a.Currency)
	s.byID[a.ID] = a
	return nil
}

// SetParent moves childID under parentID; an empty parentID makes it top-level.
// It fails with ErrCyclicHierarchy if parentID is childID or one of its
// descendants, and leaves the hierarchy unchanged on any error.
func (s *Service) SetParent(childID, parentID string) error {
	child, ok := s.byID[childID]
	if !ok {
		return fmt.Errorf("%w: account %s", model.ErrUnknownEntity, childID)
	}
	if err := s.checkParent(childID, parentID); err != nil {
		return err
	}
	s.relink(childID, child.ParentID, parentID)
	child.ParentID = parentID
	s.byID[childID] = child
	return nil
}

func (s *Service) checkParent(childID, parentID string) error {
	if parentID == "" {
		return nil
	}
	if !s.Exists(parentID) {
		return fmt.Errorf("%w: parent %s", model.ErrUnknownEntity, parentID)
	}
	if parentID == childID {
		return fmt.Errorf("%w: %s cannot be its own parent", model.ErrCyclicHierarchy, childID)
	}
	below, err := s.descendantOf(parentID, childID)
	if err != nil {
		return err
	}
	if below {
		return fmt.Errorf("%w: %s is a descendant of %s", model.ErrCyclicHierarchy, parentID, childID)
	}
	return nil
}

func (s *Service) relink(childID, oldParent, newParent string) {
	if oldParent != "" {
		kids := s.children[oldParent]
		if i := slices.Index(kids, childID); i >= 0 {
			s.children[oldParent] = slices.Delete(kids, i, i+1)
		}
	}
	if newParent != "" {
		s.children[newParent] = append(s.children[newParent], childID)
	}
}

// IsDescendantOf reports whether a lies strictly below b. It is irreflexive.
func (s *Service) IsDescendantOf(a, b string) bool {
	below, err := s.descendantOf(a, b)
	return err == nil && below
}

func (s *Service) descendantOf(a, b string) (bool, error) {
	ancestors, err := s.Ancestors(a)
	if err != nil {
		return false, err
	}
	return slices.Contains(ancestors, b), nil
}

// Ancestors returns the parent chain of an account, nearest first.
func (s *Service) Ancestors(accountID string) ([]string, error) {
	a, ok := s.byID[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: account %s", model.ErrUnknownEntity, accountID)
	}
	var chain []string
	for a.ParentID != "" {
		if a.ParentID == accountID || slices.Contains(chain, a.ParentID) {
			return nil, fmt.Errorf("%w: at account %s", model.ErrCyclicHierarchy, a.ID)
		}
		if len(chain) >= s.maxDepth {
			return nil, fmt.Errorf("%w: account %s exceeds %d levels", model.ErrHierarchyTooDeep, accountID, s.maxDepth)
		}
		chain = append(chain, a.ParentID)
		a = s.byID[a.ParentID]
	}
	return chain, nil
}

// SubtreeIDs returns rootID followed by all its descendants, depth first.
func (s *Service) SubtreeIDs(rootID string) ([]string, error) {
	if !s.Exists(rootID) {
		return nil, fmt.Errorf("%w: account %s", model.ErrUnknownEntity, rootID)
	}
	var out []string
	if err := s.walk(rootID, 0, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Descendants returns SubtreeIDs without the root.
func (s *Service) Descendants(rootID string) ([]string, error) {
	ids, err := s.SubtreeIDs(rootID)
	if err != nil {
		return nil, err
	}
	return ids[1:], nil
}

func (s *Service) walk(accountID string, depth int, out *[]string) error {
	if depth > s.maxDepth {
		return fmt.Errorf("%w: below account %s", model.ErrHierarchyTooDeep, accountID)
	}
	*out = append(*out, accountID)
	for _, k := range s.children[accountID] {
		if err := s.walk(k, depth+1, out); err != nil {
			return err
		}
	}
	return nil
}

// FullName returns the colon-separated path of an account, e.g. "Expenses:Groceries".
func (s *Service) FullName(accountID string) string {
	a, ok := s.byID[accountID]
	if !ok {
		return ""
	}
	parts := []string{a.Name}
	ancestors, err := s.Ancestors(accountID)
	if err != nil {
		return a.Name
	}
	for _, p := range ancestors {
		parts = append(parts, s.byID[p].Name)
	}
	slices.Reverse(parts)
	return strings.Join(parts, ":")
}

// Lookup resolves an account by id, full name or unique short name.
func (s *Service) Lookup(ref string) (model.Account, bool) {
	if a, ok := s.byID[ref]; ok {
		return a, true
	}
	var match []model.Account
	for _, aid := range s.order {
		if s.FullName(aid) == ref {
			return s.byID[aid], true
		}
		if a := s.byID[aid]; a.Name == ref {
			match = append(match, a)
		}
	}
	if len(match) == 1 {
		return match[0], true
	}
	return model.Account{}, false
}

// SetDefaultTransfer associates a default transfer account; "" clears it.
func (s *Service) SetDefaultTransfer(accountID, targetID string) error {
	a, ok := s.byID[accountID]
	if !ok {
		return fmt.Errorf("%w: account %s", model.ErrUnknownEntity, accountID)
	}
	if targetID != "" && !s.Exists(targetID) {
		return fmt.Errorf("%w: default transfer account %s", model.ErrUnknownEntity, targetID)
	}
	a.DefaultTransferID = targetID
	s.byID[accountID] = a
	return nil
}

// DefaultTransfer returns the default transfer account of accountID, if set.
func (s *Service) DefaultTransfer(accountID string) (model.Account, bool) {
	a, ok := s.byID[accountID]
	if !ok || a.DefaultTransferID == "" {
		return model.Account{}, false
	}
	return s.Get(a.DefaultTransferID)
}

// Remove deletes a childless account and clears default-transfer links to it.
// Callers decide beforehand what happens to its children and splits.
func (s *Service) Remove(accountID string) error {
	a, ok := s.byID[accountID]
	if !ok {
		return fmt.Errorf("%w: account %s", model.ErrUnknownEntity, accountID)
	}
	if len(s.children[accountID]) > 0 {
		return fmt.Errorf("account %s still has %d children", accountID, len(s.children[accountID]))
	}
	s.relink(accountID, a.ParentID, "")
	delete(s.children, accountID)
	delete(s.byID, accountID)
	s.order = slices.DeleteFunc(s.order, func(x string) bool { return x == accountID })
	for _, aid := range s.order {
		if o := s.byID[aid]; o.DefaultTransferID == accountID {
			o.DefaultTransferID = ""
			s.byID[aid] = o
		}
	}
	return nil
}

// ImbalanceAccount returns the hidden imbalance account of a currency,
// creating it on first use.
func (s *Service) ImbalanceAccount(currency string) (model.Account, error) {
	currency = money.Code(currency)
	if currency == "" {
		return model.Account{}, fmt.Errorf("imbalance account: missing currency")
	}
	if a, ok := s.FindImbalance(currency); ok {
		return a, nil
	}
	a := model.Account{
		ID:       id.New(),
		Name:     ImbalancePrefix + currency,
		Type:     model.AccountTypeBank,
		Currency: currency,
		Hidden:   true,
	}
	if err := s.Add(a); err != nil {
		return model.Account{}, err
	}
	return a, nil
}

// FindImbalance returns the imbalance account of a currency without creating it.
func (s *Service) FindImbalance(currency string) (model.Account, bool) {
	currency = money.Code(currency)
	for _, aid := range s.order {
		if a := s.byID[aid]; IsImbalance(a) && a.Currency == currency {
			return a, true
		}
	}
	return model.Account{}, false
}

// IsImbalance reports whether a is a per-currency imbalance account: a
// hidden top-level BANK account named after its currency. User accounts that
// merely share the name do not qualify.
func IsImbalance(a model.Account) bool {
	return a.ParentID == "" &&
		a.Type == model.AccountTypeBank &&
		a.Hidden &&
		a.Name == ImbalancePrefix+a.Currency
}
