// Package store holds the complete contract state and persists it.
package store

import (
	"github.com/bitfsorg/libclaim-go/accounting"
	"github.com/bitfsorg/libclaim-go/ledger"
	"github.com/bitfsorg/libclaim-go/registry"
	"github.com/bitfsorg/libclaim-go/settlement"
)

// State is everything the contract owns.
type State struct {
	Owner      string
	Operator   string
	Registry   *registry.Registry
	Ledger     *ledger.Ledger
	Accounting *accounting.Accounting
	Book       *settlement.Book
}

// NewState creates an empty state with the given roles.
func NewState(owner, operator string) *State {
	return &State{
		Owner:      owner,
		Operator:   operator,
		Registry:   registry.New(),
		Ledger:     ledger.New(),
		Accounting: accounting.New(),
		Book:       settlement.NewBook(),
	}
}

// Clone returns a deep copy. Mutating calls work on a clone and replace
// the current state only when every step succeeded.
func (s *State) Clone() *State {
	return &State{
		Owner:      s.Owner,
		Operator:   s.Operator,
		Registry:   s.Registry.Clone(),
		Ledger:     s.Ledger.Clone(),
		Accounting: s.Accounting.Clone(),
		Book:       s.Book.Clone(),
	}
}

// Coordinator returns a settlement coordinator bound to this state.
func (s *State) Coordinator() *settlement.Coordinator {
	return &settlement.Coordinator{
		Ledger:     s.Ledger,
		Registry:   s.Registry,
		Accounting: s.Accounting,
		Book:       s.Book,
	}
}

// Store persists State snapshots.
type Store interface {
	// Load returns the last saved state, or ErrNotInitialized.
	Load() (*State, error)

	// Save replaces the persisted state atomically.
	Save(s *State) error

	// Close releases resources.
	Close() error
}
