// Package contract is the claim contract: the operation surface over the
// ledger, registry, accounting and settlement components.
//
// Every mutating call runs against a scratch copy of the state. The copy is
// persisted and swapped in only when the whole call succeeds, so a failed
// call leaves no trace. Calls that consult the token service do so before
// taking the state lock and re-check their guards afterwards.
package contract

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bitfsorg/libclaim-go/store"
	"github.com/bitfsorg/libclaim-go/token"
)

// DefaultTransferTimeout bounds a dispatched token transfer.
const DefaultTransferTimeout = time.Minute

// Options configures a Contract.
type Options struct {
	Store  store.Store
	Tokens token.Service

	// SelfAccount is the account whose token balance backs the airdrops.
	SelfAccount string

	// Owner and Operator seed a fresh state. Ignored when the store
	// already holds one.
	Owner    string
	Operator string

	Logger          *zap.Logger
	Now             func() time.Time
	TransferTimeout time.Duration
}

// Contract serializes all calls against one owned state.
type Contract struct {
	mu     sync.RWMutex
	state  *store.State
	closed bool

	store           store.Store
	tokens          token.Service
	self            string
	log             *zap.Logger
	now             func() time.Time
	transferTimeout time.Duration

	inflight sync.WaitGroup
	// dispatching holds ids of handles whose transfer has not returned.
	dispatching map[string]struct{}
	ctx      context.Context
	cancel   context.CancelFunc
}

// New loads the persisted state, or initializes one from the configured
// roles when the store is empty.
func New(opts Options) (*Contract, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("contract: store is required")
	}
	if opts.Tokens == nil {
		return nil, fmt.Errorf("contract: token service is required")
	}
	if opts.SelfAccount == "" {
		return nil, fmt.Errorf("%w: self account", ErrInvalidAccount)
	}

	st, err := opts.Store.Load()
	switch {
	case errors.Is(err, store.ErrNotInitialized):
		if opts.Owner == "" || opts.Operator == "" {
			return nil, fmt.Errorf("%w: owner and operator are required for a new state", ErrInvalidAccount)
		}
		st = store.NewState(opts.Owner, opts.Operator)
		if err := opts.Store.Save(st); err != nil {
			return nil, fmt.Errorf("contract: save initial state: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("contract: load state: %w", err)
	}

	c := &Contract{
		state:           st,
		store:           opts.Store,
		tokens:          opts.Tokens,
		self:            opts.SelfAccount,
		log:             opts.Logger,
		now:             opts.Now,
		transferTimeout: opts.TransferTimeout,
		dispatching:     make(map[string]struct{}),
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.transferTimeout <= 0 {
		c.transferTimeout = DefaultTransferTimeout
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	return c, nil
}

// Close stops accepting calls and waits for dispatched transfers until ctx
// is done. Transfers still running then are cancelled; their settlements
// stay pending.
func (c *Contract) Close(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		c.cancel()
		return nil
	case <-ctx.Done():
		c.cancel()
		<-done
		return ctx.Err()
	}
}

// update runs fn on a scratch copy of the state and commits it when fn
// and the save both succeed.
func (c *Contract) update(fn func(st *store.State) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return c.commitLocked(fn)
}

// commitLocked is update without the closed check. Dispatched transfers
// use it so they can still record their outcome while Close drains them.
func (c *Contract) commitLocked(fn func(st *store.State) error) error {
	scratch := c.state.Clone()
	if err := fn(scratch); err != nil {
		return err
	}
	if err := c.store.Save(scratch); err != nil {
		return fmt.Errorf("contract: persist state: %w", err)
	}
	c.state = scratch
	return nil
}

// read runs fn under the read lock. fn must not retain or mutate st.
func (c *Contract) read(fn func(st *store.State)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	fn(c.state)
}

func (c *Contract) nowMs() uint64 {
	return uint64(c.now().UnixMilli())
}

func requireOwner(st *store.State, caller string) error {
	if caller == "" || caller != st.Owner {
		return fmt.Errorf("%w: only the owner can call this function", ErrUnauthorized)
	}
	return nil
}

func requireOperator(st *store.State, caller string) error {
	if caller == "" || caller != st.Operator {
		return fmt.Errorf("%w: only the operator can call this function", ErrUnauthorized)
	}
	return nil
}
