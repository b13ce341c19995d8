package credits

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"server/internal/domain"
	"server/internal/kv"
)

const (
	balanceKey     = "credits:balance"
	initializedKey = "credits:initialized"
)

// Ledger is the user's spendable credit balance. Every mutation is
// persisted before the call returns, and the balance can never be
// observed below zero. One mutex serializes generation-driven refunds
// against purchase-driven additions.
type Ledger struct {
	mu       sync.Mutex
	store    kv.Store
	balance  int
	onChange func(balance int)
}

// Option customizes a Ledger.
type Option func(*Ledger)

// WithChangeListener registers a callback invoked (outside the lock is
// not guaranteed; keep it cheap) after every persisted balance change.
func WithChangeListener(fn func(balance int)) Option {
	return func(l *Ledger) { l.onChange = fn }
}

// NewLedger loads the persisted balance, initializing a fresh account at
// zero exactly once.
func NewLedger(ctx context.Context, store kv.Store, opts ...Option) (*Ledger, error) {
	l := &Ledger{store: store}
	for _, opt := range opts {
		opt(l)
	}

	_, err := store.Get(ctx, initializedKey)
	switch {
	case errors.Is(err, kv.ErrNotFound):
		// New account: start at zero and mark initialized.
		if err := store.Set(ctx, initializedKey, []byte("1")); err != nil {
			return nil, fmt.Errorf("ledger init: %w", err)
		}
		if err := l.persist(ctx, 0); err != nil {
			return nil, err
		}
		return l, nil
	case err != nil:
		return nil, fmt.Errorf("ledger init: %w", err)
	}

	raw, err := store.Get(ctx, balanceKey)
	if err != nil && !errors.Is(err, kv.ErrNotFound) {
		return nil, fmt.Errorf("ledger load: %w", err)
	}
	balance := 0
	if len(raw) > 0 {
		balance, err = strconv.Atoi(string(raw))
		if err != nil {
			return nil, fmt.Errorf("ledger load: corrupt balance %q", raw)
		}
	}
	if balance < 0 {
		balance = 0
	}
	if err := l.persist(ctx, balance); err != nil {
		return nil, err
	}
	return l, nil
}

// Balance returns the current balance.
func (l *Ledger) Balance() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

// HasEnough reports whether the balance covers cost.
func (l *Ledger) HasEnough(cost int) bool {
	return l.Balance() >= cost
}

// Deduct removes amount from the balance. It mutates nothing when the
// balance is insufficient, returning domain.ErrInsufficientCredits.
func (l *Ledger) Deduct(ctx context.Context, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("ledger deduct: amount %d must be positive", amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balance < amount {
		return domain.ErrInsufficientCredits
	}
	return l.persist(ctx, l.balance-amount)
}

// Add credits amount to the balance. Used for purchases and refunds.
func (l *Ledger) Add(ctx context.Context, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("ledger add: amount %d must be positive", amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.persist(ctx, l.balance+amount)
}

// persist writes balance to the store and only then updates the
// in-memory value, so a crash after return never loses the update.
// Callers other than NewLedger hold l.mu.
func (l *Ledger) persist(ctx context.Context, balance int) error {
	if err := l.store.Set(ctx, balanceKey, []byte(strconv.Itoa(balance))); err != nil {
		return fmt.Errorf("ledger persist: %w", err)
	}
	l.balance = balance
	if l.onChange != nil {
		l.onChange(balance)
	}
	return nil
}
