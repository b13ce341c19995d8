package credits

import (
	"context"
	"errors"
	"testing"

	"server/internal/domain"
	"server/internal/kv"
)

func newTestLedger(t *testing.T, store kv.Store, opts ...Option) *Ledger {
	t.Helper()
	l, err := NewLedger(context.Background(), store, opts...)
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	return l
}

func TestNewAccountStartsAtZero(t *testing.T) {
	l := newTestLedger(t, kv.NewMemoryStore())
	if got := l.Balance(); got != 0 {
		t.Fatalf("Balance() = %d, want 0", got)
	}
}

func TestBalanceSurvivesReload(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	l := newTestLedger(t, store)
	if err := l.Add(ctx, 1200); err != nil {
		t.Fatalf("Add: %v", err)
	}

	reloaded := newTestLedger(t, store)
	if got := reloaded.Balance(); got != 1200 {
		t.Fatalf("Balance() after reload = %d, want 1200", got)
	}
}

func TestDeductRejectsInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, kv.NewMemoryStore())
	if err := l.Add(ctx, 100); err != nil {
		t.Fatalf("Add: %v", err)
	}

	err := l.Deduct(ctx, 525)
	if !errors.Is(err, domain.ErrInsufficientCredits) {
		t.Fatalf("Deduct error = %v, want ErrInsufficientCredits", err)
	}
	if got := l.Balance(); got != 100 {
		t.Fatalf("Balance() = %d, want 100 (no mutation on rejection)", got)
	}
}

func TestDeductThenRefundRestoresBalance(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, kv.NewMemoryStore())
	if err := l.Add(ctx, 2000); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := l.Deduct(ctx, 1310); err != nil {
		t.Fatalf("Deduct: %v", err)
	}
	if got := l.Balance(); got != 690 {
		t.Fatalf("Balance() = %d, want 690", got)
	}
	if err := l.Add(ctx, 1310); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if got := l.Balance(); got != 2000 {
		t.Fatalf("Balance() = %d, want 2000 after exact refund", got)
	}
}

func TestBalanceNeverNegative(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, kv.NewMemoryStore())

	ops := []struct {
		deduct bool
		amount int
	}{
		{false, 525}, {true, 525}, {true, 1}, {false, 10}, {true, 11}, {true, 10},
	}
	for i, op := range ops {
		if op.deduct {
			_ = l.Deduct(ctx, op.amount)
		} else {
			_ = l.Add(ctx, op.amount)
		}
		if l.Balance() < 0 {
			t.Fatalf("op %d: balance went negative: %d", i, l.Balance())
		}
	}
	if got := l.Balance(); got != 0 {
		t.Fatalf("Balance() = %d, want 0", got)
	}
}

func TestChangeListenerSeesEveryMutation(t *testing.T) {
	ctx := context.Background()
	var seen []int
	l := newTestLedger(t, kv.NewMemoryStore(), WithChangeListener(func(b int) {
		seen = append(seen, b)
	}))

	_ = l.Add(ctx, 500)
	_ = l.Deduct(ctx, 200)

	// Initial persist emits 0, then 500, then 300.
	want := []int{0, 500, 300}
	if len(seen) != len(want) {
		t.Fatalf("listener calls = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("listener calls = %v, want %v", seen, want)
		}
	}
}

func TestNegativePersistedBalanceClampsToZero(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	newTestLedger(t, store)
	if err := store.Set(ctx, "credits:balance", []byte("-40")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	l := newTestLedger(t, store)
	if got := l.Balance(); got != 0 {
		t.Fatalf("Balance() = %d, want 0", got)
	}
}

func TestCostFor(t *testing.T) {
	tests := []struct {
		kind  domain.Kind
		model string
		want  int
	}{
		{domain.KindImage, "Nano Banana", 525},
		{domain.KindImage, "", 525},
		{domain.KindVideo, "Sora 2", 1310},
		{domain.KindVideo, "", 1310},
		{domain.KindVideo, "Veo 3", 1500},
		{domain.KindVideo, "Veo 3.1", 1500},
		{domain.KindVideo, "veo 3.1", 1500},
	}
	for _, tc := range tests {
		if got := CostFor(tc.kind, tc.model); got != tc.want {
			t.Fatalf("CostFor(%s, %q) = %d, want %d", tc.kind, tc.model, got, tc.want)
		}
	}
}
