package ledger

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func newLedger() *Ledger {
	l := New()
	l.Put("alice", NewState(decimal.NewFromInt(1000), 50))
	l.Put("bob", NewState(decimal.NewFromInt(500), 0))
	return l
}

func TestEscrowCash(t *testing.T) {
	l := newLedger()

	if err := l.EscrowCash("alice", decimal.NewFromInt(400)); err != nil {
		t.Fatalf("EscrowCash failed: %v", err)
	}
	st, _ := l.Get("alice")
	if !st.Balance.Equal(decimal.NewFromInt(600)) {
		t.Errorf("expected balance 600, got %s", st.Balance)
	}

	err := l.EscrowCash("alice", decimal.NewFromInt(601))
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if !st.Balance.Equal(decimal.NewFromInt(600)) {
		t.Errorf("failed escrow must not change balance, got %s", st.Balance)
	}
}

func TestEscrowSharesPortfolioThenLocked(t *testing.T) {
	l := newLedger()
	if err := l.Acquire("alice", "alice", 10, 100); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	avail, _ := l.Available("alice", "alice")
	if avail != 60 {
		t.Fatalf("expected 60 available (10 portfolio + 50 locked), got %d", avail)
	}

	if err := l.EscrowShares("alice", "alice", 25); err != nil {
		t.Fatalf("EscrowShares failed: %v", err)
	}
	st, _ := l.Get("alice")
	if _, ok := st.Portfolio["alice"]; ok {
		t.Error("zeroed holding must be removed")
	}
	if st.LockedSupply != 35 {
		t.Errorf("expected locked supply 35, got %d", st.LockedSupply)
	}
}

func TestEscrowSharesLockedOnlyForOwnSymbol(t *testing.T) {
	l := newLedger()
	avail, _ := l.Available("alice", "IU")
	if avail != 0 {
		t.Fatalf("locked supply must not count for other symbols, got %d", avail)
	}
	err := l.EscrowShares("alice", "IU", 1)
	if !errors.Is(err, ErrInsufficientHoldings) {
		t.Fatalf("expected ErrInsufficientHoldings, got %v", err)
	}
}

func TestEscrowLockedSupplyLeavesPortfolio(t *testing.T) {
	l := newLedger()
	if err := l.Acquire("alice", "alice", 20, 10); err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}

	if err := l.EscrowLockedSupply("alice", 30); err != nil {
		t.Fatalf("EscrowLockedSupply failed: %v", err)
	}
	st, _ := l.Get("alice")
	if st.LockedSupply != 20 {
		t.Errorf("expected locked supply 20, got %d", st.LockedSupply)
	}
	if got := st.Portfolio["alice"].Quantity; got != 20 {
		t.Errorf("expected portfolio holding 20, got %d", got)
	}

	// Portfolio shares do not count toward locked supply.
	err := l.EscrowLockedSupply("alice", 21)
	if !errors.Is(err, ErrInsufficientHoldings) {
		t.Fatalf("expected ErrInsufficientHoldings, got %v", err)
	}
	if st.LockedSupply != 20 {
		t.Errorf("failed escrow changed locked supply to %d", st.LockedSupply)
	}
}

func TestAcquireWeightedAverage(t *testing.T) {
	l := newLedger()
	steps := []struct {
		qty, price int64
		wantQty    int64
		wantAvg    int64
	}{
		{10, 100, 10, 100},
		{5, 111, 15, 103}, // (1000+555)/15 = 103.67
		{1, 1, 16, 96},    // (15*103+1)/16 = 96.625
	}
	for _, s := range steps {
		if err := l.Acquire("bob", "IU", s.qty, s.price); err != nil {
			t.Fatalf("Acquire failed: %v", err)
		}
		st, _ := l.Get("bob")
		h := st.Portfolio["IU"]
		if h.Quantity != s.wantQty || h.AverageCost != s.wantAvg {
			t.Errorf("after %d@%d got %+v, want qty %d avg %d", s.qty, s.price, h, s.wantQty, s.wantAvg)
		}
	}
}

func TestWeightedAverageIdempotent(t *testing.T) {
	fills := [][2]int64{{3, 100}, {7, 97}, {2, 250}, {11, 13}}
	var qty, avg int64
	for _, f := range fills {
		avg = WeightedAverage(qty, avg, f[0], f[1])
		qty += f[0]
	}

	var qty2, avg2 int64
	for _, f := range fills {
		avg2 = WeightedAverage(qty2, avg2, f[0], f[1])
		qty2 += f[0]
	}
	if qty != qty2 || avg != avg2 {
		t.Fatalf("recomputation differs: %d/%d vs %d/%d", qty, avg, qty2, avg2)
	}
}

func TestUnknownAccount(t *testing.T) {
	l := newLedger()
	if err := l.Credit("nobody", decimal.NewFromInt(1)); !errors.Is(err, ErrUnknownAccount) {
		t.Fatalf("expected ErrUnknownAccount, got %v", err)
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	l := newLedger()
	_ = l.Acquire("bob", "IU", 1, 10)
	snap := l.Snapshot()
	delete(snap["bob"].Portfolio, "IU")

	st, _ := l.Get("bob")
	if _, ok := st.Portfolio["IU"]; !ok {
		t.Fatal("mutating a snapshot must not touch the live ledger")
	}
}
