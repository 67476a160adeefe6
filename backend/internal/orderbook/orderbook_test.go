package orderbook

import (
	"testing"

	"github.com/user/elpisexchange/backend/internal/models"
	"go.uber.org/zap"
)

func newManager() *Manager { return NewManager(zap.NewNop()) }

func mustRest(t *testing.T, m *Manager, side models.Side, price, qty int64, owner string) *models.RestingOrder {
	t.Helper()
	o, err := m.Rest("IU", side, price, qty, owner)
	if err != nil {
		t.Fatalf("Rest failed: %v", err)
	}
	return o
}

func TestMatchPricePriority(t *testing.T) {
	m := newManager()
	mustRest(t, m, models.Sell, 105, 10, "s1")
	mustRest(t, m, models.Sell, 100, 10, "s2")
	mustRest(t, m, models.Sell, 110, 10, "s3")

	fills, remaining := m.Match("IU", models.Buy, 110, 15, "buyer")
	if remaining != 0 {
		t.Fatalf("expected full fill, %d remaining", remaining)
	}
	if len(fills) != 2 {
		t.Fatalf("expected 2 fills, got %d", len(fills))
	}
	if fills[0].Price != 100 || fills[0].Quantity != 10 || fills[0].MakerOwner != "s2" {
		t.Errorf("first fill should take 10 @ 100 from s2, got %+v", fills[0])
	}
	if fills[1].Price != 105 || fills[1].Quantity != 5 || fills[1].MakerOwner != "s1" {
		t.Errorf("second fill should take 5 @ 105 from s1, got %+v", fills[1])
	}

	depth := m.GetBookDepth("IU", 0)
	if len(depth.Asks) != 2 || depth.Asks[0].Price != 105 || depth.Asks[0].Quantity != 5 {
		t.Errorf("unexpected asks after match: %+v", depth.Asks)
	}
}

func TestMatchSellWalksBidsDescending(t *testing.T) {
	m := newManager()
	mustRest(t, m, models.Buy, 90, 5, "b1")
	mustRest(t, m, models.Buy, 95, 5, "b2")
	mustRest(t, m, models.Buy, 80, 5, "b3")

	fills, remaining := m.Match("IU", models.Sell, 85, 20, "seller")
	if remaining != 10 {
		t.Fatalf("expected 10 remaining, got %d", remaining)
	}
	if len(fills) != 2 || fills[0].Price != 95 || fills[1].Price != 90 {
		t.Fatalf("expected fills at 95 then 90, got %+v", fills)
	}
	if m.GetOrCreateBook("IU").Len() != 1 {
		t.Errorf("only the 80 bid should remain")
	}
}

func TestMatchFIFOWithinLevel(t *testing.T) {
	m := newManager()
	first := mustRest(t, m, models.Sell, 100, 5, "early")
	second := mustRest(t, m, models.Sell, 100, 5, "late")

	fills, _ := m.Match("IU", models.Buy, 100, 7, "buyer")
	if len(fills) != 2 {
		t.Fatalf("expected 2 fills, got %d", len(fills))
	}
	if fills[0].MakerOrderID != first.ID || fills[0].Quantity != 5 {
		t.Errorf("earliest order should fill first: %+v", fills[0])
	}
	if fills[1].MakerOrderID != second.ID || fills[1].Quantity != 2 {
		t.Errorf("second order should take the rest: %+v", fills[1])
	}
}

func TestMatchSkipsOwnOrders(t *testing.T) {
	m := newManager()
	own := mustRest(t, m, models.Sell, 100, 10, "alice")

	fills, remaining := m.Match("IU", models.Buy, 100, 10, "alice")
	if len(fills) != 0 || remaining != 10 {
		t.Fatalf("self-trade must not happen: fills=%v remaining=%d", fills, remaining)
	}
	orders := m.AllOrders()
	if len(orders) != 1 || orders[0].ID != own.ID || orders[0].Quantity != 10 {
		t.Errorf("own order must be untouched: %+v", orders)
	}
}

func TestMatchSkipsOwnButFillsBehind(t *testing.T) {
	m := newManager()
	mustRest(t, m, models.Sell, 100, 10, "alice")
	mustRest(t, m, models.Sell, 100, 10, "bob")

	fills, remaining := m.Match("IU", models.Buy, 100, 4, "alice")
	if remaining != 0 || len(fills) != 1 || fills[0].MakerOwner != "bob" {
		t.Fatalf("expected bob's order to fill, got %+v remaining %d", fills, remaining)
	}
}

func TestMatchNoCross(t *testing.T) {
	m := newManager()
	mustRest(t, m, models.Sell, 120, 10, "s")

	fills, remaining := m.Match("IU", models.Buy, 110, 5, "b")
	if len(fills) != 0 || remaining != 5 {
		t.Fatalf("expected no fills, got %+v", fills)
	}
}

func TestRestoreKeepsFIFO(t *testing.T) {
	m := newManager()
	a := mustRest(t, m, models.Sell, 100, 1, "a")
	b := mustRest(t, m, models.Sell, 100, 1, "b")
	mustRest(t, m, models.Buy, 90, 3, "c")

	restored := newManager()
	orders := m.AllOrders()
	// Feed them reversed; Seq must win.
	for i, j := 0, len(orders)-1; i < j; i, j = i+1, j-1 {
		orders[i], orders[j] = orders[j], orders[i]
	}
	if err := restored.Restore(orders); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	fills, _ := restored.Match("IU", models.Buy, 100, 2, "z")
	if len(fills) != 2 || fills[0].MakerOrderID != a.ID || fills[1].MakerOrderID != b.ID {
		t.Fatalf("restored FIFO broken: %+v", fills)
	}

	next, err := restored.Rest("IU", models.Buy, 80, 1, "d")
	if err != nil {
		t.Fatalf("Rest failed: %v", err)
	}
	if next.Seq <= 3 {
		t.Errorf("sequence should continue after restore, got %d", next.Seq)
	}
}

func TestDepthTruncation(t *testing.T) {
	m := newManager()
	for p := int64(100); p < 110; p++ {
		mustRest(t, m, models.Sell, p, 1, "s")
	}
	mustRest(t, m, models.Sell, 100, 4, "s2")

	depth := m.GetBookDepth("IU", 3)
	if len(depth.Asks) != 3 {
		t.Fatalf("expected 3 levels, got %d", len(depth.Asks))
	}
	if depth.Asks[0].Price != 100 || depth.Asks[0].Quantity != 5 || depth.Asks[0].Orders != 2 {
		t.Errorf("unexpected best level: %+v", depth.Asks[0])
	}
}
