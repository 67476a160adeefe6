package snapshot

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/user/elpisexchange/backend/internal/models"
)

func sampleDocument() *Document {
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	return &Document{
		Version:      SchemaVersion,
		SavedAt:      now,
		Credentials:  map[string]string{"test": "$2a$10$hash"},
		DisplayNames: map[string]string{"test": "Tester"},
		Markets: map[string]*models.MarketEntry{
			"IU": {Symbol: "IU", Name: "IU", Price: 51000, ChangePct: 2, History: []int64{50000, 51000}},
		},
		Trades: []models.TradeRecord{{
			ID: uuid.New(), Time: now, Symbol: "IU", Name: "IU", Side: models.Buy,
			Price: 51000, Quantity: 3, Buyer: "test", Seller: "bot_1",
		}},
		Ledgers: map[string]*models.LedgerState{
			"test": {
				Balance:      decimal.NewFromInt(9847000),
				LockedSupply: 1000000,
				Portfolio:    map[string]models.Holding{"IU": {Quantity: 3, AverageCost: 51000}},
				LastRewardAt: &now,
			},
		},
		Orders: []models.RestingOrder{{
			ID: uuid.New(), Symbol: "IU", Side: models.Sell, Price: 52000, Quantity: 7, Owner: "bot_1", Seq: 4,
		}},
		Interests: []string{"IU"},
		Messages:  []models.BoardMessage{{Symbol: "IU", Author: "test", Text: "hi", Time: now}},
	}
}

func TestMemoryStoreNeverWritten(t *testing.T) {
	s := NewMemoryStore()
	doc, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if doc != nil {
		t.Fatalf("expected absent document, got %+v", doc)
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Save(ctx, sampleDocument()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	first := s.Raw()

	loaded, err := s.Load(ctx)
	if err != nil || loaded == nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := s.Save(ctx, loaded); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !bytes.Equal(first, s.Raw()) {
		t.Fatalf("save(load()) changed the document:\n%s\n%s", first, s.Raw())
	}
	if !loaded.Ledgers["test"].Balance.Equal(decimal.NewFromInt(9847000)) {
		t.Errorf("balance lost in round trip: %s", loaded.Ledgers["test"].Balance)
	}
}

func TestMemoryStoreFailures(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.FailSave = true
	if err := s.Save(ctx, sampleDocument()); !errors.Is(err, ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}

	s.FailSave = false
	s.FailLoad = true
	if _, err := s.Load(ctx); !IsTransient(err) {
		t.Fatalf("expected transient load error, got %v", err)
	}
}

func TestDecodeRejectsOtherVersions(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"missing version", `{"markets":{}}`, ErrVersion},
		{"future version", `{"version":99}`, ErrVersion},
		{"malformed", `{"version":`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw))
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestMemoryStoreMalformedPayload(t *testing.T) {
	s := NewMemoryStore()
	s.SetRaw([]byte("not json"))
	if _, err := s.Load(context.Background()); !IsTransient(err) {
		t.Fatalf("malformed payload should surface as transient, got %v", err)
	}
}
