package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/user/elpisexchange/backend/internal/models"
)

// SchemaVersion is bumped whenever the Document layout changes incompatibly.
const SchemaVersion = 1

var (
	// ErrTransient wraps every snapshot read/write failure surfaced to callers.
	ErrTransient = errors.New("snapshot store unavailable")
	// ErrVersion is returned when decoding a document written by another schema.
	ErrVersion = errors.New("unsupported snapshot schema version")
)

// Document is the whole persisted exchange state.
type Document struct {
	Version      int                            `json:"version"`
	SavedAt      time.Time                      `json:"saved_at"`
	Credentials  map[string]string              `json:"credentials"`
	DisplayNames map[string]string              `json:"display_names"`
	Markets      map[string]*models.MarketEntry `json:"markets"`
	Trades       []models.TradeRecord           `json:"trades"` // newest first
	Ledgers      map[string]*models.LedgerState `json:"ledgers"`
	Orders       []models.RestingOrder          `json:"orders"` // book insertion order
	Interests    []string                       `json:"interests"`
	Messages     []models.BoardMessage          `json:"messages"` // newest first
}

// Encode serializes doc.
func Encode(doc *Document) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return data, nil
}

// Decode parses a document and checks its schema version.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	if doc.Version != SchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVersion, doc.Version, SchemaVersion)
	}
	return &doc, nil
}
