package amqp

import (
	"encoding/json"
	"time"
)

// LedgerSyncMessage asks the worker to export one ledger row. It carries
// only the row's identity and version; the worker fetches the full
// transaction from the database, so a stale message can never export stale
// data.
type LedgerSyncMessage struct {
	Seq       int64     `json:"seq"`
	UserID    string    `json:"user_id"`
	TxID      string    `json:"tx_id"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerSyncMessage creates a sync message for one ledger row.
func NewLedgerSyncMessage(seq int64, userID, txID string, version int64) *LedgerSyncMessage {
	return &LedgerSyncMessage{
		Seq:       seq,
		UserID:    userID,
		TxID:      txID,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerSyncMessageFromJSON creates a message from JSON bytes
func LedgerSyncMessageFromJSON(data []byte) (*LedgerSyncMessage, error) {
	var msg LedgerSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
