package amqp

import (
	"encoding/json"
	"time"
)

// LedgerEventMessage is the lightweight message published after a ledger
// mutation. It carries only the transaction ID and the user's ledger
// version; the export worker fetches the full transaction from storage.
type LedgerEventMessage struct {
	TransactionID int64     `json:"transactionId"`
	UserID        int64     `json:"userId"`
	Version       uint64    `json:"version"`
	Retracted     bool      `json:"retracted"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewLedgerEventMessage(txID, userID int64, version uint64, retracted bool) *LedgerEventMessage {
	return &LedgerEventMessage{
		TransactionID: txID,
		UserID:        userID,
		Version:       version,
		Retracted:     retracted,
		Timestamp:     time.Now(),
	}
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
