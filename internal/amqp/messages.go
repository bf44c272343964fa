package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
)

type MessageType string

const (
	TypePaymentRegistered MessageType = "payment_registered"
	TypePeriodChanged     MessageType = "period_changed"
)

// Message is the single envelope published on the ledger queue. It carries
// identifiers only; consumers reload state from storage.
type Message struct {
	Type            MessageType `json:"type"`
	OwnerKey        string      `json:"owner_key"`
	Year            int         `json:"year"`
	Month           int         `json:"month"`
	ContractID      string      `json:"contract_id,omitempty"`
	ContractVersion int64       `json:"contract_version,omitempty"`
	TransactionID   string      `json:"transaction_id,omitempty"`
	AmountCents     int64       `json:"amount_cents,omitempty"`
	Timestamp       time.Time   `json:"timestamp"`
}

// NewPaymentRegisteredMessage describes a payment; the period is the one
// the companion ledger entry falls in.
func NewPaymentRegisteredMessage(owner string, c core.Contract, entry core.Transaction) *Message {
	at := entry.OccurredAt.UTC()
	return &Message{
		Type:            TypePaymentRegistered,
		OwnerKey:        owner,
		Year:            at.Year(),
		Month:           int(at.Month()),
		ContractID:      c.ID,
		ContractVersion: c.Version,
		TransactionID:   entry.ID,
		AmountCents:     entry.Amount.Cents,
		Timestamp:       time.Now().UTC(),
	}
}

func NewPeriodChangedMessage(owner string, year, month int) *Message {
	return &Message{
		Type:      TypePeriodChanged,
		OwnerKey:  owner,
		Year:      year,
		Month:     month,
		Timestamp: time.Now().UTC(),
	}
}

func (m *Message) Validate() error {
	if m.OwnerKey == "" {
		return core.ErrEmptyOwner
	}
	if err := core.ValidateMonth(m.Month); err != nil {
		return err
	}
	switch m.Type {
	case TypePeriodChanged:
		return nil
	case TypePaymentRegistered:
		if m.ContractID == "" {
			return errors.New("payment message without contract id")
		}
		return nil
	default:
		return fmt.Errorf("unknown message type %q", m.Type)
	}
}

func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MessageFromJSON decodes and validates a message body.
func MessageFromJSON(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
