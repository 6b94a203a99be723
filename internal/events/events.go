// Package events publishes ledger changes to NATS so other services can
// react to new expenses and settlements.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
)

const (
	SubjectExpenseCreated     = "expense.created"
	SubjectSettlementRecorded = "settlement.recorded"
)

// ExpenseCreated is the payload of SubjectExpenseCreated.
type ExpenseCreated struct {
	ExpenseID    string          `json:"expense_id"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	PaidBy       string          `json:"paid_by"`
	GroupID      string          `json:"group_id,omitempty"`
	Participants []string        `json:"participants"`
	Date         time.Time       `json:"date"`
}

// SettlementRecorded is the payload of SubjectSettlementRecorded.
type SettlementRecorded struct {
	SettlementID string          `json:"settlement_id"`
	FromUserID   string          `json:"from_user_id"`
	ToUserID     string          `json:"to_user_id"`
	Amount       decimal.Decimal `json:"amount"`
	GroupID      string          `json:"group_id,omitempty"`
	Date         time.Time       `json:"date"`
}

// Publisher delivers domain events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	ExpenseCreated(ctx context.Context, e ExpenseCreated) error
	SettlementRecorded(ctx context.Context, e SettlementRecorded) error
	Close()
}

// conn is the subset of *nats.Conn the publisher needs.
type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSPublisher publishes JSON-encoded events on a NATS connection.
type NATSPublisher struct {
	conn conn
}

// Connect dials NATS at url, authenticating with token when set.
func Connect(url, token string) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("splitledger"),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return &NATSPublisher{conn: nc}, nil
}

func (p *NATSPublisher) ExpenseCreated(ctx context.Context, e ExpenseCreated) error {
	return p.publish(ctx, SubjectExpenseCreated, e)
}

func (p *NATSPublisher) SettlementRecorded(ctx context.Context, e SettlementRecorded) error {
	return p.publish(ctx, SubjectSettlementRecorded, e)
}

func (p *NATSPublisher) publish(ctx context.Context, subject string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", subject, err)
	}
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}
	slog.Debug("Event published", "subject", subject, "bytes", len(data))
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		slog.Warn("Failed to drain nats connection", "error", err)
	}
}

// Nop discards every event. Used when NATS is not configured.
type Nop struct{}

func (Nop) ExpenseCreated(context.Context, ExpenseCreated) error         { return nil }
func (Nop) SettlementRecorded(context.Context, SettlementRecorded) error { return nil }
func (Nop) Close()                                                       {}
