/**
 * @description
 * This file defines the events the dashboard publishes to RabbitMQ after a
 * wallet operation has been confirmed by the upstream service. Downstream
 * consumers (notification pipeline) react to these; the dashboard itself
 * never consumes them.
 */
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Exchange and routing keys for dashboard events.
const (
	OperationEventsExchange = "wallet_operation_events"

	RoutingKeyDeposit  = "operation.deposit.confirmed"
	RoutingKeyWithdraw = "operation.withdraw.confirmed"
	RoutingKeyConvert  = "operation.convert.confirmed"
	RoutingKeyExchange = "operation.exchange.confirmed"
)

// OperationEvent is published after the upstream confirms a wallet
// operation.
type OperationEvent struct {
	AccountID       string          `json:"account_id"`
	Kind            OperationKind   `json:"kind"`
	Currency        Currency        `json:"currency"`
	Amount          decimal.Decimal `json:"amount"`
	CurrencyTo      Currency        `json:"currency_to,omitempty"`
	ConvertedAmount decimal.Decimal `json:"converted_amount,omitempty"`
	OccurredAt      time.Time       `json:"occurred_at"`
}

// RoutingKey returns the routing key for the event's operation kind.
func (e OperationEvent) RoutingKey() string {
	switch e.Kind {
	case OperationWithdraw:
		return RoutingKeyWithdraw
	case OperationConvert:
		return RoutingKeyConvert
	case OperationExchange:
		return RoutingKeyExchange
	default:
		return RoutingKeyDeposit
	}
}
