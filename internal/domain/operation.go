/**
 * @description
 * This file defines the wallet operation request model. A request is
 * transient: it is constructed per submission and never persisted beyond
 * the pending upstream call.
 */
package domain

import "github.com/shopspring/decimal"

// OperationKind is one of the four wallet operations a user can invoke.
type OperationKind string

const (
	OperationDeposit  OperationKind = "deposit"
	OperationWithdraw OperationKind = "withdraw"
	OperationConvert  OperationKind = "convert"
	OperationExchange OperationKind = "exchange"
)

// Valid reports whether k names a known operation.
func (k OperationKind) Valid() bool {
	switch k {
	case OperationDeposit, OperationWithdraw, OperationConvert, OperationExchange:
		return true
	}
	return false
}

// WalletOperationRequest carries everything the user supplied for one
// wallet operation. Which fields are required depends on the kind and the
// source account's currency; the validator decides before any network call.
type WalletOperationRequest struct {
	AccountID       string          `json:"account_id"`
	Kind            OperationKind   `json:"kind"`
	Amount          decimal.Decimal `json:"amount"`
	CurrencyTo      Currency        `json:"currency_to,omitempty"`
	PaymentMethodID string          `json:"payment_method_id,omitempty"`
	TxHash          string          `json:"tx_hash,omitempty"`
}

// ValidatedOperation is a request that passed the rule table together with
// the account it was validated against.
type ValidatedOperation struct {
	Request WalletOperationRequest
	Account Account
}

// OperationResult is the upstream's answer to a confirmed operation. The
// converted amount is only present for convert/exchange.
type OperationResult struct {
	Message         string          `json:"message"`
	ConvertedAmount decimal.Decimal `json:"converted_amount,omitempty"`
}
