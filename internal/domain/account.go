/**
 * @description
 * This file defines the account, transaction and payment method models as the
 * dashboard consumes them from the wallet service. The gateway never owns
 * these records; the upstream service is the single source of truth and the
 * dashboard refreshes the full collections after every mutating operation.
 */
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a currency-scoped balance belonging to the authenticated user.
// Crypto accounts additionally carry the business deposit address the user
// sends funds to.
type Account struct {
	ID             string          `json:"id"`
	Currency       Currency        `json:"currency"`
	Balance        decimal.Decimal `json:"balance"`
	DepositAddress string          `json:"deposit_address,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// DisplayBalance renders the balance with currency-appropriate precision.
// Truncation happens here and nowhere else; submitted amounts keep full
// precision.
func (a Account) DisplayBalance() string {
	return a.Balance.StringFixed(a.Currency.DisplayPrecision())
}

// TransactionType mirrors the upstream ledger's transaction categories.
type TransactionType string

const (
	TransactionDeposit  TransactionType = "DEPOSIT"
	TransactionWithdraw TransactionType = "WITHDRAW"
	TransactionConvert  TransactionType = "CONVERT"
	TransactionExchange TransactionType = "EXCHANGE"
)

// Transaction is one entry of the upstream ledger, consumed most-recent-first.
// The dashboard never reorders or mutates these.
type Transaction struct {
	ID           string          `json:"id"`
	Type         TransactionType `json:"type"`
	Currency     Currency        `json:"currency"`
	Amount       decimal.Decimal `json:"amount"`
	Counterparty string          `json:"counterparty"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

// PaymentMethodType identifies a payout rail for fiat withdrawals.
type PaymentMethodType string

const (
	PaymentMethodBankNG PaymentMethodType = "bank_ng"
	PaymentMethodMpesa  PaymentMethodType = "mpesa"
)

// Valid reports whether the payout rail is one the dashboard knows.
func (t PaymentMethodType) Valid() bool {
	return t == PaymentMethodBankNG || t == PaymentMethodMpesa
}

// MatchesCurrency reports whether the payout rail can serve the given
// withdrawal currency: Nigerian bank accounts for NGN, M-Pesa for KES.
func (t PaymentMethodType) MatchesCurrency(c Currency) bool {
	switch t {
	case PaymentMethodBankNG:
		return c == NGN
	case PaymentMethodMpesa:
		return c == KES
	}
	return false
}

// PaymentMethod is a saved payout destination for fiat withdrawals.
type PaymentMethod struct {
	ID       string            `json:"id"`
	Type     PaymentMethodType `json:"type"`
	Name     string            `json:"name"`
	Details  string            `json:"details"`
	IsActive bool              `json:"is_active"`
}
