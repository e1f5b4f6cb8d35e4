/**
 * @description
 * This file implements the wallet operation validator: a pure rule table
 * deciding, per currency and per operation, which fields are required and
 * whether the operation is legal at all. Validation runs before any network
 * call; a request that fails here never reaches the wallet service.
 *
 * Rule summary:
 * - deposit: fiat needs nothing client-side (the payment provider owns the
 *   amount); crypto needs a transaction hash and a positive amount.
 * - withdraw: fiat only, 0 < amount <= balance, and a payment method whose
 *   rail matches the currency.
 * - convert: target currency present and different from the source,
 *   0 < amount <= balance. Convertibility beyond that is the backend rate
 *   service's call.
 * - exchange: convert restricted to a fiat target (crypto cash-out).
 *
 * An amount equal to the full balance is legal; exactly zero is not.
 * Precision is never enforced here; it is a display concern.
 */
package app

import (
	"strings"

	"github.com/bpay/dashboard-service/internal/domain"
)

// ValidateOperation checks a wallet operation request against its source
// account. It is idempotent and has no side effects.
func ValidateOperation(req domain.WalletOperationRequest, account domain.Account, methods []domain.PaymentMethod) (*domain.ValidatedOperation, error) {
	if !req.Kind.Valid() {
		return nil, domain.NewValidationError("kind", "unknown operation")
	}
	if req.AccountID != account.ID {
		return nil, domain.NewValidationError("account_id", "request does not match account")
	}

	switch req.Kind {
	case domain.OperationDeposit:
		if err := validateDeposit(req, account); err != nil {
			return nil, err
		}
	case domain.OperationWithdraw:
		if err := validateWithdraw(req, account, methods); err != nil {
			return nil, err
		}
	case domain.OperationConvert:
		if err := validateConversion(req, account); err != nil {
			return nil, err
		}
	case domain.OperationExchange:
		if err := validateConversion(req, account); err != nil {
			return nil, err
		}
		if !req.CurrencyTo.IsFiat() {
			return nil, domain.NewValidationError("currency_to", "exchange must target NGN or KES")
		}
	}

	return &domain.ValidatedOperation{Request: req, Account: account}, nil
}

func validateDeposit(req domain.WalletOperationRequest, account domain.Account) error {
	if account.Currency.IsFiat() {
		// The fiat payment provider collects and validates the amount.
		return nil
	}
	if strings.TrimSpace(req.TxHash) == "" {
		return domain.NewValidationError("tx_hash", "transaction hash is required for crypto deposits")
	}
	if !req.Amount.IsPositive() {
		return domain.NewValidationError("amount", "amount must be greater than 0")
	}
	return nil
}

func validateWithdraw(req domain.WalletOperationRequest, account domain.Account, methods []domain.PaymentMethod) error {
	if !account.Currency.IsFiat() {
		return &domain.UnsupportedCurrencyError{
			Currency:  account.Currency,
			Operation: domain.OperationWithdraw,
		}
	}
	if err := validateAmountBounds(req, account); err != nil {
		return err
	}
	if req.PaymentMethodID == "" {
		return domain.NewValidationError("payment_method_id", "a payment method is required")
	}
	method, ok := findPaymentMethod(methods, req.PaymentMethodID)
	if !ok {
		return domain.NewValidationError("payment_method_id", "payment method not found")
	}
	if !method.Type.MatchesCurrency(account.Currency) {
		return domain.NewValidationError("payment_method_id", "payment method does not support "+string(account.Currency))
	}
	return nil
}

func validateConversion(req domain.WalletOperationRequest, account domain.Account) error {
	if req.CurrencyTo == "" {
		return domain.NewValidationError("currency_to", "target currency is required")
	}
	if !req.CurrencyTo.Valid() {
		return domain.NewValidationError("currency_to", "unknown currency")
	}
	if req.CurrencyTo == account.Currency {
		return domain.NewValidationError("currency_to", "target currency must differ from source")
	}
	return validateAmountBounds(req, account)
}

// validateAmountBounds enforces 0 < amount <= balance. The full balance is
// allowed; there is no minimum-remainder rule.
func validateAmountBounds(req domain.WalletOperationRequest, account domain.Account) error {
	if !req.Amount.IsPositive() {
		return domain.NewValidationError("amount", "amount must be greater than 0")
	}
	if req.Amount.GreaterThan(account.Balance) {
		return domain.NewValidationError("amount", "insufficient balance")
	}
	return nil
}

func findPaymentMethod(methods []domain.PaymentMethod, id string) (domain.PaymentMethod, bool) {
	for _, m := range methods {
		if m.ID == id {
			return m, true
		}
	}
	return domain.PaymentMethod{}, false
}
