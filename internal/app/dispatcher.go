/**
 * @description
 * This file implements the wallet operation dispatcher. It composes a
 * validated operation into an upstream request, submits it with the current
 * session credential, and reconciles the outcome.
 *
 * Design notes:
 * - The dispatcher never mutates balances speculatively. After a confirmed
 *   operation the caller refreshes the full account list; the wallet
 *   service is the single source of truth.
 * - No automatic retries. Re-submitting a money-movement request without
 *   idempotency keys risks duplicate transfers, so a failure requires
 *   explicit user re-initiation.
 * - A 401 from any upstream call clears the session store, which is the
 *   only automatic state transition driven by an external signal.
 */
package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bpay/dashboard-service/internal/domain"
)

// WalletAPI is the slice of the wallet service the dispatcher talks to.
type WalletAPI interface {
	ListAccounts(ctx context.Context, token string) ([]domain.Account, error)
	ListPaymentMethods(ctx context.Context, token string) ([]domain.PaymentMethod, error)
	SubmitOperation(ctx context.Context, token string, op domain.ValidatedOperation) (*domain.OperationResult, error)
}

// EventPublisher publishes operation events for the notification pipeline.
type EventPublisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body interface{}) error
}

// Dispatcher validates and submits wallet operations.
type Dispatcher struct {
	client    WalletAPI
	sessions  *SessionStore
	publisher EventPublisher
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher. The publisher may be a fallback; a
// publish failure never fails the operation itself.
func NewDispatcher(client WalletAPI, sessions *SessionStore, publisher EventPublisher, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		client:    client,
		sessions:  sessions,
		publisher: publisher,
		logger:    logger,
	}
}

// Submit validates the request against live account state and submits it to
// the operation-specific endpoint. Validation failures return before any
// network mutation is attempted.
func (d *Dispatcher) Submit(ctx context.Context, req domain.WalletOperationRequest) (*domain.OperationResult, error) {
	token, ok := d.sessions.Token()
	if !ok {
		return nil, domain.ErrSessionExpired
	}

	account, err := d.findAccount(ctx, token, req.AccountID)
	if err != nil {
		return nil, d.mapSessionExpiry(ctx, err)
	}

	var methods []domain.PaymentMethod
	if req.Kind == domain.OperationWithdraw {
		methods, err = d.client.ListPaymentMethods(ctx, token)
		if err != nil {
			return nil, d.mapSessionExpiry(ctx, err)
		}
	}

	validated, err := ValidateOperation(req, account, methods)
	if err != nil {
		return nil, err
	}

	result, err := d.client.SubmitOperation(ctx, token, *validated)
	if err != nil {
		return nil, d.mapSessionExpiry(ctx, err)
	}

	d.publishEvent(ctx, *validated, result)
	return result, nil
}

func (d *Dispatcher) findAccount(ctx context.Context, token, accountID string) (domain.Account, error) {
	accounts, err := d.client.ListAccounts(ctx, token)
	if err != nil {
		return domain.Account{}, err
	}
	for _, account := range accounts {
		if account.ID == accountID {
			return account, nil
		}
	}
	return domain.Account{}, domain.NewValidationError("account_id", "account not found")
}

// mapSessionExpiry clears the session when the upstream rejected the
// credential and passes every other error through untouched.
func (d *Dispatcher) mapSessionExpiry(ctx context.Context, err error) error {
	if errors.Is(err, domain.ErrSessionExpired) {
		d.logger.Info("upstream rejected credential, clearing session")
		d.sessions.Clear(ctx)
	}
	return err
}

func (d *Dispatcher) publishEvent(ctx context.Context, op domain.ValidatedOperation, result *domain.OperationResult) {
	if d.publisher == nil {
		return
	}
	event := domain.OperationEvent{
		AccountID:       op.Account.ID,
		Kind:            op.Request.Kind,
		Currency:        op.Account.Currency,
		Amount:          op.Request.Amount,
		CurrencyTo:      op.Request.CurrencyTo,
		ConvertedAmount: result.ConvertedAmount,
		OccurredAt:      time.Now(),
	}
	if err := d.publisher.Publish(ctx, domain.OperationEventsExchange, event.RoutingKey(), event); err != nil {
		d.logger.Warn("failed to publish operation event", "kind", op.Request.Kind, "error", err)
	}
}
