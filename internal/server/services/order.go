package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gearhub/internal/common"
	"github.com/dmitrijs2005/gearhub/internal/dbx"
	"github.com/dmitrijs2005/gearhub/internal/logging"
	"github.com/dmitrijs2005/gearhub/internal/server/config"
	"github.com/dmitrijs2005/gearhub/internal/server/metrics"
	"github.com/dmitrijs2005/gearhub/internal/server/models"
	"github.com/dmitrijs2005/gearhub/internal/server/payments"
	"github.com/dmitrijs2005/gearhub/internal/server/repositories/repomanager"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PaymentVerifier confirms a client-reported transaction with the processor.
type PaymentVerifier interface {
	VerifyTransaction(ctx context.Context, transactionID string, amount int64, currency string) error
}

// OrderService owns the order lifecycle: created (unpaid), then either
// settled exactly once or cancelled.
type OrderService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	verifier     PaymentVerifier
	currency     string
	storeTimeout time.Duration
	metrics      *metrics.Metrics
	log          logging.Logger
	tracer       trace.Tracer
}

// NewOrderService builds the order ledger. A nil verifier means
// client-reported transactions are trusted as-is.
func NewOrderService(db *sql.DB, m repomanager.RepositoryManager, verifier PaymentVerifier,
	cfg *config.Config, mt *metrics.Metrics, log logging.Logger) *OrderService {
	return &OrderService{
		db:           db,
		repomanager:  m,
		verifier:     verifier,
		currency:     strings.ToLower(cfg.Currency),
		storeTimeout: cfg.StoreTimeout,
		metrics:      mt,
		log:          log,
		tracer:       otel.Tracer(tracerName),
	}
}

// Create inserts a new unpaid order owned by owner. Stock is not reserved
// here; it is only checked against the item's minimum order quantity.
func (s *OrderService) Create(ctx context.Context, owner string, equipmentID string, quantity int64,
	details models.Document) (*models.Order, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", common.ErrorValidation)
	}
	if strings.TrimSpace(equipmentID) == "" {
		return nil, fmt.Errorf("%w: equipment id is required", common.ErrorValidation)
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	item, err := dbx.RetryRead(ctx, func(ctx context.Context) (*models.Equipment, error) {
		return s.repomanager.Equipment(s.db).GetByID(ctx, equipmentID)
	})
	if err != nil {
		return nil, storeErr("get equipment", err)
	}
	if quantity < item.MinOrderQuantity {
		return nil, fmt.Errorf("%w: minimum order quantity is %d", common.ErrorValidation, item.MinOrderQuantity)
	}

	order := &models.Order{
		Email:       owner,
		EquipmentID: item.ID,
		Quantity:    quantity,
		Details:     details,
		Total:       item.Price.Mul(decimal.NewFromInt(quantity)),
	}

	created, err := s.repomanager.Orders(s.db).Create(ctx, order)
	if err != nil {
		return nil, storeErr("create order", err)
	}

	s.log.Info(ctx, "order created", "order_id", created.ID, "email", owner, "equipment_id", item.ID)
	return created, nil
}

// GetByID returns the order if subject owns it or is an admin.
func (s *OrderService) GetByID(ctx context.Context, subject string, id string) (*models.Order, error) {
	ctx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, s.db, subject, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) ListByOwner(ctx context.Context, email string) ([]*models.Order, error) {
	ctx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	orders, err := dbx.RetryRead(ctx, func(ctx context.Context) ([]*models.Order, error) {
		return s.repomanager.Orders(s.db).ListByEmail(ctx, email)
	})
	if err != nil {
		return nil, storeErr("list orders", err)
	}
	return orders, nil
}

func (s *OrderService) ListAll(ctx context.Context) ([]*models.Order, error) {
	ctx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	orders, err := dbx.RetryRead(ctx, func(ctx context.Context) ([]*models.Order, error) {
		return s.repomanager.Orders(s.db).List(ctx)
	})
	if err != nil {
		return nil, storeErr("list orders", err)
	}
	return orders, nil
}

// Update edits an unpaid order. The write itself is guarded by paid = false,
// so a settlement racing with the edit wins and the edit reports
// common.ErrAlreadySettled.
func (s *OrderService) Update(ctx context.Context, subject string, id string, upd models.OrderUpdate) (*models.Order, error) {
	if upd.Quantity != nil && *upd.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", common.ErrorValidation)
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, s.db, subject, order); err != nil {
		return nil, err
	}
	if order.Paid {
		return nil, common.ErrAlreadySettled
	}

	if upd.Quantity != nil && *upd.Quantity != order.Quantity {
		unit := order.Total.Div(decimal.NewFromInt(order.Quantity))
		order.Quantity = *upd.Quantity
		order.Total = unit.Mul(decimal.NewFromInt(order.Quantity)).Round(2)
	}
	// Only the new keys go down; the store merges them into what it holds.
	order.Details = upd.Details

	updated, err := s.repomanager.Orders(s.db).UpdateUnpaid(ctx, order)
	if err != nil {
		return nil, storeErr("update order", err)
	}
	return updated, nil
}

// Settle records rec as the payment of order id and marks the order paid,
// both in one transaction. The amount settled is always the order total in
// minor units; a reported amount that differs is rejected. The processor is
// consulted before the transaction opens, and the order row is then locked
// and re-checked, so of two concurrent settlements exactly one succeeds and
// the other observes common.ErrAlreadySettled. Settle is never retried.
func (s *OrderService) Settle(ctx context.Context, subject string, id string, rec models.PaymentRecord) (*models.Order, error) {
	ctx, span := s.tracer.Start(ctx, "orders.settle",
		trace.WithAttributes(attribute.String("order.id", id), attribute.String("transaction.id", rec.TransactionID)))
	defer span.End()

	if strings.TrimSpace(rec.TransactionID) == "" {
		return nil, fmt.Errorf("%w: transaction id is required", common.ErrorValidation)
	}
	if rec.Amount < 0 {
		return nil, fmt.Errorf("%w: amount must not be negative", common.ErrorValidation)
	}
	rec.Currency = strings.ToLower(strings.TrimSpace(rec.Currency))
	switch rec.Currency {
	case "":
		rec.Currency = s.currency
	case s.currency:
	default:
		return nil, fmt.Errorf("%w: currency %s is not accepted", common.ErrorValidation, rec.Currency)
	}

	settled, err := s.settle(ctx, subject, id, rec)

	switch {
	case err == nil:
		s.metrics.RecordSettlement(metrics.OutcomeOK)
		s.log.Info(ctx, "order settled", "order_id", id, "transaction_id", rec.TransactionID)
		return settled, nil
	case errors.Is(err, common.ErrAlreadySettled):
		s.metrics.RecordSettlement(metrics.OutcomeRejected)
		s.log.Warn(ctx, "duplicate settlement rejected", "order_id", id, "transaction_id", rec.TransactionID)
		return nil, err
	default:
		s.metrics.RecordSettlement(metrics.OutcomeError)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, storeErr("settle order", err)
	}
}

func (s *OrderService) settle(ctx context.Context, subject string, id string, rec models.PaymentRecord) (*models.Order, error) {
	storeCtx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	order, err := s.load(storeCtx, id)
	if err == nil {
		err = s.authorize(storeCtx, s.db, subject, order)
	}
	cancel()
	if err != nil {
		return nil, err
	}
	if order.Paid {
		return nil, common.ErrAlreadySettled
	}

	amount, err := payments.ToMinorUnits(order.Total)
	if err != nil {
		return nil, err
	}
	if rec.Amount != 0 && rec.Amount != amount {
		return nil, fmt.Errorf("%w: amount %d does not match order total %d", common.ErrorValidation, rec.Amount, amount)
	}

	if s.verifier != nil {
		if err := s.verifier.VerifyTransaction(ctx, rec.TransactionID, amount, rec.Currency); err != nil {
			return nil, err
		}
	}

	storeCtx, cancel = dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	var settled *models.Order
	err = dbx.WithTx(storeCtx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		locked, err := s.repomanager.Orders(tx).GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if locked.Paid {
			return common.ErrAlreadySettled
		}
		// The total may have been edited while the processor was consulted.
		if total, err := payments.ToMinorUnits(locked.Total); err != nil || total != amount {
			return fmt.Errorf("%w: order total changed during settlement", common.ErrorValidation)
		}

		if _, err := s.repomanager.Payments(tx).Create(ctx, &models.Payment{
			TransactionID: rec.TransactionID,
			OrderID:       locked.ID,
			Amount:        amount,
			Currency:      rec.Currency,
		}); err != nil {
			return err
		}

		if err := s.repomanager.Orders(tx).MarkPaid(ctx, locked.ID, rec.TransactionID); err != nil {
			return err
		}

		locked.Paid = true
		locked.PaymentID = &rec.TransactionID
		settled = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	return settled, nil
}

// Cancel deletes an unpaid order on behalf of its owner or an admin.
// Settled orders cannot be cancelled.
func (s *OrderService) Cancel(ctx context.Context, subject string, id string) error {
	ctx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	order, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, s.db, subject, order); err != nil {
		return err
	}
	if order.Paid {
		return common.ErrAlreadySettled
	}

	// A payment recorded without the order flag (see Reconcile) still
	// settles the order.
	_, err = dbx.RetryRead(ctx, func(ctx context.Context) (*models.Payment, error) {
		return s.repomanager.Payments(s.db).GetByOrderID(ctx, id)
	})
	switch {
	case err == nil:
		return common.ErrAlreadySettled
	case !errors.Is(err, common.ErrorNotFound):
		return storeErr("get payment", err)
	}

	if err := s.repomanager.Orders(s.db).DeleteUnpaid(ctx, id); err != nil {
		return storeErr("cancel order", err)
	}

	s.log.Info(ctx, "order cancelled", "order_id", id, "by", subject)
	return nil
}

// Reconcile repairs orders left unpaid although their payment was recorded,
// and returns how many were repaired. Failures on single orders are logged
// and reported together; the scan carries on.
func (s *OrderService) Reconcile(ctx context.Context) (int, error) {
	listCtx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	orphans, err := dbx.RetryRead(listCtx, func(ctx context.Context) ([]*models.Payment, error) {
		return s.repomanager.Payments(s.db).ListOrphaned(ctx)
	})
	cancel()
	if err != nil {
		return 0, storeErr("list orphaned payments", err)
	}

	var (
		repaired int
		errs     []error
	)
	for _, p := range orphans {
		opCtx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
		err := s.repomanager.Orders(s.db).MarkPaid(opCtx, p.OrderID, p.TransactionID)
		cancel()

		switch {
		case err == nil:
			repaired++
			s.log.Warn(ctx, "order reconciled", "order_id", p.OrderID, "transaction_id", p.TransactionID)
		case errors.Is(err, common.ErrAlreadySettled):
		default:
			s.log.Error(ctx, "reconcile failed", "order_id", p.OrderID, "error", err)
			errs = append(errs, fmt.Errorf("order %s: %w", p.OrderID, err))
		}
	}

	s.metrics.RecordReconciled(repaired)
	return repaired, errors.Join(errs...)
}

func (s *OrderService) load(ctx context.Context, id string) (*models.Order, error) {
	order, err := dbx.RetryRead(ctx, func(ctx context.Context) (*models.Order, error) {
		return s.repomanager.Orders(s.db).GetByID(ctx, id)
	})
	if err != nil {
		return nil, storeErr("get order", err)
	}
	return order, nil
}

// authorize lets the owner through, and any other subject only if it is an
// admin. Unknown subjects are forbidden.
func (s *OrderService) authorize(ctx context.Context, db dbx.DBTX, subject string, order *models.Order) error {
	if subject != "" && subject == order.Email {
		return nil
	}

	user, err := s.repomanager.Users(db).GetByEmail(ctx, subject)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return common.ErrorForbidden
	case err != nil:
		return storeErr("get user", err)
	case !user.IsAdmin():
		return common.ErrorForbidden
	}
	return nil
}
