package services

import (
	"context"
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
	"github.com/shopspring/decimal"
)

// PaymentService is the bridge to the payment processor.
type PaymentService struct {
	processor        payments.Processor
	currency         string
	processorTimeout time.Duration
	metrics          *metrics.Metrics
	log              logging.Logger
}

func NewPaymentService(p payments.Processor, cfg *config.Config, mt *metrics.Metrics, log logging.Logger) *PaymentService {
	return &PaymentService{
		processor:        p,
		currency:         cfg.Currency,
		processorTimeout: cfg.ProcessorTimeout,
		metrics:          mt,
		log:              log,
	}
}

// CreateIntent stages a card payment for price. The amount sent upstream is
// round(price * 100) minor units; a non-positive price is rejected before
// the processor is called.
func (s *PaymentService) CreateIntent(ctx context.Context, price decimal.Decimal, currency string) (*models.PaymentIntent, error) {
	amount, err := payments.ToMinorUnits(price)
	if err != nil {
		return nil, err
	}

	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		currency = s.currency
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.processorTimeout)
	defer cancel()

	intent, err := s.processor.CreateIntent(ctx, amount, currency)
	if err != nil {
		s.metrics.RecordPaymentIntent(metrics.OutcomeError)
		s.log.Error(ctx, "create payment intent failed", "amount", amount, "currency", currency, "error", err)
		if !errors.Is(err, common.ErrUpstream) {
			err = fmt.Errorf("%w: %v", common.ErrUpstream, err)
		}
		return nil, err
	}

	s.metrics.RecordPaymentIntent(metrics.OutcomeOK)
	return &models.PaymentIntent{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		Amount:       amount,
		Currency:     currency,
	}, nil
}

// VerifyTransaction checks with the processor that transactionID names a
// succeeded intent for amount minor units of currency. The processor call
// gets its own timeout.
func (s *PaymentService) VerifyTransaction(ctx context.Context, transactionID string, amount int64, currency string) error {
	ctx, cancel := dbx.WithTimeout(ctx, s.processorTimeout)
	defer cancel()

	intent, err := s.processor.GetIntent(ctx, transactionID)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return fmt.Errorf("%w: unknown transaction %s", common.ErrorValidation, transactionID)
	case err != nil:
		return err
	case intent.Status != payments.StatusSucceeded:
		return fmt.Errorf("%w: transaction %s is %s", common.ErrorValidation, transactionID, intent.Status)
	case intent.Amount != amount:
		return fmt.Errorf("%w: transaction %s amount %d does not match %d",
			common.ErrorValidation, transactionID, intent.Amount, amount)
	case !strings.EqualFold(intent.Currency, currency):
		return fmt.Errorf("%w: transaction %s currency %s does not match %s",
			common.ErrorValidation, transactionID, intent.Currency, currency)
	}
	return nil
}
