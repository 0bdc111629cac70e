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
	"github.com/dmitrijs2005/gearhub/internal/server/repositories/repomanager"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "gearhub.services"

// InventoryService owns equipment records and their stock quantity.
type InventoryService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	images       ImageStore
	storeTimeout time.Duration
	metrics      *metrics.Metrics
	log          logging.Logger
	tracer       trace.Tracer
}

func NewInventoryService(db *sql.DB, m repomanager.RepositoryManager, images ImageStore,
	cfg *config.Config, mt *metrics.Metrics, log logging.Logger) *InventoryService {
	return &InventoryService{
		db:           db,
		repomanager:  m,
		images:       images,
		storeTimeout: cfg.StoreTimeout,
		metrics:      mt,
		log:          log,
		tracer:       otel.Tracer(tracerName),
	}
}

func validateEquipment(item *models.Equipment) error {
	item.Name = strings.TrimSpace(item.Name)
	switch {
	case item.Name == "":
		return fmt.Errorf("%w: name is required", common.ErrorValidation)
	case !item.Price.IsPositive():
		return fmt.Errorf("%w: price must be positive", common.ErrorValidation)
	case item.AvailableQuantity < 0:
		return fmt.Errorf("%w: available quantity must not be negative", common.ErrorValidation)
	case item.MinOrderQuantity < 0:
		return fmt.Errorf("%w: min order quantity must not be negative", common.ErrorValidation)
	}
	if item.MinOrderQuantity == 0 {
		item.MinOrderQuantity = 1
	}
	return nil
}

func (s *InventoryService) Create(ctx context.Context, item *models.Equipment) (*models.Equipment, error) {
	if err := validateEquipment(item); err != nil {
		return nil, err
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	created, err := s.repomanager.Equipment(s.db).Create(ctx, item)
	if err != nil {
		return nil, storeErr("create equipment", err)
	}

	s.log.Info(ctx, "equipment created", "equipment_id", created.ID, "name", created.Name)
	return created, nil
}

func (s *InventoryService) Delete(ctx context.Context, id string) error {
	ctx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.repomanager.Equipment(s.db).Delete(ctx, id); err != nil {
		return storeErr("delete equipment", err)
	}

	s.log.Info(ctx, "equipment deleted", "equipment_id", id)
	return nil
}

func (s *InventoryService) Get(ctx context.Context, id string) (*models.Equipment, error) {
	ctx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	item, err := dbx.RetryRead(ctx, func(ctx context.Context) (*models.Equipment, error) {
		return s.repomanager.Equipment(s.db).GetByID(ctx, id)
	})
	if err != nil {
		return nil, storeErr("get equipment", err)
	}

	s.attachImageURL(ctx, item)
	return item, nil
}

func (s *InventoryService) ListAll(ctx context.Context) ([]*models.Equipment, error) {
	ctx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	items, err := dbx.RetryRead(ctx, func(ctx context.Context) ([]*models.Equipment, error) {
		return s.repomanager.Equipment(s.db).List(ctx)
	})
	if err != nil {
		return nil, storeErr("list equipment", err)
	}

	for _, item := range items {
		s.attachImageURL(ctx, item)
	}
	return items, nil
}

// AdjustQuantity applies a signed delta to the available quantity and
// returns the new value. A delta that would take the quantity below zero
// fails with common.ErrInsufficientStock and changes nothing.
func (s *InventoryService) AdjustQuantity(ctx context.Context, id string, delta int64) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "inventory.adjust_quantity",
		trace.WithAttributes(attribute.String("equipment.id", id), attribute.Int64("delta", delta)))
	defer span.End()

	ctx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	quantity, err := s.repomanager.Equipment(s.db).AdjustQuantity(ctx, id, delta)
	switch {
	case err == nil:
		s.metrics.RecordStockAdjustment(metrics.OutcomeOK)
		span.SetAttributes(attribute.Int64("quantity", quantity))
		return quantity, nil
	case errors.Is(err, common.ErrInsufficientStock):
		s.metrics.RecordStockAdjustment(metrics.OutcomeRejected)
		s.log.Warn(ctx, "stock adjustment rejected", "equipment_id", id, "delta", delta, "available", quantity)
		return 0, err
	default:
		s.metrics.RecordStockAdjustment(metrics.OutcomeError)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, storeErr("adjust quantity", err)
	}
}

// Restock adds a positive amount to the available quantity.
func (s *InventoryService) Restock(ctx context.Context, id string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: restock amount must be positive", common.ErrorValidation)
	}
	return s.AdjustQuantity(ctx, id, amount)
}

// ImageUploadURL reserves a new storage key for the equipment image, records
// it on the item and returns a presigned PUT URL for the admin client.
func (s *InventoryService) ImageUploadURL(ctx context.Context, id string) (*models.ImageUploadTask, error) {
	if s.images == nil {
		return nil, fmt.Errorf("%w: image storage is not configured", common.ErrUpstream)
	}

	ctx, cancel := dbx.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	key := NewImageKey(id)
	url, err := s.images.PresignPut(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("presign put: %w: %v", common.ErrUpstream, err)
	}

	if err := s.repomanager.Equipment(s.db).SetImage(ctx, id, key); err != nil {
		return nil, storeErr("set image", err)
	}

	return &models.ImageUploadTask{EquipmentID: id, StorageKey: key, URL: url}, nil
}

func (s *InventoryService) attachImageURL(ctx context.Context, item *models.Equipment) {
	if s.images == nil || item.Image == "" {
		return
	}
	url, err := s.images.PresignGet(ctx, item.Image)
	if err != nil {
		s.log.Warn(ctx, "presign get failed", "equipment_id", item.ID, "error", err)
		return
	}
	item.ImageURL = url
}
