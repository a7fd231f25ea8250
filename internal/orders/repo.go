package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/clock"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/db/models"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/enums"
)

// PaymentFields is the set of columns a successful gateway charge writes back
// onto every order it covers.
type PaymentFields struct {
	TransactionID string
	SnapToken     string
	PaymentURL    string
	Method        enums.PaymentMethod
	AdminFee      int64
}

// Repository manages persistence for catering orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Order, error)
	FindByTransactionRef(ctx context.Context, ref string) ([]models.Order, error)
	// ApplyPaymentFields writes the charge handle onto the given orders,
	// guarded on the snap token observed when the orders were loaded
	// (prevToken nil means the orders had no token yet). The returned count
	// is the number of rows that still matched the guard.
	ApplyPaymentFields(ctx context.Context, ids []uuid.UUID, prevToken *string, fields PaymentFields) (int64, error)
	// UpdateStatus moves one order from an observed status to the next,
	// reporting whether the row still matched.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error)
}

type repository struct {
	db  *gorm.DB
	clk clock.Clock
}

// NewRepository returns an order repository bound to the provided database.
// Guarded updates stamp updated_at from clk so row timestamps follow the
// same clock as the rest of the payment flow.
func NewRepository(db *gorm.DB, clk clock.Clock) Repository {
	if clk == nil {
		clk = clock.System()
	}
	return &repository{db: db, clk: clk}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx, clk: r.clk}
}

func (r *repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Order, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var found []models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id IN ?", ids).
		Find(&found).Error; err != nil {
		return nil, err
	}
	return found, nil
}

func (r *repository) FindByTransactionRef(ctx context.Context, ref string) ([]models.Order, error) {
	if ref == "" {
		return nil, nil
	}
	var found []models.Order
	if err := r.db.WithContext(ctx).
		Where("transaction_id = ?", ref).
		Order("created_at ASC").
		Find(&found).Error; err != nil {
		return nil, err
	}
	return found, nil
}

func (r *repository) ApplyPaymentFields(ctx context.Context, ids []uuid.UUID, prevToken *string, fields PaymentFields) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id IN ?", ids)
	if prevToken == nil {
		query = query.Where("snap_token IS NULL")
	} else {
		query = query.Where("snap_token = ?", *prevToken)
	}

	res := query.Updates(map[string]any{
		"transaction_id": fields.TransactionID,
		"snap_token":     fields.SnapToken,
		"payment_url":    fields.PaymentURL,
		"payment_method": fields.Method,
		"admin_fee":      fields.AdminFee,
		"updated_at":     r.clk.Now(),
	})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":     to,
			"updated_at": r.clk.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
