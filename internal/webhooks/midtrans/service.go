package midtranswebhook

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/internal/orders"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/internal/payments/txid"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/db/models"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/enums"
	pkgerrors "github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/errors"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/logger"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/metrics"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/midtrans"
)

// Webhook outcomes, used as the metric label and in logs.
const (
	outcomeApplied   = "applied"
	outcomeNoMatch   = "no_match"
	outcomeIgnored   = "ignored"
	outcomeBadSig    = "bad_signature"
	outcomeForeign   = "foreign_prefix"
	outcomeInvalid   = "invalid_payload"
	outcomeStoreFail = "store_failure"
)

// Notification is the payment-status callback body Midtrans posts. The
// order_id field carries the gateway-side transaction reference, not a bare
// order primary key.
type Notification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status,omitempty"`
	TransactionID     string `json:"transaction_id,omitempty"`
	PaymentType       string `json:"payment_type,omitempty"`
	TransactionTime   string `json:"transaction_time,omitempty"`
}

// Result is what the webhook endpoint reports back. The transport always
// answers HTTP 200; Success only distinguishes applied/ignored in the body.
type Result struct {
	Success      bool
	Message      string
	OrderID      string
	Status       enums.OrderStatus
	UpdatedCount *int
}

// ServiceParams wires the reconciler.
type ServiceParams struct {
	OrderRepo orders.Repository
	ServerKey string
	TxIDs     *txid.Builder
	Logger    *logger.Logger
	Metrics   *metrics.PaymentMetrics
}

// Service reconciles asynchronous payment notifications onto order status.
type Service struct {
	repo      orders.Repository
	serverKey string
	txids     *txid.Builder
	logg      *logger.Logger
	metrics   *metrics.PaymentMetrics
}

// NewService validates the wiring.
func NewService(params ServiceParams) (*Service, error) {
	if params.OrderRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order repo required")
	}
	if strings.TrimSpace(params.ServerKey) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "midtrans server key required")
	}
	if params.TxIDs == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction id builder required")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{
		repo:      params.OrderRepo,
		serverKey: params.ServerKey,
		txids:     params.TxIDs,
		logg:      params.Logger,
		metrics:   params.Metrics,
	}, nil
}

// HandleNotification validates, maps, and applies one notification. It never
// returns an error: every outcome is a Result the transport acknowledges with
// HTTP 200, because the gateway retries any non-2xx forever.
func (s *Service) HandleNotification(ctx context.Context, n *Notification) *Result {
	if n == nil || n.OrderID == "" {
		s.metrics.IncWebhook(outcomeInvalid)
		return &Result{Message: "notification ignored"}
	}

	ctx = s.logg.WithTransactionRef(ctx, n.OrderID)

	if !midtrans.VerifySignature(s.serverKey, n.OrderID, n.StatusCode, n.GrossAmount, n.SignatureKey) {
		s.logg.Warn(ctx, "webhook signature mismatch")
		s.metrics.IncWebhook(outcomeBadSig)
		return &Result{Message: "notification ignored"}
	}

	ref := s.txids.Parse(n.OrderID)
	if ref.Kind == txid.KindForeign {
		s.logg.Warn(ctx, "webhook for foreign transaction prefix")
		s.metrics.IncWebhook(outcomeForeign)
		return &Result{Message: "notification ignored"}
	}

	mapped, recognized := MapStatus(n.TransactionStatus, n.FraudStatus)
	if !recognized {
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"transaction_status": n.TransactionStatus,
			"fraud_status":       n.FraudStatus,
		}), "unrecognized transaction status, defaulting to pending")
	}

	targets, err := s.resolveTargets(ctx, ref, n.OrderID)
	if err != nil {
		s.logg.Error(ctx, "loading webhook target orders", err)
		s.metrics.IncWebhook(outcomeStoreFail)
		return &Result{Message: "temporary failure, orders not loaded"}
	}
	if len(targets) == 0 {
		// Soft success: the order may have been deleted, and a hard failure
		// here would only trigger gateway redelivery with no resolution.
		s.metrics.IncWebhook(outcomeNoMatch)
		return &Result{Success: true, Message: "no matching orders", UpdatedCount: ptr(0)}
	}

	updated, applyErr := s.apply(ctx, targets, mapped)

	result := &Result{
		Status:       mapped,
		UpdatedCount: ptr(updated),
	}
	if ref.Kind == txid.KindSingle {
		result.OrderID = ref.OrderID.String()
	}

	if applyErr != nil {
		s.logg.Error(ctx, "applying webhook status", applyErr)
		s.metrics.IncWebhook(outcomeStoreFail)
		result.Message = fmt.Sprintf("status %s applied to %d of %d orders", mapped, updated, len(targets))
		return result
	}

	s.metrics.IncWebhook(outcomeApplied)
	s.metrics.AddReconciled(updated)
	result.Success = true
	result.Message = fmt.Sprintf("status %s applied, %d updated", mapped, updated)
	return result
}

func (s *Service) resolveTargets(ctx context.Context, ref txid.Ref, raw string) ([]models.Order, error) {
	if ref.Kind == txid.KindSingle {
		return s.repo.FindByIDs(ctx, []uuid.UUID{ref.OrderID})
	}
	return s.repo.FindByTransactionRef(ctx, raw)
}

// apply fans the mapped status out over the target orders. Settled orders
// accept only a redundant paid re-application; everything else is skipped
// without touching the row. Per-order store failures are collected so one
// broken row cannot block the rest of a bulk set.
func (s *Service) apply(ctx context.Context, targets []models.Order, mapped enums.OrderStatus) (int, error) {
	var updated int
	var errs error
	for _, order := range targets {
		if !order.Status.CanApply(mapped) {
			continue
		}
		ok, err := s.repo.UpdateStatus(ctx, order.ID, order.Status, mapped)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("order %s: %w", order.ID, err))
			continue
		}
		if ok {
			updated++
		}
	}
	return updated, errs
}

// MapStatus translates the gateway's transaction status (and fraud verdict on
// card captures) into an order status. Unrecognized values map to pending so
// a new gateway status can never finalize an order by accident.
func MapStatus(transactionStatus, fraudStatus string) (enums.OrderStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(transactionStatus)) {
	case "capture":
		switch strings.ToLower(strings.TrimSpace(fraudStatus)) {
		case "accept":
			return enums.OrderStatusPaid, true
		case "challenge":
			return enums.OrderStatusPending, true
		default:
			return enums.OrderStatusFailed, true
		}
	case "settlement":
		return enums.OrderStatusPaid, true
	case "pending", "authorize":
		return enums.OrderStatusPending, true
	case "expire":
		return enums.OrderStatusExpired, true
	case "deny", "cancel", "refund", "partial_refund":
		return enums.OrderStatusFailed, true
	default:
		return enums.OrderStatusPending, false
	}
}

func ptr[T any](v T) *T {
	return &v
}
