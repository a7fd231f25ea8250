package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/internal/orders"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/internal/payments/txid"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/clock"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/db/models"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/enums"
	pkgerrors "github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/errors"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/logger"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/metrics"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/midtrans"
)

const adminFeeItemID = "admin-fee"

// Gateway is the slice of the Snap client the create path needs.
type Gateway interface {
	CreateTransaction(ctx context.Context, params midtrans.TransactionRequest) (*midtrans.SnapSession, error)
}

// CreateParams identifies the order set to charge and how.
type CreateParams struct {
	OrderIDs      []uuid.UUID
	Scope         Scope
	ForceNewToken bool
}

func (p CreateParams) validate() error {
	if len(p.OrderIDs) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	seen := make(map[uuid.UUID]struct{}, len(p.OrderIDs))
	for _, id := range p.OrderIDs {
		if id == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
		}
		if _, dup := seen[id]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate order id %s", id))
		}
		seen[id] = struct{}{}
	}
	if !p.Scope.IsGuest && p.Scope.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authenticated requests require a user")
	}
	return nil
}

// PaymentInfo is the fee summary echoed to the customer.
type PaymentInfo struct {
	BaseAmount  int64
	AdminFee    int64
	TotalAmount int64
	Method      enums.PaymentMethod
	FeeType     string
}

// CreateResult is the outcome of a create-transaction call: the checkout
// handle plus whether an in-flight session was reused.
type CreateResult struct {
	SnapToken   string
	RedirectURL string
	OrderIDs    []uuid.UUID
	Reused      bool
	Info        PaymentInfo
}

/// CreateService drives the create-transaction flow: load and validate the
// order set, reuse an in-flight session when possible, otherwise quote the
// fee, charge the gateway, and write the handle back.
type CreateService struct {
	repo    orders.Repository
	gateway Gateway
	policy  *FeePolicy
	txids   *txid.Builder
	clk     clock.Clock
	logg    *logger.Logger
	metrics *metrics.PaymentMetrics
}

// NewCreateService wires the create path.
func NewCreateService(repo orders.Repository, gateway Gateway, policy *FeePolicy, txids *txid.Builder, clk clock.Clock, logg *logger.Logger, m *metrics.PaymentMetrics) (*CreateService, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository is required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("gateway client is required")
	}
	if policy == nil {
		return nil, fmt.Errorf("fee policy is required")
	}
	if txids == nil {
		return nil, fmt.Errorf("transaction id builder is required")
	}
	if clk == nil {
		clk = clock.System()
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &CreateService{
		repo:    repo,
		gateway: gateway,
		policy:  policy,
		txids:   txids,
		clk:     clk,
		logg:    logg,
		metrics: m,
	}, nil
}

// CreateTransaction returns a usable checkout handle for the order set.
func (s *CreateService) CreateTransaction(ctx context.Context, params CreateParams) (*CreateResult, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	found, err := s.repo.FindByIDs(ctx, params.OrderIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading orders")
	}
	// A partial match means the caller holds at least one stale or foreign
	// id; charging the remainder silently would underbill the set.
	if len(found) != len(params.OrderIDs) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgOrdersNotFound)
	}

	charge, err := aggregate(found, params.Scope, s.clk)
	if err != nil {
		return nil, err
	}

	if !params.ForceNewToken && canReuse(charge.Orders) {
		s.metrics.IncReused()
		return s.reusedResult(charge), nil
	}

	quote := s.policy.Quote(charge.BaseAmount)
	ref := s.transactionRef(charge.Orders)
	gross := charge.BaseAmount + quote.Fee

	session, err := s.gateway.CreateTransaction(ctx, midtrans.TransactionRequest{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:     ref,
			GrossAmount: gross,
		},
		ItemDetails:     buildItemDetails(charge.Orders, quote),
		CustomerDetails: customerDetails(charge.Orders[0]),
		EnabledPayments: EnabledPayments(quote.Method),
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncCreated(quote.Method.String())

	applied := s.persist(ctx, charge, orders.PaymentFields{
		TransactionID: ref,
		SnapToken:     session.Token,
		PaymentURL:    session.RedirectURL,
		Method:        quote.Method,
		AdminFee:      quote.Fee,
	})
	if applied < int64(len(charge.Orders)) {
		if winner := s.reloadWinner(ctx, params); winner != nil {
			s.metrics.IncReused()
			return winner, nil
		}
	}

	return &CreateResult{
		SnapToken:   session.Token,
		RedirectURL: session.RedirectURL,
		OrderIDs:    orderIDs(charge.Orders),
		Info: PaymentInfo{
			BaseAmount:  charge.BaseAmount,
			AdminFee:    quote.Fee,
			TotalAmount: gross,
			Method:      quote.Method,
			FeeType:     quote.Label,
		},
	}, nil
}

// persist writes the charge handle back, guarded per order on the snap token
// observed at load time, and reports how many rows still matched. A short
// write means another create (or the webhook) touched the row since; the
// gateway transaction already exists, so the miss is an operational warning,
// not a customer-facing failure.
func (s *CreateService) persist(ctx context.Context, charge *Charge, fields orders.PaymentFields) int64 {
	var applied int64
	for _, order := range charge.Orders {
		count, err := s.repo.ApplyPaymentFields(ctx, []uuid.UUID{order.ID}, order.SnapToken, fields)
		if err != nil {
			s.warnPersistence(ctx, order.ID, fields.TransactionID, err)
			continue
		}
		applied += count
	}
	if applied < int64(len(charge.Orders)) {
		s.warnPersistence(ctx, uuid.Nil, fields.TransactionID,
			fmt.Errorf("payment fields applied to %d of %d orders", applied, len(charge.Orders)))
	}
	return applied
}

// reloadWinner re-reads the order set after a short persistence write. When a
// concurrent create already stamped every order with its own handle, that
// handle is what the rows reference, so the customer gets it back instead of
// the session that lost the race.
func (s *CreateService) reloadWinner(ctx context.Context, params CreateParams) *CreateResult {
	found, err := s.repo.FindByIDs(ctx, params.OrderIDs)
	if err != nil || len(found) != len(params.OrderIDs) {
		return nil
	}
	charge, err := aggregate(found, params.Scope, s.clk)
	if err != nil || !canReuse(charge.Orders) {
		return nil
	}
	return s.reusedResult(charge)
}

func (s *CreateService) warnPersistence(ctx context.Context, orderID uuid.UUID, ref string, err error) {
	fields := map[string]any{"transaction_ref": ref, "error": err.Error()}
	if orderID != uuid.Nil {
		fields["order_id"] = orderID.String()
	}
	s.logg.Warn(s.logg.WithFields(ctx, fields), "payment fields not fully persisted")
	s.metrics.IncPersistenceWarning()
}

// reusedResult echoes the stored handle and fee summary. The fee comes from
// storage, never re-quoted, so a rule-set change after issuance cannot make
// the summary disagree with what the gateway will collect.
func (s *CreateService) reusedResult(charge *Charge) *CreateResult {
	first := charge.Orders[0]
	fee := first.AdminFee
	method := enums.PaymentMethodQRIS
	if first.PaymentMethod != nil {
		method = *first.PaymentMethod
	}

	result := &CreateResult{
		SnapToken: *first.SnapToken,
		OrderIDs:  orderIDs(charge.Orders),
		Reused:    true,
		Info: PaymentInfo{
			BaseAmount:  charge.BaseAmount,
			AdminFee:    fee,
			TotalAmount: charge.BaseAmount + fee,
			Method:      method,
			FeeType:     s.policy.LabelFor(method),
		},
	}
	if first.PaymentURL != nil {
		result.RedirectURL = *first.PaymentURL
	}
	return result
}

func (s *CreateService) transactionRef(set []models.Order) string {
	if len(set) == 1 {
		return s.txids.Single(set[0].ID)
	}
	return s.txids.Bulk(len(set))
}

func buildItemDetails(set []models.Order, quote FeeQuote) []midtrans.ItemDetail {
	var details []midtrans.ItemDetail
	for _, order := range set {
		for _, item := range order.Items {
			details = append(details, midtrans.ItemDetail{
				ID:       item.ID.String(),
				Name:     item.MenuItemName,
				Price:    item.UnitPrice,
				Quantity: item.Quantity,
			})
		}
	}
	details = append(details, midtrans.ItemDetail{
		ID:       adminFeeItemID,
		Name:     fmt.Sprintf("Biaya Admin (%s)", quote.Label),
		Price:    quote.Fee,
		Quantity: 1,
	})
	return details
}

func customerDetails(order models.Order) *midtrans.CustomerDetails {
	return &midtrans.CustomerDetails{
		FirstName: order.CustomerName(),
		Phone:     order.CustomerPhone(),
	}
}

func orderIDs(set []models.Order) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(set))
	for _, order := range set {
		ids = append(ids, order.ID)
	}
	return ids
}
