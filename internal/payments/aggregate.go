package payments

import (
	"github.com/google/uuid"

	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/clock"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/db/models"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/enums"
	pkgerrors "github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/errors"
)

// Customer-facing business-rule messages. These are expected outcomes, not
// incidents, so they read like receipts, not stack traces.
const (
	msgOrdersNotFound        = "Pesanan tidak ditemukan"
	msgOrderAlreadyPaid      = "Pesanan sudah dibayar"
	msgDeliveryWindowExpired = "Tanggal pengiriman pesanan sudah lewat, silakan buat pesanan baru"
	msgGuestScopeViolation   = "Pesanan ini terhubung dengan akun terdaftar, silakan masuk terlebih dahulu"
	msgNotOrderOwner         = "Pesanan ini bukan milik akun Anda"
)

// Charge is the combined view of the orders a single gateway transaction
// covers: the validated order set plus its aggregate base amount.
type Charge struct {
	Orders     []models.Order
	BaseAmount int64
}

// Scope identifies who is paying: a guest session or an authenticated user.
type Scope struct {
	IsGuest bool
	UserID  uuid.UUID
}

// aggregate validates payability for the loaded orders and derives the
// combined charge. Read-only; the delivery window is evaluated against the
// injected clock at request time.
func aggregate(found []models.Order, scope Scope, clk clock.Clock) (*Charge, error) {
	if len(found) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgOrdersNotFound)
	}

	today := clock.StartOfDay(clk.Now())
	var base int64
	for _, order := range found {
		if order.Status.IsSettled() {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, msgOrderAlreadyPaid)
		}
		if order.DeliveryDate.Before(today) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, msgDeliveryWindowExpired)
		}
		if scope.IsGuest {
			if !order.IsGuest() {
				return nil, pkgerrors.New(pkgerrors.CodeForbidden, msgGuestScopeViolation)
			}
		} else if order.UserID == nil || *order.UserID != scope.UserID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, msgNotOrderOwner)
		}
		base += order.TotalAmount
	}

	return &Charge{Orders: found, BaseAmount: base}, nil
}

// canReuse reports whether the existing gateway handle on the orders can be
// returned as-is. Eligible only while every order in scope still points at the
// same in-flight checkout session: identical snap token, identical transaction
// id, all still pending.
func canReuse(found []models.Order) bool {
	if len(found) == 0 {
		return false
	}

	first := found[0]
	if first.SnapToken == nil || *first.SnapToken == "" {
		return false
	}
	if first.Status != enums.OrderStatusPending {
		return false
	}
	if first.TransactionID == nil || *first.TransactionID == "" {
		return false
	}

	for _, order := range found[1:] {
		if order.Status != enums.OrderStatusPending {
			return false
		}
		if order.SnapToken == nil || *order.SnapToken != *first.SnapToken {
			return false
		}
		if order.TransactionID == nil || *order.TransactionID != *first.TransactionID {
			return false
		}
	}
	return true
}
