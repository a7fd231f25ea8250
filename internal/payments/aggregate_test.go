package payments

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/clock"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/db/models"
	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/enums"
	pkgerrors "github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/errors"
)

var testNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

func guestOrder(total int64, deliveryInDays int) models.Order {
	name := "Tamu Satu"
	phone := "081200000001"
	return models.Order{
		ID:             uuid.New(),
		GuestName:      &name,
		GuestPhone:     &phone,
		RecipientName:  "Siti Rahmawati",
		RecipientPhone: "081234567890",
		Status:         enums.OrderStatusPending,
		TotalAmount:    total,
		DeliveryDate:   testNow.AddDate(0, 0, deliveryInDays),
	}
}

func userOrder(userID uuid.UUID, total int64, deliveryInDays int) models.Order {
	order := guestOrder(total, deliveryInDays)
	order.GuestName = nil
	order.GuestPhone = nil
	order.UserID = &userID
	return order
}

func withToken(order models.Order, token, ref string) models.Order {
	url := "https://example.test/" + token
	method := enums.PaymentMethodQRIS
	order.SnapToken = &token
	order.PaymentURL = &url
	order.TransactionID = &ref
	order.PaymentMethod = &method
	return order
}

func TestAggregateSumsBaseAmount(t *testing.T) {
	clk := clock.Fixed(testNow)
	charge, err := aggregate([]models.Order{guestOrder(50000, 2), guestOrder(30000, 3)}, Scope{IsGuest: true}, clk)
	require.NoError(t, err)
	assert.Equal(t, int64(80000), charge.BaseAmount)
	assert.Len(t, charge.Orders, 2)
}

func TestAggregateEmptySetIsNotFound(t *testing.T) {
	_, err := aggregate(nil, Scope{IsGuest: true}, clock.Fixed(testNow))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestAggregateRejectsSettledOrders(t *testing.T) {
	for _, status := range []enums.OrderStatus{enums.OrderStatusPaid, enums.OrderStatusConfirmed} {
		order := guestOrder(50000, 2)
		order.Status = status

		_, err := aggregate([]models.Order{order}, Scope{IsGuest: true}, clock.Fixed(testNow))
		require.Error(t, err)
		assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
		assert.Equal(t, msgOrderAlreadyPaid, pkgerrors.As(err).Message())
	}
}

func TestAggregateDeliveryWindow(t *testing.T) {
	clk := clock.Fixed(testNow)

	// Delivery earlier today is still payable; yesterday is not.
	sameDay := guestOrder(50000, 0)
	sameDay.DeliveryDate = time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC)
	_, err := aggregate([]models.Order{sameDay}, Scope{IsGuest: true}, clk)
	assert.NoError(t, err)

	expired := guestOrder(50000, -1)
	_, err = aggregate([]models.Order{expired}, Scope{IsGuest: true}, clk)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
	assert.Equal(t, msgDeliveryWindowExpired, pkgerrors.As(err).Message())
}

func TestAggregateGuestScope(t *testing.T) {
	clk := clock.Fixed(testNow)
	owned := userOrder(uuid.New(), 50000, 2)

	_, err := aggregate([]models.Order{guestOrder(30000, 2), owned}, Scope{IsGuest: true}, clk)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
	assert.Equal(t, msgGuestScopeViolation, pkgerrors.As(err).Message())
}

func TestAggregateAuthenticatedScope(t *testing.T) {
	clk := clock.Fixed(testNow)
	owner := uuid.New()

	_, err := aggregate([]models.Order{userOrder(owner, 50000, 2)}, Scope{UserID: owner}, clk)
	assert.NoError(t, err)

	// Another user's order, and a guest order, are both out of reach.
	_, err = aggregate([]models.Order{userOrder(uuid.New(), 50000, 2)}, Scope{UserID: owner}, clk)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())

	_, err = aggregate([]models.Order{guestOrder(50000, 2)}, Scope{UserID: owner}, clk)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
}

func TestCanReuseSingleOrder(t *testing.T) {
	assert.True(t, canReuse([]models.Order{withToken(guestOrder(50000, 2), "snap-1", "CATERING-x")}))

	bare := guestOrder(50000, 2)
	assert.False(t, canReuse([]models.Order{bare}))

	paid := withToken(guestOrder(50000, 2), "snap-1", "CATERING-x")
	paid.Status = enums.OrderStatusExpired
	assert.False(t, canReuse([]models.Order{paid}))

	assert.False(t, canReuse(nil))
}

func TestCanReuseBulkSet(t *testing.T) {
	ref := "CATERING-BULK-1-2"
	first := withToken(guestOrder(50000, 2), "snap-1", ref)
	second := withToken(guestOrder(30000, 2), "snap-1", ref)
	assert.True(t, canReuse([]models.Order{first, second}))

	diverged := withToken(guestOrder(30000, 2), "snap-other", ref)
	assert.False(t, canReuse([]models.Order{first, diverged}))

	otherRef := withToken(guestOrder(30000, 2), "snap-1", "CATERING-BULK-2-2")
	assert.False(t, canReuse([]models.Order{first, otherRef}))

	expired := withToken(guestOrder(30000, 2), "snap-1", ref)
	expired.Status = enums.OrderStatusExpired
	assert.False(t, canReuse([]models.Order{first, expired}))
}
