package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/YayasanAt-Tauhid/Catering-At-Tauhid/pkg/enums"
)

// Order is a catering order as owned by the checkout flow. This subsystem
// only mutates the payment fields and the status; everything else is read.
type Order struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         *uuid.UUID           `gorm:"column:user_id;type:uuid"`
	GuestName      *string              `gorm:"column:guest_name"`
	GuestPhone     *string              `gorm:"column:guest_phone"`
	RecipientName  string               `gorm:"column:recipient_name;not null"`
	RecipientPhone string               `gorm:"column:recipient_phone;not null"`
	Status         enums.OrderStatus    `gorm:"column:status;not null;default:'pending'"`
	TotalAmount    int64                `gorm:"column:total_amount;not null"`
	AdminFee       int64                `gorm:"column:admin_fee;not null;default:0"`
	PaymentMethod  *enums.PaymentMethod `gorm:"column:payment_method"`
	TransactionID  *string              `gorm:"column:transaction_id"`
	SnapToken      *string              `gorm:"column:snap_token"`
	PaymentURL     *string              `gorm:"column:payment_url"`
	DeliveryDate   time.Time            `gorm:"column:delivery_date;not null"`
	Items          []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at"`
}

// IsGuest reports whether the order has no owning account.
func (o Order) IsGuest() bool {
	return o.UserID == nil
}

// CustomerName prefers the guest name for guest orders.
func (o Order) CustomerName() string {
	if o.GuestName != nil && *o.GuestName != "" {
		return *o.GuestName
	}
	return o.RecipientName
}

// CustomerPhone prefers the guest phone for guest orders.
func (o Order) CustomerPhone() string {
	if o.GuestPhone != nil && *o.GuestPhone != "" {
		return *o.GuestPhone
	}
	return o.RecipientPhone
}
