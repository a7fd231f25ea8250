package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem is one priced menu line on an order.
type OrderItem struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID      uuid.UUID `gorm:"column:order_id;type:uuid;not null"`
	MenuItemName string    `gorm:"column:menu_item_name;not null"`
	Quantity     int       `gorm:"column:quantity;not null"`
	UnitPrice    int64     `gorm:"column:unit_price;not null"`
	Subtotal     int64     `gorm:"column:subtotal;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}
