package orders

import (
	"time"

	"github.com/ariefcatur/go-cafe-orders.git/internal/pricing"
)

type DeliveryMode string

const (
	ModePickup   DeliveryMode = "pickup"
	ModeDelivery DeliveryMode = "delivery"
)

// Order is an immutable snapshot of a cart at checkout, one UserOrders
// document per order id. Contact fields are denormalized from the profile
// at snapshot time so later profile edits do not rewrite order history.
type Order struct {
	ID           string         `json:"order_id"`
	UserID       string         `json:"user_id"`
	Lines        []pricing.Line `json:"lines"`
	Status       Status         `json:"status"`
	TotalCost    int            `json:"total_cost"`
	CreatedAt    time.Time      `json:"created_at"`
	DeliveryMode DeliveryMode   `json:"delivery_mode"`
	Address      string         `json:"address"`
	Name         string         `json:"name"`
	Phone        string         `json:"phone"`
	Payment      string         `json:"payment"`
	PaymentTotal int            `json:"payment_total"`

	// set by the courier service when the order is dispatched
	CourierName  string `json:"courier_name,omitempty"`
	CourierPhone string `json:"courier_phone,omitempty"`
}
